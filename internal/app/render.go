package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"must-burn/internal/burn"
)

var phaseTitles = map[burn.Phase]string{
	burn.PhaseWriting:     "Writing",
	burn.PhaseVerifying:   "Verifying",
	burn.PhaseDownloading: "Downloading",
}

// render consumes samples until the channel closes. On a terminal it draws one
// progress bar per phase; otherwise it prints a line every ten percent.
func render(samples <-chan burn.Sample) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		var p plainProgress
		for s := range samples {
			if line, ok := p.line(s); ok {
				pterm.Println(line)
			}
		}
		return
	}

	var bar *pterm.ProgressbarPrinter
	var phase burn.Phase
	for s := range samples {
		if bar == nil || s.Phase != phase {
			if bar != nil {
				_, _ = bar.Stop()
			}
			phase = s.Phase
			bar, _ = pterm.DefaultProgressbar.
				WithTotal(100).
				WithTitle(phaseTitles[phase]).
				WithRemoveWhenDone(false).
				Start()
		}
		if bar == nil {
			continue
		}
		if delta := int(s.Percent) - bar.Current; delta > 0 {
			bar.Add(delta)
		}
		bar.UpdateTitle(fmt.Sprintf("%s %s", phaseTitles[phase], humanRate(s.Throughput)))
	}
	if bar != nil {
		_, _ = bar.Stop()
	}
}

// plainProgress thins samples down to one line per ten percent and phase.
type plainProgress struct {
	phase burn.Phase
	step  int
}

func (p *plainProgress) line(s burn.Sample) (string, bool) {
	step := int(s.Percent) / 10
	if s.Phase == p.phase && step <= p.step {
		return "", false
	}
	p.phase, p.step = s.Phase, step
	return fmt.Sprintf("%s: %3d%% (%d/%d bytes, %s)",
		phaseTitles[s.Phase], int(s.Percent), s.BytesWritten, s.TotalBytes, humanRate(s.Throughput)), true
}

func humanRate(bps float64) string {
	switch {
	case bps >= 1024*1024:
		return fmt.Sprintf("%.1f MB/s", bps/(1024*1024))
	case bps >= 1024:
		return fmt.Sprintf("%.1f KB/s", bps/1024)
	}
	return fmt.Sprintf("%.0f B/s", bps)
}
