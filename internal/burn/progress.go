package burn

import (
	"time"
)

// DefaultProgressInterval is the minimum time between two mid-transfer samples.
const DefaultProgressInterval = 100 * time.Millisecond

// Phase names the pass a sample belongs to.
type Phase string

const (
	PhaseWriting   Phase = "writing"
	PhaseVerifying Phase = "verifying"
	// PhaseDownloading is used by image downloads, which report through the
	// same Reporter.
	PhaseDownloading Phase = "downloading"
)

// Sample is a point-in-time snapshot of a transfer.
type Sample struct {
	Phase        Phase
	BytesWritten int64
	TotalBytes   int64
	// Percent is BytesWritten/TotalBytes*100 clamped to [0,100].
	Percent float64
	// Throughput is the average bytes per second since the pass started.
	Throughput float64
	Elapsed    time.Duration
}

// Reporter turns byte counts into throttled samples and publishes them on a
// channel. When the channel is full the oldest pending sample is dropped, so
// an observer always finds the most recent one and the transfer never blocks
// on it.
type Reporter struct {
	phase    Phase
	total    int64
	interval time.Duration
	out      chan Sample
	now      func() time.Time

	start time.Time
	last  time.Time
}

// NewReporter creates a reporter for a transfer of total bytes. out may be nil,
// in which case samples are computed but discarded.
func NewReporter(phase Phase, total int64, interval time.Duration, out chan Sample) *Reporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Reporter{
		phase:    phase,
		total:    total,
		interval: interval,
		out:      out,
		now:      time.Now,
	}
}

// Start marks the beginning of the transfer.
func (r *Reporter) Start() {
	r.start = r.now()
	r.last = r.start
}

// Update publishes a sample if the throttle window has elapsed. It never
// publishes a 100% sample; that is reserved for Finish.
func (r *Reporter) Update(done int64) bool {
	now := r.now()
	if now.Sub(r.last) < r.interval {
		return false
	}
	s := r.sample(done, now)
	if s.Percent >= 100 {
		return false
	}
	r.last = now
	r.publish(s)
	return true
}

// Finish publishes the terminal 100% sample and returns it.
func (r *Reporter) Finish(done int64) Sample {
	s := r.sample(done, r.now())
	s.Percent = 100
	r.publish(s)
	return s
}

func (r *Reporter) sample(done int64, now time.Time) Sample {
	elapsed := now.Sub(r.start)
	s := Sample{
		Phase:        r.phase,
		BytesWritten: done,
		TotalBytes:   r.total,
		Elapsed:      elapsed,
	}
	switch {
	case r.total > 0:
		s.Percent = float64(done) / float64(r.total) * 100
	case done > 0:
		s.Percent = 100
	}
	if s.Percent > 100 {
		s.Percent = 100
	}
	if s.Percent < 0 {
		s.Percent = 0
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Throughput = float64(done) / secs
	}
	return s
}

func (r *Reporter) publish(s Sample) {
	if r.out == nil {
		return
	}
	if cap(r.out) == 0 {
		select {
		case r.out <- s:
		default:
		}
		return
	}
	for {
		select {
		case r.out <- s:
			return
		default:
		}
		select {
		case <-r.out:
		default:
		}
	}
}
