package releases

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"must-burn/internal/burn"
)

// progressWriter counts bytes on their way to the file and feeds the reporter.
type progressWriter struct {
	w     io.Writer
	rep   *burn.Reporter
	total int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.total += int64(n)
	pw.rep.Update(pw.total)
	return n, err
}

// Download saves asset into dir and returns the file path. Data goes to a
// ".part" file that is renamed once the body was read completely, so an
// interrupted download never looks like a finished image. samples may be nil.
func (c *Client) Download(ctx context.Context, asset Asset, dir string, samples chan burn.Sample) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: %s", asset.Name, resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = asset.Size
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(asset.Name))
	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", part, err)
	}

	rep := burn.NewReporter(burn.PhaseDownloading, total, 0, samples)
	rep.Start()
	pw := &progressWriter{w: f, rep: rep}
	_, err = io.Copy(pw, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && total > 0 && pw.total != total {
		err = fmt.Errorf("got %d of %d bytes", pw.total, total)
	}
	if err != nil {
		os.Remove(part)
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}
	if err := os.Rename(part, dest); err != nil {
		return "", err
	}
	rep.Finish(pw.total)

	c.log.Info().Str("asset", asset.Name).Str("path", dest).Int64("bytes", pw.total).Msg("Image downloaded")
	return dest, nil
}
