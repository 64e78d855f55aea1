package resource

import (
	"context"
	"io"
)

// RateLimitedWriter passes writes to an io.Writer within the controller's IO budget.
//
// Each write is forwarded in chunks of at most one burst, so a canceled or
// expiring context stops a large write part way through. Write then reports
// the bytes already forwarded.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter wraps w. A nil rc forwards writes unthrottled.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, rc: rc}
}

func (w *RateLimitedWriter) chunkSize(n int) int {
	if w.rc == nil || w.rc.ioLimiter == nil {
		return n
	}
	return w.rc.ioLimiter.Burst()
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	written := 0
	chunk := w.chunkSize(len(p))

	for len(p) > 0 {
		n := min(len(p), chunk)
		if err := w.rc.AcquireIO(w.ctx, n); err != nil {
			return written, err
		}

		m, err := w.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}

	return written, nil
}
