package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/logging"
)

const (
	// Boundary separates frames in the multipart stream
	Boundary = "camrelayframe"

	// ContentType is the MJPEG multipart media type served to clients
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

// StreamOptions tune the MJPEG relay loop.
type StreamOptions struct {
	// FrameInterval is the delay between successful frames (~5 fps default)
	FrameInterval time.Duration

	// RetryInterval is the back-off after a failed frame fetch
	RetryInterval time.Duration
}

// withDefaults fills zero fields with the stock intervals.
func (o StreamOptions) withDefaults() StreamOptions {
	if o.FrameInterval <= 0 {
		o.FrameInterval = 200 * time.Millisecond
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 1 * time.Second
	}
	return o
}

// Stream relays an MJPEG sequence to w by repeatedly fetching the
// camera's snapshot URL until ctx is cancelled. Cancellation is the only
// way the loop ends besides the client going away (a write failure):
// per-frame fetch failures are retried after the back-off interval, they
// never terminate the stream.
//
// The caller must have sent headers with ContentType before calling.
func (f *Fetcher) Stream(ctx context.Context, w io.Writer, snapshotURL string, opts StreamOptions) error {
	opts = opts.withDefaults()

	flusher, _ := w.(http.Flusher)
	frames := 0

	for {
		if err := ctx.Err(); err != nil {
			logging.Debug("Stream ended", zap.Int("frames", frames), zap.Error(err))
			return nil
		}

		frame, err := f.Fetch(ctx, snapshotURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logging.Warn("Frame fetch failed, retrying",
				zap.String("url", snapshotURL),
				zap.Error(err),
			)
			if !sleepCtx(ctx, opts.RetryInterval) {
				return nil
			}
			continue
		}

		if err := writeFrame(w, frame); err != nil {
			// Client went away; not an error worth surfacing
			logging.Debug("Stream client disconnected", zap.Int("frames", frames))
			return nil
		}
		if flusher != nil {
			flusher.Flush()
		}
		frames++

		if !sleepCtx(ctx, opts.FrameInterval) {
			return nil
		}
	}
}

// writeFrame writes one multipart JPEG part.
func writeFrame(w io.Writer, frame []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(frame))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// sleepCtx sleeps for d unless ctx ends first. Returns false when the
// context ended.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
