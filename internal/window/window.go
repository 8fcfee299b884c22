// Package window runs the attendance-window loop: it holds a window
// secret, recomputes the rotating code for the current time bucket, and
// re-renders on a fixed cadence until the window closes. The signer is
// consulted exactly once, before the window opens; the loop itself derives
// everything locally.
package window

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/popcrypto"
)

// Frame is one rendering of the window state.
type Frame struct {
	Payload popcrypto.QRPayload
	// RefreshIn is the number of seconds until the code rotates.
	RefreshIn int64
	// ClosesIn is the number of seconds until the window closes; negative
	// for open-ended windows.
	ClosesIn int64
}

// Renderer displays a frame to the operator. Rendering the payload as a
// scannable image is a display concern; the built-in renderer prints the
// payload text.
type Renderer interface {
	Render(f Frame)
}

// TextRenderer clears the terminal and prints the payload and countdowns.
type TextRenderer struct {
	Out io.Writer
}

// Render implements Renderer.
func (r TextRenderer) Render(f Frame) {
	fmt.Fprint(r.Out, "\x1b[2J\x1b[H")
	fmt.Fprintf(r.Out, "QR data: %s\n", f.Payload.Encode())
	fmt.Fprintf(r.Out, "Code rotates in %ds.\n", f.RefreshIn)
	if f.ClosesIn >= 0 {
		fmt.Fprintf(r.Out, "Window closes in %ds.\n", f.ClosesIn)
	} else {
		fmt.Fprintln(r.Out, "Window is open-ended (interrupt to close).")
	}
}

// Window is an open attendance window. The secret lives only in process
// memory: interrupting the loop forfeits the window, because the signature
// it derives from cannot be reproduced.
type Window struct {
	eventID string
	start   int64
	end     int64 // 0 = open-ended
	secret  [32]byte

	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration
}

// Open prepares a window loop. end == 0 means open-ended.
func Open(eventID string, start, end int64, secret [32]byte, r Renderer, logger *zap.Logger) *Window {
	return &Window{
		eventID:  eventID,
		start:    start,
		end:      end,
		secret:   secret,
		renderer: r,
		logger:   logger,
		now:      time.Now,
		interval: time.Second,
	}
}

// Run renders frames on the tick cadence until the window reaches its end
// time or ctx is cancelled. Returns nil on normal expiry, ctx.Err() on
// interruption.
func (w *Window) Run(ctx context.Context) error {
	w.logger.Info("attendance window open",
		zap.String("event_id", w.eventID),
		zap.Int64("start", w.start),
		zap.Int64("end", w.end),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		now := w.now().Unix()
		if w.end > 0 && now >= w.end {
			w.logger.Info("attendance window expired", zap.String("event_id", w.eventID))
			return nil
		}
		w.renderer.Render(w.frameAt(now))

		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.Info("attendance window interrupted", zap.String("event_id", w.eventID))
			return ctx.Err()
		}
	}
}

// frameAt computes the frame for a wall-clock second. The code changes
// only at bucket boundaries; in between only the countdowns move.
func (w *Window) frameAt(now int64) Frame {
	bucket := popcrypto.CodeBucket(now)
	closesIn := int64(-1)
	if w.end > 0 {
		closesIn = w.end - now
	}
	return Frame{
		Payload: popcrypto.QRPayload{
			EventID:   w.eventID,
			Timestamp: bucket,
			Code:      popcrypto.RotatingCode(w.secret, bucket),
		},
		RefreshIn: popcrypto.CodeBucketSeconds - now%popcrypto.CodeBucketSeconds,
		ClosesIn:  closesIn,
	}
}
