package renderer

import (
	"context"
	"fmt"
)

// Frame represents a single rendered frame's data, ready for encoding.
// Pixels are tightly packed RGBA rows, top row first.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	PTS    int64
}

// FrameSink consumes rendered frames, typically a video encoder.
type FrameSink interface {
	WriteFrame(f *Frame) error
	Close() error
}

const numBuffers = 3

// RunOffscreen renders frames with a fixed timestep of 1/fps seconds, reads
// each one back from the surface and hands it to sink on a separate
// goroutine. The sink is closed when all frames were written.
func (r *Renderer) RunOffscreen(ctx context.Context, sink FrameSink, frames, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("renderer: invalid frame rate %d", fps)
	}

	frameChan := make(chan *Frame, numBuffers)
	failed := make(chan struct{})
	done := make(chan error, 1)
	go runSink(sink, frameChan, failed, done)

	logger.Infof("rendering %d frames at %d fps", frames, fps)
	step := 1 / float64(fps)
	fs := NewFrameState()

	var renderErr error
loop:
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			renderErr = ctx.Err()
			break loop
		case <-failed:
			break loop
		default:
		}

		fs.Begin(Input{Time: float64(i) * step})
		if err := r.RenderFrame(fs); err != nil {
			renderErr = err
			break
		}
		img, err := r.Screenshot()
		if err != nil {
			renderErr = err
			break
		}
		fs.End()

		frameChan <- &Frame{
			Pixels: img.Pix,
			Width:  img.Rect.Dx(),
			Height: img.Rect.Dy(),
			PTS:    int64(i),
		}
	}

	close(frameChan)
	sinkErr := <-done
	if renderErr != nil {
		return renderErr
	}
	return sinkErr
}

// runSink is the consumer side of RunOffscreen. After a write error it keeps
// draining frames so the producer never blocks.
func runSink(sink FrameSink, frames <-chan *Frame, failed chan<- struct{}, done chan<- error) {
	var err error
	for f := range frames {
		if err != nil {
			continue
		}
		if err = sink.WriteFrame(f); err != nil {
			logger.Errorf("failed to write frame %d: %v", f.PTS, err)
			close(failed)
		}
	}
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	done <- err
}
