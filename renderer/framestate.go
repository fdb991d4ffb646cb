package renderer

import (
	"time"

	"github.com/richinsley/toygraph/gpu"
)

// Input is the state of the presentation surface sampled at the start of a frame.
type Input struct {
	// Time is a monotonic clock in seconds.
	Time float64
	// MouseX and MouseY are in framebuffer pixels, origin at the bottom left.
	MouseX    float32
	MouseY    float32
	MouseDown bool
}

// FrameState holds the counters and mouse latch carried from frame to frame.
type FrameState struct {
	Frame     int32
	Time      float64
	TimeDelta float64
	Mouse     [4]float32

	// Clock supplies the wall time for iDate.
	Clock func() time.Time

	started bool
	start   float64
	pressed bool
}

func NewFrameState() *FrameState {
	return &FrameState{Clock: time.Now}
}

// Begin advances the clocks and updates the mouse vector. xy follows the
// cursor while a button is held; zw holds the position where the press
// started while held and is zero otherwise.
func (fs *FrameState) Begin(in Input) {
	if !fs.started {
		fs.started = true
		fs.start = in.Time
		fs.Time = 0
		fs.TimeDelta = 0
	} else {
		t := in.Time - fs.start
		fs.TimeDelta = t - fs.Time
		fs.Time = t
	}

	if in.MouseDown {
		if !fs.pressed {
			fs.pressed = true
			fs.Mouse[2], fs.Mouse[3] = in.MouseX, in.MouseY
		}
		fs.Mouse[0], fs.Mouse[1] = in.MouseX, in.MouseY
	} else {
		fs.pressed = false
		fs.Mouse[2], fs.Mouse[3] = 0, 0
	}
}

// End finishes a presented frame.
func (fs *FrameState) End() {
	fs.Frame++
}

// Reset restarts the frame counter and the clock, keeping the mouse state.
func (fs *FrameState) Reset() {
	fs.Frame = 0
	fs.Time = 0
	fs.TimeDelta = 0
	fs.started = false
}

// FrameRate is the instantaneous rate derived from the last frame delta.
func (fs *FrameState) FrameRate() float32 {
	if fs.TimeDelta <= 0 {
		return 0
	}
	return float32(1 / fs.TimeDelta)
}

// Uniforms returns the frame-global part of the uniform block for a
// surface of width x height. Channel resolutions are filled per pass.
func (fs *FrameState) Uniforms(width, height int) gpu.Uniforms {
	u := gpu.Uniforms{
		Resolution: [3]float32{float32(width), float32(height), 1},
		Mouse:      fs.Mouse,
		Time:       float32(fs.Time),
		TimeDelta:  float32(fs.TimeDelta),
		FrameRate:  fs.FrameRate(),
		Frame:      fs.Frame,
	}
	for i := range u.ChannelTime {
		u.ChannelTime[i] = u.Time
	}
	if fs.Clock != nil {
		now := fs.Clock()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		u.Date = [4]float32{
			float32(now.Year()),
			float32(now.Month() - 1),
			float32(now.Day()),
			float32(now.Sub(midnight).Seconds()),
		}
	}
	return u
}
