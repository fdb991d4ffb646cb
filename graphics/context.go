// Package graphics describes the window and input side of a presentation surface.
package graphics

// Key identifies the keys the viewer reacts to.
type Key int

const (
	KeyEscape Key = iota
	KeyF12
	Key1
	Key2
	Key3
)

// Mouse is the pointer state in framebuffer pixels, origin at the bottom left.
type Mouse struct {
	X    float32
	Y    float32
	Down bool
}

// Context defines the interface for a window with a current graphics context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	SetShouldClose(bool)
	SwapBuffers()
	PollEvents()
	GetFramebufferSize() (int, int)
	Time() float64
	GetMouseInput() Mouse
	SetTitle(title string)
	// RegisterKeyCallback calls f from PollEvents whenever key is pressed.
	RegisterKeyCallback(key Key, f func())
}
