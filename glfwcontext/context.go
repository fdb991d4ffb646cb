// Package glfwcontext provides a graphics.Context backed by a GLFW window
// with an OpenGL 4.1 core context.
package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/toygraph/graphics"
	"github.com/richinsley/toygraph/log"
)

var logger = log.New("glfwcontext")

var _ graphics.Context = (*Context)(nil)

var keyMap = map[graphics.Key]glfw.Key{
	graphics.KeyEscape: glfw.KeyEscape,
	graphics.KeyF12:    glfw.KeyF12,
	graphics.Key1:      glfw.Key1,
	graphics.Key2:      glfw.Key2,
	graphics.Key3:      glfw.Key3,
}

// Context owns a GLFW window and the callbacks registered on it.
type Context struct {
	window       *glfw.Window
	keyCallbacks map[glfw.Key]func()
}

// New creates a window of the given size. Hidden windows are used for
// offscreen rendering and are not resizable.
func New(width, height int, visible bool, title string) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	return c, nil
}

// RegisterKeyCallback runs f from PollEvents when key is pressed. Keys
// without a GLFW equivalent are ignored.
func (c *Context) RegisterKeyCallback(key graphics.Key, f func()) {
	if k, ok := keyMap[key]; ok {
		c.keyCallbacks[k] = f
	}
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	} else if key == glfw.KeyEscape {
		w.SetShouldClose(true)
	}
}

// GetMouseInput returns the cursor in framebuffer pixels with the origin at
// the bottom left.
func (c *Context) GetMouseInput() graphics.Mouse {
	if c.window == nil {
		return graphics.Mouse{}
	}

	fbWidth, fbHeight := c.GetFramebufferSize()
	winWidth, winHeight := c.window.GetSize()
	var scaleX, scaleY float64 = 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}

	cursorX, cursorY := c.window.GetCursorPos()
	return graphics.Mouse{
		X:    float32(cursorX * scaleX),
		Y:    float32(fbHeight) - float32(cursorY*scaleY),
		Down: c.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press,
	}
}

func (c *Context) MakeCurrent()                   { c.window.MakeContextCurrent() }
func (c *Context) ShouldClose() bool              { return c.window.ShouldClose() }
func (c *Context) SetShouldClose(v bool)          { c.window.SetShouldClose(v) }
func (c *Context) SwapBuffers()                   { c.window.SwapBuffers() }
func (c *Context) PollEvents()                    { glfw.PollEvents() }
func (c *Context) GetFramebufferSize() (int, int) { return c.window.GetFramebufferSize() }
func (c *Context) Time() float64                  { return glfw.GetTime() }
func (c *Context) SetTitle(title string)          { c.window.SetTitle(title) }

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logger.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts GLFW down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	logger.Debug("GLFW terminated")
}
