package renderer

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/graphics"
)

// Viewer runs a playlist interactively in a window.
type Viewer struct {
	Renderer *Renderer
	Context  graphics.Context
	Playlist *Playlist
	// ScreenshotDir receives screenshot_<n>.png files.
	ScreenshotDir string
	// Load reads a description file. It defaults to api.LoadFile.
	Load func(path string) (*api.Shader, error)

	screenshots int
	wantShot    bool
	fpsTime     float64
	fpsFrames   int
	title       string
}

// Run loads the current playlist entry and renders until the window is
// closed. Keys 1 and 2 step through the playlist, 3 jumps to a pseudo
// random entry, F12 saves a screenshot and Escape quits. A failure to load
// the first shader or any device failure ends the loop with an error;
// failed switches keep the current scene.
func (v *Viewer) Run() error {
	if v.Load == nil {
		v.Load = api.LoadFile
	}
	r, ctx, pl := v.Renderer, v.Context, v.Playlist

	sh, err := v.Load(pl.Current())
	if err != nil {
		return err
	}
	if err := r.SwitchScene(sh); err != nil {
		return err
	}

	ctx.RegisterKeyCallback(graphics.KeyEscape, func() { ctx.SetShouldClose(true) })
	ctx.RegisterKeyCallback(graphics.Key1, func() { pl.Request(pl.Prev()) })
	ctx.RegisterKeyCallback(graphics.Key2, func() { pl.Request(pl.Next()) })
	ctx.RegisterKeyCallback(graphics.Key3, func() { pl.Request(pl.Random()) })
	ctx.RegisterKeyCallback(graphics.KeyF12, func() { v.wantShot = true })

	v.title = fmt.Sprintf("%s toygraph", r.Device().Platform())
	ctx.SetTitle(v.title)
	v.fpsTime = ctx.Time()

	fs := NewFrameState()
	for !ctx.ShouldClose() {
		if i, ok := pl.TakeRequest(); ok {
			if v.switchTo(i) {
				fs.Reset()
			}
		}

		if !r.Drawable() {
			ctx.PollEvents()
			continue
		}

		mouse := ctx.GetMouseInput()
		fs.Begin(Input{Time: ctx.Time(), MouseX: mouse.X, MouseY: mouse.Y, MouseDown: mouse.Down})
		if err := r.RenderFrame(fs); err != nil {
			return err
		}
		if v.wantShot {
			v.wantShot = false
			v.screenshot()
		}
		if err := r.Present(); err != nil {
			return err
		}
		fs.End()

		v.updateTitle()
		ctx.PollEvents()
	}
	return nil
}

func (v *Viewer) switchTo(i int) bool {
	path := v.Playlist.File(i)
	sh, err := v.Load(path)
	if err == nil {
		err = v.Renderer.SwitchScene(sh)
	}
	if err != nil {
		logger.Errorf("failed to switch to %s: %v", path, err)
		return false
	}
	v.Playlist.Select(i)
	return true
}

func (v *Viewer) screenshot() {
	img, err := v.Renderer.Screenshot()
	if err != nil {
		logger.Errorf("screenshot: %v", err)
		return
	}
	name := filepath.Join(v.ScreenshotDir, fmt.Sprintf("screenshot_%d.png", v.screenshots))
	f, err := os.Create(name)
	if err != nil {
		logger.Errorf("screenshot: %v", err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		logger.Errorf("screenshot: %v", err)
		return
	}
	logger.Noticef("screenshot %d saved to %s", v.screenshots, name)
	v.screenshots++
}

func (v *Viewer) updateTitle() {
	v.fpsFrames++
	now := v.Context.Time()
	if elapsed := now - v.fpsTime; elapsed > 1 {
		v.Context.SetTitle(fmt.Sprintf("%s %.1f FPS", v.title, float64(v.fpsFrames)/elapsed))
		v.fpsTime = now
		v.fpsFrames = 0
	}
}
