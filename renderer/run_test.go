package renderer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu/softgpu"
	"github.com/richinsley/toygraph/graphics"
)

type fakeContext struct {
	frames    int
	maxFrames int
	closed    bool
	// keys are pressed during the PollEvents that ends the given frame.
	keys      map[int][]graphics.Key
	callbacks map[graphics.Key]func()
	title     string
	mouse     graphics.Mouse
	// onPoll runs at the end of each PollEvents with the frame count.
	onPoll func(frame int)
}

func newFakeContext(maxFrames int, keys map[int][]graphics.Key) *fakeContext {
	return &fakeContext{
		maxFrames: maxFrames,
		keys:      keys,
		callbacks: make(map[graphics.Key]func()),
	}
}

func (c *fakeContext) MakeCurrent()                                 {}
func (c *fakeContext) Shutdown()                                    {}
func (c *fakeContext) ShouldClose() bool                            { return c.closed }
func (c *fakeContext) SetShouldClose(v bool)                        { c.closed = v }
func (c *fakeContext) SwapBuffers()                                 {}
func (c *fakeContext) GetFramebufferSize() (int, int)               { return 4, 4 }
func (c *fakeContext) Time() float64                                { return float64(c.frames) / 60 }
func (c *fakeContext) GetMouseInput() graphics.Mouse                { return c.mouse }
func (c *fakeContext) SetTitle(title string)                        { c.title = title }
func (c *fakeContext) RegisterKeyCallback(k graphics.Key, f func()) { c.callbacks[k] = f }

func (c *fakeContext) PollEvents() {
	c.frames++
	for _, k := range c.keys[c.frames] {
		if f, ok := c.callbacks[k]; ok {
			f()
		}
	}
	if c.onPoll != nil {
		c.onPoll(c.frames)
	}
	if c.frames >= c.maxFrames {
		c.closed = true
	}
}

func writeShader(t *testing.T, dir, name string, sh *api.Shader) string {
	t.Helper()
	data, err := json.Marshal(api.Document{Shader: sh})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewer_Run(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeShader(t, dir, "a.json", testShader(imagePass("solid"))),
		writeShader(t, dir, "b.json", testShader(imagePass("broken"))),
		writeShader(t, dir, "c.json", testShader(imagePass("green"))),
	}
	pl, err := NewPlaylist(files)
	if err != nil {
		t.Fatal(err)
	}

	r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
	ctx := newFakeContext(6, map[int][]graphics.Key{
		1: {graphics.Key2}, // b fails to compile, a stays
		2: {graphics.Key1}, // wraps around to c
		4: {graphics.KeyF12},
	})
	v := &Viewer{Renderer: r, Context: ctx, Playlist: pl, ScreenshotDir: dir}
	if err := v.Run(); err != nil {
		t.Fatal(err)
	}

	if pl.Index() != 2 {
		t.Fatalf("expected playlist at entry 2; got %d", pl.Index())
	}
	if dev.Presents() != 6 {
		t.Fatalf("expected 6 presented frames; got %d", dev.Presents())
	}
	if got := surfaceRGBA(t, r, 0, 0); got != [4]uint8{0, 255, 0, 255} {
		t.Fatalf("expected green output of c.json; got %v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "screenshot_0.png")); err != nil {
		t.Fatalf("expected screenshot: %v", err)
	}
	if ctx.title != "Software toygraph" {
		t.Fatalf("unexpected window title %q", ctx.title)
	}
}

func TestViewer_Escape(t *testing.T) {
	dir := t.TempDir()
	pl, _ := NewPlaylist([]string{writeShader(t, dir, "a.json", testShader(imagePass("solid")))})
	r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
	ctx := newFakeContext(100, map[int][]graphics.Key{2: {graphics.KeyEscape}})

	v := &Viewer{Renderer: r, Context: ctx, Playlist: pl, ScreenshotDir: dir}
	if err := v.Run(); err != nil {
		t.Fatal(err)
	}
	if dev.Presents() != 2 {
		t.Fatalf("expected the loop to stop after 2 frames; got %d", dev.Presents())
	}
}

func TestViewer_MinimizedWindow(t *testing.T) {
	dir := t.TempDir()
	pl, _ := NewPlaylist([]string{writeShader(t, dir, "a.json", testShader(
		bufferPass("A", "accumulate", ref("A", 0)),
		imagePass("copy0", ref("A", 0)),
	))})
	r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
	ctx := newFakeContext(6, nil)
	ctx.onPoll = func(frame int) {
		switch frame {
		case 1:
			dev.Resize(0, 0)
		case 3:
			dev.Resize(4, 4)
		}
	}

	v := &Viewer{Renderer: r, Context: ctx, Playlist: pl, ScreenshotDir: dir}
	if err := v.Run(); err != nil {
		t.Fatalf("expected minimizing to keep the viewer running; got %v", err)
	}
	if dev.Presents() != 4 {
		t.Fatalf("expected 4 presented frames; got %d", dev.Presents())
	}
	buf := r.Scene().Passes[0].Buffer
	if got := buf.Front().(*softgpu.Texture).At(0, 0, 0, 0)[0]; got != 4 {
		t.Fatalf("expected 4 accumulated frames; got %v", got)
	}
}

func TestViewer_InitialLoadFailure(t *testing.T) {
	dir := t.TempDir()
	pl, _ := NewPlaylist([]string{writeShader(t, dir, "b.json", testShader(imagePass("broken")))})
	r, _ := newTestRenderer(t, 4, 4, DefaultOptions())

	v := &Viewer{Renderer: r, Context: newFakeContext(10, nil), Playlist: pl}
	err := v.Run()
	if _, ok := err.(*LoadError); !ok {
		t.Fatalf("expected LoadError; got %v", err)
	}
}
