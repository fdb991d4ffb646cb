package main

import (
	"github.com/richinsley/toygraph/glbackend"
	"github.com/richinsley/toygraph/glfwcontext"
	"github.com/richinsley/toygraph/media"
	"github.com/richinsley/toygraph/options"
	"github.com/richinsley/toygraph/renderer"
	"github.com/urfave/cli"
)

// View renders a playlist of shaders in a window.
func View(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := shaderOptions(ctx, options.ModeWindow)
	if err := opts.Validate(); err != nil {
		return err
	}
	files, err := shaderFiles(opts.ShaderDir, ctx.Args())
	if err != nil {
		return err
	}
	playlist, err := renderer.NewPlaylist(files)
	if err != nil {
		return err
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return err
	}
	defer glfwcontext.TerminateGraphics()

	window, err := glfwcontext.New(opts.Width, opts.Height, true, "toygraph")
	if err != nil {
		return err
	}
	defer window.Shutdown()

	dev, err := glbackend.New(window)
	if err != nil {
		return err
	}
	defer dev.Close()

	r, err := renderer.NewRenderer(dev, media.DirSource{Root: opts.MediaDir}, rendererOptions(opts))
	if err != nil {
		return err
	}
	defer r.Shutdown()

	viewer := &renderer.Viewer{
		Renderer:      r,
		Context:       window,
		Playlist:      playlist,
		ScreenshotDir: opts.ScreenshotDir,
	}
	return viewer.Run()
}
