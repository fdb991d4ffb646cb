package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/encoder"
	"github.com/richinsley/toygraph/glbackend"
	"github.com/richinsley/toygraph/glfwcontext"
	"github.com/richinsley/toygraph/media"
	"github.com/richinsley/toygraph/options"
	"github.com/richinsley/toygraph/renderer"
	"github.com/urfave/cli"
)

// Record renders a shader offscreen with a fixed timestep and encodes the
// frames with ffmpeg.
func Record(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := shaderOptions(ctx, options.ModeRecord)
	if err := opts.Validate(); err != nil {
		return err
	}
	file, err := singleShader(ctx)
	if err != nil {
		return err
	}
	sh, err := api.LoadFile(file)
	if err != nil {
		return err
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return err
	}
	defer glfwcontext.TerminateGraphics()

	window, err := glfwcontext.New(opts.Width, opts.Height, false, "toygraph")
	if err != nil {
		return err
	}
	defer window.Shutdown()

	// The hidden window only provides the context. Frames render into an FBO
	// of the requested size.
	dev, err := glbackend.NewOffscreen(window, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	defer dev.Close()

	r, err := renderer.NewRenderer(dev, media.DirSource{Root: opts.MediaDir}, rendererOptions(opts))
	if err != nil {
		return err
	}
	defer r.Shutdown()

	if err := r.SwitchScene(sh); err != nil {
		return err
	}

	enc, err := encoder.New(opts)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := r.RunOffscreen(runCtx, enc, opts.Frames(), opts.FPS); err != nil {
		return err
	}
	logger.Noticef("recorded %d frames of %q to %s", opts.Frames(), sh.Title(), opts.OutputFile)
	return nil
}
