package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/richinsley/toygraph/options"
	"github.com/richinsley/toygraph/renderer"
	"github.com/urfave/cli"
)

// shaderOptions fills ShaderOptions from the global and command flags.
// Flags a command does not define keep their defaults.
func shaderOptions(ctx *cli.Context, mode string) *options.ShaderOptions {
	opts := options.Default()
	opts.Mode = mode
	opts.ShaderDir = ctx.GlobalString("shaders")
	opts.MediaDir = ctx.GlobalString("media")
	opts.StrictGraph = !ctx.GlobalBool("lenient")

	if w := ctx.Int("width"); w != 0 {
		opts.Width = w
	}
	if h := ctx.Int("height"); h != 0 {
		opts.Height = h
	}
	if fps := ctx.Int("fps"); fps != 0 {
		opts.FPS = fps
	}
	if d := ctx.Float64("duration"); d != 0 {
		opts.Duration = d
	}
	if s := ctx.String("out"); s != "" {
		opts.OutputFile = s
	}
	if s := ctx.String("codec"); s != "" {
		opts.Codec = s
	}
	if s := ctx.String("screenshots"); s != "" {
		opts.ScreenshotDir = s
	}
	opts.FFMPEGPath = ctx.String("ffmpeg")
	if ctx.Bool("stream") {
		opts.Mode = options.ModeStream
	}
	return opts
}

func rendererOptions(opts *options.ShaderOptions) renderer.Options {
	ro := renderer.DefaultOptions()
	ro.StrictGraph = opts.StrictGraph
	return ro
}

// shaderFiles returns args unchanged or, when args is empty, every .json
// file in dir sorted by name.
func shaderFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no shader descriptions in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// singleShader resolves the one shader argument of record and inspect. A
// bare name is looked up in the shader directory.
func singleShader(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", errors.New("expected exactly one shader description argument")
	}
	name := ctx.Args().First()
	if _, err := os.Stat(name); err == nil || filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(ctx.GlobalString("shaders"), name), nil
}
