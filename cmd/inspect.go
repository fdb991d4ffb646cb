package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/gpu/softgpu"
	"github.com/richinsley/toygraph/inputs"
	"github.com/richinsley/toygraph/media"
	"github.com/richinsley/toygraph/options"
	"github.com/richinsley/toygraph/renderer"
	"github.com/urfave/cli"
)

// Inspect builds the render graph of a shader on the software device and
// prints its passes.
func Inspect(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := shaderOptions(ctx, options.ModeWindow)
	dialect, err := parseDialect(ctx.String("dialect"))
	if err != nil {
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

	dev := softgpu.New(opts.Width, opts.Height, nil)
	dev.SetDialect(dialect)
	r, err := renderer.NewRenderer(dev, media.DirSource{Root: opts.MediaDir}, rendererOptions(opts))
	if err != nil {
		return err
	}
	defer r.Shutdown()

	if err := r.SwitchScene(sh); err != nil {
		return err
	}
	w := bufio.NewWriter(ctx.App.Writer)
	writeScene(w, r.Scene())
	return w.Flush()
}

func parseDialect(name string) (gpu.ShaderDialect, error) {
	switch name {
	case "", gpu.DialectWebGL2.String():
		return gpu.DialectWebGL2, nil
	case gpu.DialectSeparate.String():
		return gpu.DialectSeparate, nil
	}
	return 0, fmt.Errorf("unknown shader dialect %q", name)
}

// writeScene prints the bindings and composed fragment stage of every pass.
// Source lines are numbered and each slot opens with a marker line.
func writeScene(w io.Writer, scene *renderer.Scene) {
	fmt.Fprintf(w, "%s: %d passes\n", scene.Title, len(scene.Passes))
	for _, pass := range scene.Passes {
		fmt.Fprintf(w, "\n== pass %d (%s", pass.Index, pass.Type)
		if pass.OutputID != "" {
			fmt.Fprintf(w, ", output %s", pass.OutputID)
		}
		fmt.Fprintln(w, ")")

		for ch, b := range pass.Channels {
			if b.Kind == inputs.Unbound {
				fmt.Fprintf(w, "  iChannel%d: %s\n", ch, b.Kind)
				continue
			}
			src := b.Source
			if b.Kind == inputs.PassRef {
				src = b.ProducerID
			}
			fmt.Fprintf(w, "  iChannel%d: %s %s %s\n", ch, b.Kind, b.TextureKind, src)
		}
		for _, res := range pass.Results {
			if res.Err != nil || len(res.Gaps) > 0 {
				fmt.Fprintf(w, "  input %d: %s", res.Input, res.Status)
				if len(res.Gaps) > 0 {
					fmt.Fprintf(w, " missing %s", strings.Join(res.Gaps, ", "))
				}
				if res.Err != nil {
					fmt.Fprintf(w, " (%v)", res.Err)
				}
				fmt.Fprintln(w)
			}
		}

		lines := strings.Split(strings.TrimSuffix(pass.Program.Fragment, "\n"), "\n")
		for i, line := range lines {
			n := i + 1
			for _, slot := range pass.Program.Slots {
				if slot.Start == n && slot.End >= slot.Start {
					fmt.Fprintf(w, "     // ---- %s ----\n", slot.Name)
				}
			}
			fmt.Fprintf(w, "%4d %s\n", n, line)
		}
	}
}
