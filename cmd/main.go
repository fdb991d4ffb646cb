package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "toygraph"
	app.Usage = "render Shadertoy style multi-pass shaders"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "shaders, s",
			Value:  ".",
			Usage:  "directory holding shader description files",
			EnvVar: "TOYGRAPH_SHADERS",
		},
		cli.StringFlag{
			Name:   "media, m",
			Value:  ".",
			Usage:  "root directory of the media files referenced by shader inputs",
			EnvVar: "TOYGRAPH_MEDIA",
		},
		cli.BoolFlag{
			Name:  "lenient",
			Usage: "bind unresolvable pass references to the default texture instead of failing",
		},
	}
	sizeFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 1280,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 720,
			Usage: "frame height",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "view",
			Usage: "render shaders interactively",
			Description: `
Open a window and render the given shader description files, or every .json
file in the shader directory when none are given.

Keys: 1 previous shader, 2 next shader, 3 jump to another shader,
F12 save a screenshot, Esc quit.`,
			ArgsUsage: "[shader1.json shader2.json ...]",
			Flags: append(sizeFlags,
				cli.StringFlag{
					Name:  "screenshots",
					Value: ".",
					Usage: "directory receiving screenshot_<n>.png files",
				},
			),
			Action: View,
		},
		{
			Name:  "record",
			Usage: "render a shader offscreen into a video file",
			Description: `
Render a shader with a fixed timestep in a hidden window and pipe the frames
to ffmpeg.`,
			ArgsUsage: "shader.json",
			Flags: append(sizeFlags,
				cli.IntFlag{
					Name:  "fps",
					Value: 60,
					Usage: "frames per second",
				},
				cli.Float64Flag{
					Name:  "duration, d",
					Value: 10,
					Usage: "seconds to record",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "output.mp4",
					Usage: "output file or stream url",
				},
				cli.StringFlag{
					Name:  "codec",
					Value: "h264",
					Usage: "video codec (h264 or hevc)",
				},
				cli.BoolFlag{
					Name:  "stream",
					Usage: "write an mpegts stream instead of a file container",
				},
				cli.StringFlag{
					Name:   "ffmpeg",
					Usage:  "path to the ffmpeg executable",
					EnvVar: "TOYGRAPH_FFMPEG",
				},
			),
			Action: Record,
		},
		{
			Name:      "list",
			Usage:     "list the shader descriptions in the shader directory",
			ArgsUsage: " ",
			Action:    List,
		},
		{
			Name:  "inspect",
			Usage: "print the composed shader source and input bindings of every pass",
			Description: `
Build the render graph of a shader on the software device and print, for
every pass, its channel bindings and the composed fragment stage annotated
with slot boundaries. No GPU is required.`,
			ArgsUsage: "shader.json",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dialect",
					Value: "webgl2",
					Usage: "shader dialect to compose (webgl2 or separate)",
				},
			},
			Action: Inspect,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
