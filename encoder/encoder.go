// Package encoder pipes raw RGBA frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/richinsley/toygraph/log"
	"github.com/richinsley/toygraph/options"
	"github.com/richinsley/toygraph/renderer"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var logger = log.New("encoder")

var ErrClosed = errors.New("encoder: closed")

var _ renderer.FrameSink = (*FFmpegEncoder)(nil)

// FFmpegEncoder is a renderer.FrameSink that feeds an ffmpeg child process
// through its stdin.
type FFmpegEncoder struct {
	opts   *options.ShaderOptions
	pipe   *io.PipeWriter
	done   chan error
	closed bool
}

// videoEncoder picks the encoder for codec, preferring the platform's
// hardware encoder.
func videoEncoder(goos, codec string) string {
	hevc := codec == "hevc"
	switch goos {
	case "linux":
		if hevc {
			return "hevc_nvenc"
		}
		return "h264_nvenc"
	case "darwin":
		if hevc {
			return "hevc_videotoolbox"
		}
		return "h264_videotoolbox"
	}
	if hevc {
		return "libx265"
	}
	return "libx264"
}

// Args returns the ffmpeg input and output arguments for encoding frames
// described by opts on the given operating system.
func Args(opts *options.ShaderOptions, goos string) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"r":       opts.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"c:v":     videoEncoder(goos, opts.Codec),
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}
	if goos == "linux" {
		outputArgs["preset"] = "p2"
	}
	if opts.Codec == "hevc" && opts.IsMP4() {
		outputArgs["tag:v"] = "hvc1"
	}
	if opts.Mode == options.ModeStream {
		outputArgs["f"] = "mpegts"
	}
	return inputArgs, outputArgs
}

// New starts ffmpeg writing to opts.OutputFile.
func New(opts *options.ShaderOptions) (*FFmpegEncoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	inputArgs, outputArgs := Args(opts, runtime.GOOS)
	logger.Infof("encoding %dx%d@%d with %s to %s", opts.Width, opts.Height, opts.FPS, outputArgs["c:v"], opts.OutputFile)

	pipeReader, pipeWriter := io.Pipe()
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.OutputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(opts.FFMPEGPath)
	}

	e := &FFmpegEncoder{
		opts: opts,
		pipe: pipeWriter,
		done: make(chan error, 1),
	}
	go func() {
		err := cmd.Run()
		// Unblock writers if ffmpeg exits early.
		if err != nil {
			pipeReader.CloseWithError(fmt.Errorf("encoder: ffmpeg exited: %w", err))
		} else {
			pipeReader.CloseWithError(ErrClosed)
		}
		e.done <- err
	}()
	return e, nil
}

func (e *FFmpegEncoder) WriteFrame(f *renderer.Frame) error {
	if e.closed {
		return ErrClosed
	}
	if f.Width != e.opts.Width || f.Height != e.opts.Height {
		return fmt.Errorf("encoder: frame %d is %dx%d; expected %dx%d", f.PTS, f.Width, f.Height, e.opts.Width, e.opts.Height)
	}
	if want := f.Width * f.Height * 4; len(f.Pixels) != want {
		return fmt.Errorf("encoder: frame %d has %d bytes; expected %d", f.PTS, len(f.Pixels), want)
	}
	_, err := e.pipe.Write(f.Pixels)
	return err
}

// Close ends the input stream and waits for ffmpeg to finish the file.
func (e *FFmpegEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.pipe.Close()
	if err := <-e.done; err != nil {
		return fmt.Errorf("encoder: ffmpeg failed: %w", err)
	}
	logger.Infof("wrote %s", e.opts.OutputFile)
	return nil
}
