// Package options holds the settings shared by the viewer and the recorder.
package options

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Modes accepted by ShaderOptions.Mode.
const (
	ModeWindow = "window"
	ModeRecord = "record"
	ModeStream = "stream"
)

type ShaderOptions struct {
	ShaderDir     string // directory scanned for shader documents
	MediaDir      string // root of the media files referenced by inputs
	Mode          string
	Width         int
	Height        int
	FPS           int
	Duration      float64 // seconds to record
	OutputFile    string
	Codec         string // h264 or hevc
	FFMPEGPath    string
	ScreenshotDir string
	StrictGraph   bool
}

// Default returns the options used when no flags are given.
func Default() *ShaderOptions {
	return &ShaderOptions{
		ShaderDir:     ".",
		MediaDir:      ".",
		Mode:          ModeWindow,
		Width:         1280,
		Height:        720,
		FPS:           60,
		Duration:      10,
		OutputFile:    "output.mp4",
		Codec:         "h264",
		ScreenshotDir: ".",
		StrictGraph:   true,
	}
}

// Validate reports the first setting that cannot be used.
func (o *ShaderOptions) Validate() error {
	switch o.Mode {
	case ModeWindow, ModeRecord, ModeStream:
	default:
		return fmt.Errorf("options: unknown mode %q", o.Mode)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("options: invalid size %dx%d", o.Width, o.Height)
	}
	if o.Mode == ModeWindow {
		return nil
	}
	if o.FPS <= 0 {
		return fmt.Errorf("options: invalid frame rate %d", o.FPS)
	}
	if o.Duration <= 0 {
		return fmt.Errorf("options: invalid duration %g", o.Duration)
	}
	if o.OutputFile == "" {
		return fmt.Errorf("options: no output file")
	}
	if o.Codec != "h264" && o.Codec != "hevc" {
		return fmt.Errorf("options: unsupported codec %q", o.Codec)
	}
	// yuv420p needs even dimensions.
	if o.Width%2 != 0 || o.Height%2 != 0 {
		return fmt.Errorf("options: encoded size %dx%d must be even", o.Width, o.Height)
	}
	return nil
}

// Frames returns the number of frames a recording of Duration seconds holds.
func (o *ShaderOptions) Frames() int {
	return int(math.Round(o.Duration * float64(o.FPS)))
}

// IsMP4 reports whether the output container is MP4.
func (o *ShaderOptions) IsMP4() bool {
	return strings.EqualFold(filepath.Ext(o.OutputFile), ".mp4")
}
