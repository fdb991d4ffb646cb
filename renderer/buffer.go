package renderer

import (
	"fmt"

	"github.com/richinsley/toygraph/gpu"
)

// BufferFormat is the color format of every feedback buffer.
const BufferFormat = gpu.FormatRGBA32F

// Buffer holds the two render textures of a buffer pass. The pass reads the
// front texture (the result of the previous frame) and writes the back one.
type Buffer struct {
	dev      gpu.Device
	textures [2]gpu.Texture

	readIndex  int
	writeIndex int
	width      int
	height     int
}

// NewBuffer returns an empty buffer. Textures are allocated by Ensure.
func NewBuffer(dev gpu.Device) *Buffer {
	return &Buffer{
		dev:        dev,
		readIndex:  0,
		writeIndex: 1,
	}
}

// Ensure makes both textures match width x height. When they are missing or
// of another size they are recreated and cleared to zero, and Ensure
// returns true.
func (b *Buffer) Ensure(width, height int) (bool, error) {
	if b.textures[0] != nil && b.width == width && b.height == height {
		return false, nil
	}
	b.release()

	for i := range b.textures {
		tex, err := b.dev.CreateRenderTexture(width, height, BufferFormat)
		if err != nil {
			b.release()
			return false, fmt.Errorf("failed to create %dx%d buffer texture: %w", width, height, err)
		}
		b.textures[i] = tex
		if err := b.dev.ClearTexture(tex, [4]float32{}); err != nil {
			b.release()
			return false, fmt.Errorf("failed to clear buffer texture: %w", err)
		}
	}
	b.width, b.height = width, height
	b.readIndex, b.writeIndex = 0, 1
	return true, nil
}

// Front returns the texture written by the last completed draw.
func (b *Buffer) Front() gpu.Texture { return b.textures[b.readIndex] }

// Back returns the texture the next draw writes into.
func (b *Buffer) Back() gpu.Texture { return b.textures[b.writeIndex] }

// SwapBuffers toggles the read/write indices. It is called after the pass has rendered.
func (b *Buffer) SwapBuffers() {
	b.readIndex, b.writeIndex = b.writeIndex, b.readIndex
}

// Size returns the current texture size, 0x0 before the first Ensure.
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Destroy releases both textures.
func (b *Buffer) Destroy() {
	b.release()
}

func (b *Buffer) release() {
	for i, tex := range b.textures {
		if tex != nil {
			b.dev.ReleaseTexture(tex)
			b.textures[i] = nil
		}
	}
	b.width, b.height = 0, 0
}
