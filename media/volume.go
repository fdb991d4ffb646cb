package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrVolumeComponents = errors.New("media: unsupported volume component count")
	ErrTruncated        = errors.New("media: truncated volume payload")
)

// MaxVolumeBytes bounds the payload a volume header may declare.
const MaxVolumeBytes = 1 << 30

// Volume is a raw 3D texel block. Data holds Width*Height*Depth*Components
// bytes, x fastest, then y, then z.
type Volume struct {
	Width      int
	Height     int
	Depth      int
	Components int
	Data       []byte
}

type volumeHeader struct {
	Reserved   uint32
	Width      uint32
	Height     uint32
	Depth      uint32
	Components uint32
}

// ParseVolume reads a volume blob: five little-endian uint32 words (reserved,
// width, height, depth, components) followed by the texel payload. Only 1 and
// 4 components are supported.
func ParseVolume(r io.Reader) (*Volume, error) {
	var hdr volumeHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	if hdr.Components != 1 && hdr.Components != 4 {
		return nil, fmt.Errorf("%w: %d", ErrVolumeComponents, hdr.Components)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Depth == 0 {
		return nil, fmt.Errorf("media: empty volume %dx%dx%d", hdr.Width, hdr.Height, hdr.Depth)
	}
	size := uint64(hdr.Width) * uint64(hdr.Height) * uint64(hdr.Depth) * uint64(hdr.Components)
	if size > MaxVolumeBytes {
		return nil, fmt.Errorf("media: volume of %d bytes exceeds limit", size)
	}

	v := &Volume{
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
		Depth:      int(hdr.Depth),
		Components: int(hdr.Components),
		Data:       make([]byte, size),
	}
	if _, err := io.ReadFull(r, v.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return v, nil
}

// LoadVolume opens and parses a volume blob.
func LoadVolume(src Source, name string) (*Volume, error) {
	r, err := src.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	v, err := ParseVolume(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// FlipY mirrors every depth slice vertically in place.
func (v *Volume) FlipY() {
	stride := v.Width * v.Components
	row := make([]byte, stride)
	for z := 0; z < v.Depth; z++ {
		slice := v.Data[z*v.Height*stride : (z+1)*v.Height*stride]
		for y := 0; y < v.Height/2; y++ {
			top := slice[y*stride : (y+1)*stride]
			bottom := slice[(v.Height-1-y)*stride : (v.Height-y)*stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}
}

// Mipmaps returns the box filtered mip chain of the volume, level 0 first.
func (v *Volume) Mipmaps() [][]byte {
	levels := [][]byte{v.Data}
	w, h, d := v.Width, v.Height, v.Depth
	c := v.Components
	for w > 1 || h > 1 || d > 1 {
		nw, nh, nd := max(w/2, 1), max(h/2, 1), max(d/2, 1)
		prev := levels[len(levels)-1]
		next := make([]byte, nw*nh*nd*c)
		for z := 0; z < nd; z++ {
			for y := 0; y < nh; y++ {
				for x := 0; x < nw; x++ {
					for ch := 0; ch < c; ch++ {
						sum, n := 0, 0
						for dz := 0; dz < 2; dz++ {
							for dy := 0; dy < 2; dy++ {
								for dx := 0; dx < 2; dx++ {
									sx, sy, sz := min(2*x+dx, w-1), min(2*y+dy, h-1), min(2*z+dz, d-1)
									sum += int(prev[((sz*h+sy)*w+sx)*c+ch])
									n++
								}
							}
						}
						next[((z*nh+y)*nw+x)*c+ch] = byte((sum + n/2) / n)
					}
				}
			}
		}
		levels = append(levels, next)
		w, h, d = nw, nh, nd
	}
	return levels
}
