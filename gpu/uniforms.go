package gpu

import (
	"encoding/binary"
	"math"
)

// UniformBlockSize is the std140 size of the Parameters block.
const UniformBlockSize = 144

// Uniforms is the per-frame parameter payload shared by every pass.
type Uniforms struct {
	ChannelResolution [NumChannels][3]float32
	ChannelTime       [NumChannels]float32
	Resolution        [3]float32
	Mouse             [4]float32
	Date              [4]float32
	Time              float32
	TimeDelta         float32
	FrameRate         float32
	Frame             int32
}

// Std140 packs the uniforms with the layout of the Parameters block:
//
//	vec3  iChannelResolution[4]; // 0
//	vec4  iChannelTime;          // 64
//	vec3  iResolution;           // 80
//	vec4  iMouse;                // 96
//	vec4  iDate;                 // 112
//	float iTime;                 // 128
//	float iTimeDelta;            // 132
//	float iFrameRate;            // 136
//	int   iFrame;                // 140
func (u *Uniforms) Std140() []byte {
	b := make([]byte, UniformBlockSize)
	putf := func(off int, v float32) {
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
	}
	for i, res := range u.ChannelResolution {
		for j, v := range res {
			putf(i*16+j*4, v)
		}
	}
	for i, v := range u.ChannelTime {
		putf(64+i*4, v)
	}
	for i, v := range u.Resolution {
		putf(80+i*4, v)
	}
	for i, v := range u.Mouse {
		putf(96+i*4, v)
	}
	for i, v := range u.Date {
		putf(112+i*4, v)
	}
	putf(128, u.Time)
	putf(132, u.TimeDelta)
	putf(136, u.FrameRate)
	binary.LittleEndian.PutUint32(b[140:], uint32(u.Frame))
	return b
}
