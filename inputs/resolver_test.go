package inputs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/gpu/softgpu"
	"github.com/richinsley/toygraph/media"
)

func pngFile(t *testing.T, w, h int, c color.RGBA) *fstest.MapFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &fstest.MapFile{Data: buf.Bytes()}
}

func volumeFile(w, h, d, c uint32, payload int) *fstest.MapFile {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []uint32{0, w, h, d, c})
	buf.Write(make([]byte, payload))
	return &fstest.MapFile{Data: buf.Bytes()}
}

func newResolver(files fstest.MapFS) (*Resolver, *softgpu.Device) {
	dev := softgpu.New(8, 8, nil)
	return &Resolver{Device: dev, Media: media.FSSource{FS: files}}, dev
}

func channel(n int) *int { return &n }

func TestResolver_Flat(t *testing.T) {
	r, dev := newResolver(fstest.MapFS{
		"media/a/tex.png": pngFile(t, 4, 2, color.RGBA{10, 20, 30, 255}),
	})

	chans, results := r.Resolve([]api.Input{
		{Src: "/media/a/tex.png", CType: "texture", Channel: channel(2), Sampler: api.Sampler{Filter: "mipmap", Wrap: "clamp"}},
	})
	if len(results) != 1 || results[0].Status != Resolved {
		t.Fatalf("expected one resolved result; got %+v", results)
	}
	b := chans[2]
	if b.Kind != Static || b.TextureKind != gpu.Texture2D {
		t.Fatalf("expected static 2D binding on channel 2; got %+v", b)
	}
	if b.SamplerDesc != (gpu.SamplerDesc{Filter: gpu.FilterTrilinear, Wrap: gpu.WrapClamp}) {
		t.Fatalf("unexpected sampler %+v", b.SamplerDesc)
	}
	if levels := b.Texture.(*softgpu.Texture).Levels(); levels != 3 {
		t.Fatalf("expected 3 mip levels; got %d", levels)
	}
	for _, ch := range []int{0, 1, 3} {
		if chans[ch].Kind != Unbound {
			t.Errorf("expected channel %d unbound; got %s", ch, chans[ch].Kind)
		}
	}

	chans.Release(dev)
	if dev.Live() != 0 {
		t.Fatalf("expected all objects released; %d live", dev.Live())
	}
}

func TestResolver_PositionalChannels(t *testing.T) {
	r, _ := newResolver(fstest.MapFS{
		"media/a.png": pngFile(t, 1, 1, color.RGBA{}),
	})
	chans, _ := r.Resolve([]api.Input{
		{ID: "4", CType: "buffer"},
		{Src: "/media/a.png"},
	})
	if chans[0].Kind != PassRef || chans[0].ProducerID != "4" {
		t.Fatalf("expected channel 0 to reference pass 4; got %+v", chans[0])
	}
	if chans[1].Kind != Static {
		t.Fatalf("expected channel 1 static; got %s", chans[1].Kind)
	}
}

func TestResolver_ReplacedChannel(t *testing.T) {
	r, dev := newResolver(fstest.MapFS{
		"media/a.png": pngFile(t, 1, 1, color.RGBA{}),
		"media/b.png": pngFile(t, 2, 2, color.RGBA{}),
	})
	chans, results := r.Resolve([]api.Input{
		{Src: "/media/a.png", Channel: channel(1)},
		{Src: "/media/b.png", Channel: channel(1)},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results; got %d", len(results))
	}
	if results[0].Status != Failed || !errors.Is(results[0].Err, ErrReplaced) {
		t.Fatalf("expected first input reported as replaced; got %s, %v", results[0].Status, results[0].Err)
	}
	if results[1].Status != Resolved {
		t.Fatalf("expected second input resolved; got %s", results[1].Status)
	}
	if w, _, _ := chans[1].Texture.Size(); w != 2 {
		t.Fatalf("expected channel 1 to hold b.png; got width %d", w)
	}

	chans.Release(dev)
	if dev.Live() != 0 {
		t.Fatalf("expected the replaced binding released; %d live", dev.Live())
	}
}

func TestResolver_PassReferenceSampler(t *testing.T) {
	r, _ := newResolver(fstest.MapFS{})
	chans, results := r.Resolve([]api.Input{
		{ID: "257", Src: "/media/previz/buffer00.png", CType: "buffer", Sampler: api.Sampler{Filter: "mipmap"}},
	})
	if results[0].Status != Resolved {
		t.Fatalf("expected resolved; got %s", results[0].Status)
	}
	if chans[0].Sampler == nil || chans[0].SamplerDesc.Filter != gpu.FilterLinear {
		t.Fatalf("expected linear sampler for pass reference; got %+v", chans[0])
	}
}

func TestResolver_CubemapRoundTrip(t *testing.T) {
	files := fstest.MapFS{}
	names := []string{"media/c/sky.png", "media/c/sky_1.png", "media/c/sky_2.png", "media/c/sky_3.png", "media/c/sky_4.png", "media/c/sky_5.png"}
	for k, name := range names {
		files[name] = pngFile(t, 2, 2, color.RGBA{uint8(k * 40), 0, uint8(255 - k), 255})
	}
	r, _ := newResolver(files)

	chans, results := r.Resolve([]api.Input{{Src: "/media/c/sky.png", CType: "cubemap"}})
	if results[0].Status != Resolved {
		t.Fatalf("expected resolved cubemap; got %+v", results[0])
	}
	tex := chans[0].Texture.(*softgpu.Texture)
	if chans[0].TextureKind != gpu.TextureCube || tex.Layers() != 6 {
		t.Fatalf("expected 6 layer cubemap; got kind %s with %d layers", chans[0].TextureKind, tex.Layers())
	}
	for k, name := range names {
		direct, err := media.LoadImage(r.Media, "/"+name)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(tex.Data(k, 0), direct.Pix) {
			t.Errorf("face %d does not match %s", k, name)
		}
	}
}

func TestResolver_CubemapPartial(t *testing.T) {
	r, _ := newResolver(fstest.MapFS{
		"media/c/sky.png":   pngFile(t, 2, 2, color.RGBA{255, 255, 255, 255}),
		"media/c/sky_1.png": pngFile(t, 2, 2, color.RGBA{255, 255, 255, 255}),
		"media/c/sky_2.png": pngFile(t, 4, 4, color.RGBA{255, 255, 255, 255}),
	})

	chans, results := r.Resolve([]api.Input{{Src: "/media/c/sky.png", CType: "cubemap"}})
	if results[0].Status != Partial {
		t.Fatalf("expected partial cubemap; got %s", results[0].Status)
	}
	if len(results[0].Gaps) != 4 || results[0].Gaps[0] != "/media/c/sky_2.png" {
		t.Fatalf("expected gaps for faces 2..5; got %v", results[0].Gaps)
	}
	tex := chans[0].Texture.(*softgpu.Texture)
	if c := tex.At(3, 0, 0, 0); c != ([4]float32{}) {
		t.Fatalf("expected missing face to be zero filled; got %v", c)
	}
}

func TestResolver_CubemapMissingBase(t *testing.T) {
	r, _ := newResolver(fstest.MapFS{})
	chans, results := r.Resolve([]api.Input{{Src: "/media/c/none.png", CType: "cubemap"}})
	if results[0].Status != Failed {
		t.Fatalf("expected failed; got %s", results[0].Status)
	}
	var derr *DecodeError
	if !errors.As(results[0].Err, &derr) || derr.Path != "/media/c/none.png" {
		t.Fatalf("expected DecodeError for base face; got %v", results[0].Err)
	}
	if chans[0].Kind != Unbound {
		t.Fatalf("expected unbound channel; got %s", chans[0].Kind)
	}
}

func TestResolver_Volume(t *testing.T) {
	r, _ := newResolver(fstest.MapFS{
		"media/v/grey.bin":  volumeFile(4, 2, 3, 1, 24),
		"media/v/rgba.bin":  volumeFile(2, 2, 2, 4, 32),
		"media/v/three.bin": volumeFile(2, 2, 2, 3, 24),
		"media/v/short.bin": volumeFile(2, 2, 2, 4, 31),
	})

	chans, results := r.Resolve([]api.Input{
		{Src: "/media/v/grey.bin", CType: "volume"},
		{Src: "/media/v/rgba.bin", CType: "volume"},
		{Src: "/media/v/three.bin", CType: "volume"},
		{Src: "/media/v/short.bin", CType: "volume"},
	})

	grey := chans[0].Texture
	if chans[0].TextureKind != gpu.Texture3D || grey.Format() != gpu.FormatR8 {
		t.Fatalf("expected single channel 3D texture; got %s %v", chans[0].TextureKind, grey)
	}
	if w, h, d := grey.Size(); w != 4 || h != 2 || d != 3 {
		t.Fatalf("expected 4x2x3; got %dx%dx%d", w, h, d)
	}
	if chans[1].Texture.Format() != gpu.FormatRGBA8 || chans[1].TextureKind != gpu.Texture3D {
		t.Fatalf("expected 4 channel 3D texture on channel 1")
	}

	if results[2].Status != Failed || !errors.Is(results[2].Err, media.ErrVolumeComponents) {
		t.Fatalf("expected 3 component volume to fail; got %+v", results[2])
	}
	if results[3].Status != Failed || !errors.Is(results[3].Err, media.ErrTruncated) {
		t.Fatalf("expected truncated volume to fail; got %+v", results[3])
	}
	if chans[2].Kind != Unbound || chans[3].Kind != Unbound {
		t.Fatal("expected failed volumes to leave their channels unbound")
	}
}

func TestResolver_Failures(t *testing.T) {
	r, dev := newResolver(fstest.MapFS{
		"media/bad.png": {Data: []byte("garbage")},
		"media/ok.png":  pngFile(t, 1, 1, color.RGBA{}),
	})
	chans, results := r.Resolve([]api.Input{
		{Src: "/media/bad.png"},
		{Src: "/media/ok.png", CType: "keyboard"},
		{Src: "/media/ok.png", Channel: channel(7)},
	})

	specs := []struct {
		status Status
		err    error
	}{
		{Failed, nil},
		{Failed, ErrUnsupported},
		{Failed, ErrInvalidChannel},
	}
	for i, spec := range specs {
		if results[i].Status != spec.status {
			t.Errorf("[input %d] expected %s; got %s", i, spec.status, results[i].Status)
		}
		if spec.err != nil && !errors.Is(results[i].Err, spec.err) {
			t.Errorf("[input %d] expected error %v; got %v", i, spec.err, results[i].Err)
		}
	}
	var derr *DecodeError
	if !errors.As(results[0].Err, &derr) {
		t.Errorf("expected DecodeError; got %v", results[0].Err)
	}
	for ch, b := range chans {
		if b.Kind != Unbound {
			t.Errorf("expected channel %d unbound; got %s", ch, b.Kind)
		}
	}
	if dev.Live() != 0 {
		t.Fatalf("expected no leaked objects; %d live", dev.Live())
	}
}

func TestSamplerDesc(t *testing.T) {
	specs := []struct {
		in  api.Sampler
		exp gpu.SamplerDesc
	}{
		{api.Sampler{}, gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapRepeat}},
		{api.Sampler{Filter: "nearest", Wrap: "clamp"}, gpu.SamplerDesc{Filter: gpu.FilterPoint, Wrap: gpu.WrapClamp}},
		{api.Sampler{Filter: "point", Wrap: "repeat"}, gpu.SamplerDesc{Filter: gpu.FilterPoint, Wrap: gpu.WrapRepeat}},
		{api.Sampler{Filter: "mipmap"}, gpu.SamplerDesc{Filter: gpu.FilterTrilinear, Wrap: gpu.WrapRepeat}},
	}
	for i, spec := range specs {
		if got := SamplerDesc(spec.in); got != spec.exp {
			t.Errorf("[spec %d] expected %+v; got %+v", i, spec.exp, got)
		}
	}
}
