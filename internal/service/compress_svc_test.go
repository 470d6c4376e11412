package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging_console_v1_202610/internal/model"
)

// noisePNG 随机噪点 PNG，压缩率很差
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 200})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAssetCompressor_NonImagePassesThrough(t *testing.T) {
	c := NewAssetCompressor(DefaultCompressOptions(), nil)
	pdf := model.NewLocalAsset("cert.pdf", "application/pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))

	res := c.TryCompress(pdf)
	assert.ErrorIs(t, res.Err, ErrNotImage)
	assert.Same(t, pdf, res.Asset)
	assert.Same(t, pdf, c.Compress(pdf))
}

func TestAssetCompressor_MalformedImageFallsBack(t *testing.T) {
	c := NewAssetCompressor(DefaultCompressOptions(), nil)
	// PNG 魔数 + 垃圾数据
	broken := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xde, 0xad}, 64)...)
	a := model.NewLocalAsset("broken.png", "image/png", broken)

	res := c.TryCompress(a)
	require.Error(t, res.Err)
	assert.Same(t, a, res.Asset)

	out := c.Compress(a)
	assert.Same(t, a, out)
	assert.Equal(t, broken, out.Data)
}

func TestAssetCompressor_SmallImageUnchanged(t *testing.T) {
	c := NewAssetCompressor(DefaultCompressOptions(), nil)
	a := model.NewLocalAsset("tiny.png", "image/png", tinyPNG(t))

	res := c.TryCompress(a)
	require.NoError(t, res.Err)
	assert.Same(t, a, res.Asset)
}

func TestAssetCompressor_OversizedImageIsResized(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.MaxDimension = 64
	c := NewAssetCompressor(opts, nil)

	original := noisePNG(t, 200, 100)
	a := model.NewLocalAsset("room.png", "image/png", original)

	res := c.TryCompress(a)
	require.NoError(t, res.Err)
	require.NotSame(t, a, res.Asset)

	out := res.Asset
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "room.jpg", out.Filename)
	assert.Equal(t, a.ID, out.ID)
	assert.Less(t, out.Size(), len(original))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)

	// 原件不被修改
	assert.Equal(t, original, a.Data)
	assert.Equal(t, "image/png", a.ContentType)
}

// flatPNG 纯色 PNG，文件很小但像素很大
func flatPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAssetCompressor_OversizedFlatImageResizedEvenWithoutByteGain(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.MaxDimension = 64
	c := NewAssetCompressor(opts, nil)

	a := model.NewLocalAsset("wall.png", "image/png", flatPNG(t, 400, 300))

	res := c.TryCompress(a)
	require.NoError(t, res.Err)
	require.NotSame(t, a, res.Asset)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Asset.Data))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 64)
	assert.LessOrEqual(t, cfg.Height, 64)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	out := c.Compress(a)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
}

func TestAssetCompressor_NoGainKeepsOriginalWithinDimension(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.MaxBytes = 1
	c := NewAssetCompressor(opts, nil)

	a := model.NewLocalAsset("wall.png", "image/png", flatPNG(t, 40, 30))

	res := c.TryCompress(a)
	assert.ErrorIs(t, res.Err, ErrNoGain)
	assert.Same(t, a, res.Asset)
	assert.Same(t, a, c.Compress(a))
}

func TestAssetCompressor_QualityStepsDown(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.MaxBytes = 2048
	c := NewAssetCompressor(opts, nil)

	a := model.NewLocalAsset("noise.png", "image/png", noisePNG(t, 120, 120))
	res := c.TryCompress(a)
	require.NoError(t, res.Err)

	// 噪点图在质量下限也压不到 2KB，但结果仍比原件小
	assert.Less(t, res.Asset.Size(), a.Size())
}

func TestAssetCompressor_UploadedAssetSkipped(t *testing.T) {
	c := NewAssetCompressor(DefaultCompressOptions(), nil)
	a := model.NewUploadedAsset("https://cdn.example.com/a.jpg")

	res := c.TryCompress(a)
	assert.ErrorIs(t, res.Err, ErrAlreadyRemote)
	assert.Same(t, a, c.Compress(a))
	assert.Nil(t, c.Compress(nil))
}

func TestAssetCompressor_CompressAllKeepsOrder(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.MaxDimension = 32
	c := NewAssetCompressor(opts, nil)

	inputs := []*model.Asset{
		model.NewLocalAsset("a.pdf", "application/pdf", []byte("%PDF-1.4 a")),
		model.NewLocalAsset("b.png", "image/png", noisePNG(t, 80, 80)),
		model.NewLocalAsset("c.pdf", "application/pdf", []byte("%PDF-1.4 c")),
		model.NewLocalAsset("d.png", "image/png", noisePNG(t, 90, 45)),
	}

	out := c.CompressAll(context.Background(), inputs)
	require.Len(t, out, len(inputs))
	for i := range inputs {
		assert.Equal(t, inputs[i].ID, out[i].ID, "index %d", i)
	}
	assert.Same(t, inputs[0], out[0])
	assert.Equal(t, "image/jpeg", out[1].ContentType)
	assert.Same(t, inputs[2], out[2])
	assert.Equal(t, "d.jpg", out[3].Filename)

	assert.Nil(t, c.CompressAll(context.Background(), nil))
}
