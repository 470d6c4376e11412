package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/model"
)

// ==================== 配置 ====================

// CompressOptions 压缩参数
type CompressOptions struct {
	MaxBytes       int  // 目标大小上限
	MaxDimension   uint // 长边像素上限
	InitialQuality int  // 首次编码的 JPEG 质量
	MinQuality     int  // 质量下限
	QualityStep    int  // 每次下调的步长
}

// DefaultCompressOptions 默认 1 MiB / 1920px
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		MaxBytes:       1 << 20,
		MaxDimension:   1920,
		InitialQuality: 85,
		MinQuality:     40,
		QualityStep:    10,
	}
}

func (o CompressOptions) normalized() CompressOptions {
	def := DefaultCompressOptions()
	if o.MaxBytes <= 0 {
		o.MaxBytes = def.MaxBytes
	}
	if o.MaxDimension == 0 {
		o.MaxDimension = def.MaxDimension
	}
	if o.InitialQuality <= 0 || o.InitialQuality > 100 {
		o.InitialQuality = def.InitialQuality
	}
	if o.MinQuality <= 0 || o.MinQuality > o.InitialQuality {
		o.MinQuality = min(def.MinQuality, o.InitialQuality)
	}
	if o.QualityStep <= 0 {
		o.QualityStep = def.QualityStep
	}
	return o
}

// ==================== 结果 ====================

var (
	ErrNotImage      = errors.New("asset is not a compressible image")
	ErrAlreadyRemote = errors.New("asset is already uploaded")
	ErrNoGain        = errors.New("compressed output is not smaller than original")
)

// CompressionResult 压缩结果
// Err 非空时 Asset 为原件，调用方可直接使用
type CompressionResult struct {
	Asset *model.Asset
	Err   error
}

// ==================== 压缩器 ====================

// AssetCompressor 图片压缩器，无状态，可并发使用
type AssetCompressor struct {
	opts   CompressOptions
	logger *zap.Logger
}

// NewAssetCompressor 创建压缩器
func NewAssetCompressor(opts CompressOptions, logger *zap.Logger) *AssetCompressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetCompressor{
		opts:   opts.normalized(),
		logger: logger.Named("Compressor"),
	}
}

// TryCompress 尝试压缩，失败时返回原件和原因
func (c *AssetCompressor) TryCompress(asset *model.Asset) (res CompressionResult) {
	res = CompressionResult{Asset: asset}

	defer func() {
		if r := recover(); r != nil {
			res = CompressionResult{Asset: asset, Err: fmt.Errorf("compress panic: %v", r)}
		}
	}()

	if asset == nil || asset.State() == model.AssetStateUploaded {
		res.Err = ErrAlreadyRemote
		return res
	}

	mime := mimetype.Detect(asset.Data)
	if !isCompressibleImage(mime) {
		res.Err = fmt.Errorf("%w: %s", ErrNotImage, mime.String())
		return res
	}

	img, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		res.Err = fmt.Errorf("decode image: %w", err)
		return res
	}

	bounds := img.Bounds()
	oversized := uint(bounds.Dx()) > c.opts.MaxDimension || uint(bounds.Dy()) > c.opts.MaxDimension
	if !oversized && asset.Size() <= c.opts.MaxBytes {
		// 已满足要求，无需重新编码
		return res
	}

	if oversized {
		img = resize.Thumbnail(c.opts.MaxDimension, c.opts.MaxDimension, img, resize.Lanczos3)
	}
	img = flattenAlpha(img)

	encoded, err := c.encodeWithinBudget(img)
	if err != nil {
		res.Err = err
		return res
	}
	// 超出像素上限时必须使用缩放结果，即便字节数没有变小
	if !oversized && len(encoded) >= asset.Size() {
		res.Err = ErrNoGain
		return res
	}

	out := asset.Clone()
	out.Data = encoded
	out.ContentType = "image/jpeg"
	out.Filename = jpegFilename(asset.Filename)
	res.Asset = out
	return res
}

// Compress 压缩，失败降级为原件
func (c *AssetCompressor) Compress(asset *model.Asset) *model.Asset {
	res := c.TryCompress(asset)
	if res.Err != nil {
		c.logger.Debug("压缩跳过，使用原件",
			zap.String("filename", fileNameOf(asset)),
			zap.Error(res.Err))
		return asset
	}
	return res.Asset
}

// CompressAll 并发压缩，输出与输入下标一一对应
func (c *AssetCompressor) CompressAll(ctx context.Context, assets []*model.Asset) []*model.Asset {
	if len(assets) == 0 {
		return nil
	}
	return iter.Map(assets, func(a **model.Asset) *model.Asset {
		// ctx 取消后不再做新的压缩，直接透传
		if ctx.Err() != nil {
			return *a
		}
		return c.Compress(*a)
	})
}

// encodeWithinBudget 逐步降低质量直到不超过 MaxBytes，或到达质量下限
func (c *AssetCompressor) encodeWithinBudget(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	for q := c.opts.InitialQuality; ; q -= c.opts.QualityStep {
		if q < c.opts.MinQuality {
			q = c.opts.MinQuality
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= c.opts.MaxBytes || q == c.opts.MinQuality {
			return append([]byte(nil), buf.Bytes()...), nil
		}
	}
}

func isCompressibleImage(m *mimetype.MIME) bool {
	return m.Is("image/jpeg") || m.Is("image/png") || m.Is("image/gif")
}

// flattenAlpha 透明背景铺白，JPEG 不支持透明
func flattenAlpha(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

func jpegFilename(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}

func fileNameOf(a *model.Asset) string {
	if a == nil {
		return ""
	}
	return a.Filename
}
