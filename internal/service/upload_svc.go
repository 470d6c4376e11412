package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/pkg/backend"
)

// ==================== 接口定义 ====================

// AssetUploader 批量上传端口：一次调用上传一个分类的全部附件
// 返回的引用与入参下标一一对应
type AssetUploader interface {
	UploadBatch(ctx context.Context, token string, category model.SlotName, assets []*model.Asset) ([]string, error)
}

// ==================== 错误定义 ====================

var ErrReferenceMismatch = errors.New("upload returned a different number of references than files sent")

// UploadError 某个分类上传失败
type UploadError struct {
	Category model.SlotName
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Category, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ==================== 后端上传器 ====================

// BackendUploader 通过后端 multipart 接口上传
type BackendUploader struct {
	client *backend.Client
}

func NewBackendUploader(client *backend.Client) *BackendUploader {
	return &BackendUploader{client: client}
}

func (u *BackendUploader) UploadBatch(ctx context.Context, token string, category model.SlotName, assets []*model.Asset) ([]string, error) {
	files := make([]backend.File, 0, len(assets))
	for _, a := range assets {
		files = append(files, backend.File{
			Name:        a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}
	return u.client.UploadFiles(ctx, token, string(category), files)
}

// ==================== 编排器 ====================

// UploadBatch 一个分类的待上传附件
type UploadBatch struct {
	Category model.SlotName
	Assets   []*model.Asset
}

// UploadOrchestrator 按分类并发上传
type UploadOrchestrator struct {
	uploader AssetUploader
	logger   *zap.Logger
}

func NewUploadOrchestrator(uploader AssetUploader, logger *zap.Logger) *UploadOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadOrchestrator{
		uploader: uploader,
		logger:   logger.Named("UploadOrchestrator"),
	}
}

// Upload 上传一个分类
// 空列表直接返回，不发请求；返回数量与入参不一致视为失败
func (o *UploadOrchestrator) Upload(ctx context.Context, token string, category model.SlotName, assets []*model.Asset) ([]string, error) {
	if len(assets) == 0 {
		return []string{}, nil
	}

	start := time.Now()
	refs, err := o.uploader.UploadBatch(ctx, token, category, assets)
	if err != nil {
		return nil, err
	}
	if len(refs) != len(assets) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrReferenceMismatch, len(assets), len(refs))
	}

	o.logger.Debug("分类上传完成",
		zap.String("category", string(category)),
		zap.Int("count", len(refs)),
		zap.Duration("cost", time.Since(start)))
	return refs, nil
}

// UploadAll 所有分类并发上传，第一个失败取消其余分类
// 已上传状态的附件直接沿用远程引用，结果顺序与槽位内顺序一致
func (o *UploadOrchestrator) UploadAll(ctx context.Context, token string, batches []UploadBatch) (map[model.SlotName][]string, error) {
	results := make([][]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			refs, err := o.uploadSlot(gctx, token, batch)
			if err != nil {
				return &UploadError{Category: batch.Category, Err: err}
			}
			results[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Warn("附件上传失败", zap.Error(err))
		return nil, err
	}

	out := make(map[model.SlotName][]string, len(batches))
	for i, batch := range batches {
		out[batch.Category] = results[i]
	}
	return out, nil
}

// uploadSlot 只上传本地附件，再按原顺序合并远程引用
func (o *UploadOrchestrator) uploadSlot(ctx context.Context, token string, batch UploadBatch) ([]string, error) {
	var local []*model.Asset
	for _, a := range batch.Assets {
		if a.State() == model.AssetStateAttached {
			local = append(local, a)
		}
	}

	fresh, err := o.Upload(ctx, token, batch.Category, local)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(batch.Assets))
	next := 0
	for _, a := range batch.Assets {
		if a.State() == model.AssetStateUploaded {
			refs = append(refs, a.RemoteRef)
			continue
		}
		refs = append(refs, fresh[next])
		next++
	}
	return refs, nil
}
