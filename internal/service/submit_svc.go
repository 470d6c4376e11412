package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/pkg/backend"
)

// ==================== 接口定义 ====================

// ListingPublisher 房源创建/更新端口，*backend.Client 实现
type ListingPublisher interface {
	CreateListing(ctx context.Context, token string, payload *backend.ListingPayload) (*backend.Listing, error)
	UpdateListing(ctx context.Context, token, listingID string, payload *backend.ListingPayload) (*backend.Listing, error)
}

// SubmissionRecorder 提交记录落库端口
type SubmissionRecorder interface {
	Create(ctx context.Context, sub *model.ListingSubmission) error
}

// ==================== 提交流水线 ====================

// SubmitMeta 提交上下文信息（仅用于审计）
type SubmitMeta struct {
	SessionID  string
	OperatorID int64
}

// SubmitPipeline 压缩 -> 上传 -> 组装 -> 契约校验 -> 创建/更新
// 只操作传入的草稿快照，不修改会话中的草稿
type SubmitPipeline struct {
	Validator  *StepValidator
	Compressor *AssetCompressor
	Uploads    *UploadOrchestrator
	Assembler  *PayloadAssembler
	Publisher  ListingPublisher
	Recorder   SubmissionRecorder // 可为空
	Logger     *zap.Logger
}

func (p *SubmitPipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run 执行网络阶段；snapshot 必须是已通过 ValidateAll 的草稿副本
func (p *SubmitPipeline) Run(ctx context.Context, token string, snapshot *model.ListingDraft, meta SubmitMeta) (*backend.Listing, error) {
	start := time.Now()
	log := p.logger().With(zap.String("session", meta.SessionID))

	sub := &model.ListingSubmission{
		SessionID:   meta.SessionID,
		SubmittedBy: meta.OperatorID,
		Mode:        model.SubmitModeCreate,
		ListingID:   snapshot.ListingID,
		ListingType: snapshot.Field(model.FieldType),
		AssetCount:  snapshot.AssetCount(),
	}
	if snapshot.ListingID != "" {
		sub.Mode = model.SubmitModeUpdate
	}
	sub.BaseModel.CreatedBy = meta.OperatorID

	listing, payload, stage, err := p.run(ctx, token, snapshot)

	sub.DurationMs = time.Since(start).Milliseconds()
	if payload != nil {
		if raw, mErr := json.Marshal(payload); mErr == nil {
			sub.Payload = datatypes.JSON(raw)
		}
	}
	if err != nil {
		sub.Status = model.SubmissionStatusFailed
		sub.Stage = stage
		sub.ErrorMsg = truncate(err.Error(), 1024)
		log.Warn("房源提交失败", zap.String("stage", stage), zap.Error(err))
	} else {
		sub.Status = model.SubmissionStatusSuccess
		sub.ListingID = listing.ID.String()
		log.Info("房源提交成功",
			zap.String("mode", sub.Mode),
			zap.String("listing_id", sub.ListingID),
			zap.Int64("cost_ms", sub.DurationMs))
	}

	p.record(ctx, sub)
	return listing, err
}

func (p *SubmitPipeline) run(ctx context.Context, token string, d *model.ListingDraft) (*backend.Listing, *backend.ListingPayload, string, error) {
	// 1. 压缩：所有槽位的本地附件一起并发压缩
	batches := p.compress(ctx, d)
	if err := ctx.Err(); err != nil {
		return nil, nil, model.SubmitStageCompress, err
	}

	// 2. 上传：各分类并发
	uploads, err := p.Uploads.UploadAll(ctx, token, batches)
	if err != nil {
		return nil, nil, model.SubmitStageUpload, err
	}

	// 3. 组装 + 契约校验
	payload, err := p.Assembler.Assemble(d, uploads)
	if err != nil {
		return nil, nil, model.SubmitStageAssemble, err
	}
	if err := p.Assembler.CheckContract(payload); err != nil {
		return nil, payload, model.SubmitStageAssemble, err
	}

	// 4. 创建 / 更新
	var listing *backend.Listing
	if d.ListingID != "" {
		listing, err = p.Publisher.UpdateListing(ctx, token, d.ListingID, payload)
	} else {
		listing, err = p.Publisher.CreateListing(ctx, token, payload)
	}
	if err != nil {
		return nil, payload, model.SubmitStageCreate, err
	}
	if listing == nil {
		listing = &backend.Listing{ID: backend.FlexibleID(d.ListingID)}
	}
	return listing, payload, "", nil
}

// compress 压缩快照中的本地附件，原位替换快照槽位里的条目
func (p *SubmitPipeline) compress(ctx context.Context, d *model.ListingDraft) []UploadBatch {
	type position struct {
		slot *model.AssetSlot
		idx  int
	}

	var (
		locals    []*model.Asset
		positions []position
		batches   []UploadBatch
	)
	for _, spec := range model.SlotSpecs {
		slot, ok := d.Slot(spec.Name)
		if !ok {
			continue
		}
		for i, item := range slot.Items {
			if item.State() == model.AssetStateAttached {
				locals = append(locals, item)
				positions = append(positions, position{slot: slot, idx: i})
			}
		}
	}

	compressed := p.Compressor.CompressAll(ctx, locals)
	for i, pos := range positions {
		pos.slot.Items[pos.idx] = compressed[i]
	}

	for _, spec := range model.SlotSpecs {
		if slot, ok := d.Slot(spec.Name); ok {
			batches = append(batches, UploadBatch{Category: spec.Name, Assets: slot.Items})
		}
	}
	return batches
}

// record 落库失败只记日志，不影响提交结果
func (p *SubmitPipeline) record(ctx context.Context, sub *model.ListingSubmission) {
	if p.Recorder == nil {
		return
	}
	// 请求 ctx 可能已取消，审计仍需写入
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.Recorder.Create(rctx, sub); err != nil {
		p.logger().Error("提交记录写入失败", zap.String("session", sub.SessionID), zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n-3])
}
