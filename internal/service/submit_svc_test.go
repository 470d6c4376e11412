package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/pkg/backend"
)

type failingRecorder struct {
	ctxErr error
}

func (f *failingRecorder) Create(ctx context.Context, sub *model.ListingSubmission) error {
	f.ctxErr = ctx.Err()
	return errors.New("disk full")
}

func TestSubmitPipeline_UpdateModeRecordsListingID(t *testing.T) {
	d := newValidDraft(t)
	d.ListingID = "88"

	publisher := &mockPublisher{}
	recorder := &mockRecorder{}
	p := newTestPipeline(t, &mockUploader{}, publisher, recorder)

	listing, err := p.Run(context.Background(), "tok", d.Clone(), SubmitMeta{SessionID: "s-1", OperatorID: 3})
	require.NoError(t, err)
	assert.Equal(t, "88", listing.ID.String())

	require.Len(t, recorder.subs, 1)
	sub := recorder.subs[0]
	assert.Equal(t, model.SubmitModeUpdate, sub.Mode)
	assert.Equal(t, "88", sub.ListingID)
	assert.Equal(t, "s-1", sub.SessionID)
	assert.Equal(t, int64(3), sub.CreatedBy)
	assert.Empty(t, sub.Stage)
}

func TestSubmitPipeline_UploadFailureStopsBeforePublish(t *testing.T) {
	uploader := &mockUploader{
		uploadBatchFn: func(ctx context.Context, token string, category model.SlotName, assets []*model.Asset) ([]string, error) {
			if category == model.SlotHomestayPhotos {
				return nil, errors.New("connection reset")
			}
			return make([]string, len(assets)), nil
		},
	}
	publisher := &mockPublisher{}
	recorder := &mockRecorder{}
	p := newTestPipeline(t, uploader, publisher, recorder)

	_, err := p.Run(context.Background(), "tok", newValidDraft(t).Clone(), SubmitMeta{SessionID: "s-2"})

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, model.SlotHomestayPhotos, upErr.Category)
	assert.Nil(t, publisher.lastPayload())

	require.Len(t, recorder.subs, 1)
	sub := recorder.subs[0]
	assert.Equal(t, model.SubmissionStatusFailed, sub.Status)
	assert.Equal(t, model.SubmitStageUpload, sub.Stage)
	assert.Contains(t, sub.ErrorMsg, "connection reset")
	assert.Empty(t, sub.Payload)
}

func TestSubmitPipeline_RecorderFailureOnlyLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	recorder := &failingRecorder{}
	p := newTestPipeline(t, &mockUploader{}, &mockPublisher{}, recorder)
	p.Logger = zap.New(core)

	// 请求已取消时审计仍以独立 ctx 写入
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "tok", newValidDraft(t).Clone(), SubmitMeta{SessionID: "s-3"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, recorder.ctxErr)

	assert.Equal(t, 1, logs.FilterMessage("提交记录写入失败").Len())
	assert.Equal(t, 1, logs.FilterMessage("房源提交失败").Len())
}

func TestSubmitPipeline_BackendErrorKeepsPayload(t *testing.T) {
	publisher := &mockPublisher{
		createFn: func(ctx context.Context, token string, payload *backend.ListingPayload) (*backend.Listing, error) {
			return nil, &backend.APIError{Status: 400, Message: strings.Repeat("x", 2000)}
		},
	}
	recorder := &mockRecorder{}
	p := newTestPipeline(t, &mockUploader{}, publisher, recorder)

	_, err := p.Run(context.Background(), "tok", newValidDraft(t).Clone(), SubmitMeta{})
	require.Error(t, err)

	require.Len(t, recorder.subs, 1)
	sub := recorder.subs[0]
	assert.Equal(t, model.SubmitStageCreate, sub.Stage)
	assert.NotEmpty(t, sub.Payload)
	assert.Len(t, sub.ErrorMsg, 1024)
	assert.True(t, strings.HasSuffix(sub.ErrorMsg, "..."))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
