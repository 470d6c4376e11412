package app

import (
	"fmt"

	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/service"
	"lodging_console_v1_202610/pkg/backend"
	"lodging_console_v1_202610/pkg/config"
)

// Pipeline 提交链路上的组件，服务端与 CLI 共用
type Pipeline struct {
	Backend  *backend.Client
	Uploader service.AssetUploader
	Submit   *service.SubmitPipeline
}

// NewBackendClient 按配置创建后端客户端
func NewBackendClient(cfg config.BackendConfig) *backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:     cfg.BaseURL,
		UploadPath:  cfg.UploadPath,
		UploadField: cfg.UploadField,
		ListingPath: cfg.ListingPath,
		GeoPath:     cfg.GeoPath,
		Timeout:     cfg.Timeout,
		RetryCount:  cfg.RetryCount,
		ProxyURL:    cfg.ProxyURL,
		Debug:       cfg.Debug,
	})
}

// NewUploader 按 uploader 配置选择上传通道
// backend: 走后端 multipart 接口；storage: 直传对象存储
func NewUploader(cfg *config.Config, client *backend.Client, logger *zap.Logger) (service.AssetUploader, error) {
	switch cfg.Uploader {
	case "", "backend":
		return service.NewBackendUploader(client), nil
	case "storage":
		provider, err := service.NewStorageProvider(service.StorageConfig{
			Provider:  cfg.Storage.Provider,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Endpoint:  cfg.Storage.Endpoint,
			CDNDomain: cfg.Storage.CDNDomain,
			BasePath:  cfg.Storage.BasePath,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化对象存储失败: %w", err)
		}
		basePath := cfg.Storage.BasePath
		if cfg.Storage.Provider == "local" {
			// local 的 BasePath 是落盘目录，key 不再加前缀
			basePath = ""
		}
		return service.NewStorageUploader(provider, basePath, logger), nil
	default:
		return nil, fmt.Errorf("不支持的上传通道: %s", cfg.Uploader)
	}
}

// NewPipeline 组装提交流水线；recorder 可为空
func NewPipeline(cfg *config.Config, recorder service.SubmissionRecorder, logger *zap.Logger) (*Pipeline, error) {
	client := NewBackendClient(cfg.Backend)

	uploader, err := NewUploader(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	assembler, err := service.NewPayloadAssembler()
	if err != nil {
		return nil, err
	}

	c := cfg.Compression
	submit := &service.SubmitPipeline{
		Validator: service.NewStepValidator(),
		Compressor: service.NewAssetCompressor(service.CompressOptions{
			MaxBytes:       c.MaxBytes,
			MaxDimension:   c.MaxDimension,
			InitialQuality: c.InitialQuality,
			MinQuality:     c.MinQuality,
			QualityStep:    c.QualityStep,
		}, logger),
		Uploads:   service.NewUploadOrchestrator(uploader, logger),
		Assembler: assembler,
		Publisher: client,
		Recorder:  recorder,
		Logger:    logger.Named("SubmitPipeline"),
	}

	return &Pipeline{Backend: client, Uploader: uploader, Submit: submit}, nil
}
