package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// StorageProvider 对象存储提供者
type StorageProvider interface {
	// Upload 上传文件，返回公开访问URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (url string, err error)

	// Delete 删除文件（用于批次失败后的回滚）
	Delete(ctx context.Context, url string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "cos" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (腾讯云COS / MinIO)，local 时为访问前缀
	CDNDomain string // CDN域名 (可选)
	BasePath  string // 基础路径前缀，local 时为落盘目录
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "cos":
		return NewCOSStorage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== StorageUploader ====================

// StorageUploader 直传对象存储的上传器，实现 AssetUploader
// 同一分类内逐个上传保证顺序，任一失败则回滚本批已上传的对象
type StorageUploader struct {
	provider StorageProvider
	basePath string
	logger   *zap.Logger
	now      func() time.Time
}

// NewStorageUploader 创建对象存储上传器
func NewStorageUploader(provider StorageProvider, basePath string, logger *zap.Logger) *StorageUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageUploader{
		provider: provider,
		basePath: strings.Trim(basePath, "/"),
		logger:   logger.Named("StorageUploader"),
		now:      time.Now,
	}
}

// UploadBatch 上传一个分类的全部附件，token 对对象存储无意义
func (u *StorageUploader) UploadBatch(ctx context.Context, _ string, category model.SlotName, assets []*model.Asset) ([]string, error) {
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		contentType := a.ContentType
		if contentType == "" {
			contentType = mimetype.Detect(a.Data).String()
		}

		url, err := u.provider.Upload(ctx, u.generateKey(category, a.Filename), a.Data, contentType)
		if err != nil {
			u.rollback(urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// rollback 尽最大努力删除本批已上传对象
func (u *StorageUploader) rollback(urls []string) {
	if len(urls) == 0 {
		return
	}
	// 原 ctx 可能已取消，回滚使用独立超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, url := range urls {
		if err := u.provider.Delete(ctx, url); err != nil {
			u.logger.Warn("回滚已上传对象失败", zap.String("url", url), zap.Error(err))
		}
	}
}

// generateKey {basePath}/{category}/{yyyy/mm/dd}/{uuid}{ext}
func (u *StorageUploader) generateKey(category model.SlotName, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	parts := []string{
		string(category),
		u.now().Format("2006/01/02"),
		uuid.New().String() + ext,
	}
	if u.basePath != "" {
		parts = append([]string{u.basePath}, parts...)
	}
	return strings.Join(parts, "/")
}

// ==================== S3 / COS 实现 ====================

// ObjectStorage S3 协议存储（AWS S3 与腾讯云 COS 共用）
type ObjectStorage struct {
	client    *s3.Client
	bucket    string
	publicURL string // 不含结尾斜杠
	label     string
}

func NewS3Storage(cfg StorageConfig) (*ObjectStorage, error) {
	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 自定义端点（MinIO 等）使用 path-style
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	public := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &ObjectStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cdnOr(cfg.CDNDomain, public),
		label:     "S3",
	}, nil
}

func NewCOSStorage(cfg StorageConfig) (*ObjectStorage, error) {
	// COS兼容S3协议
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	}

	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("加载COS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &ObjectStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cdnOr(cfg.CDNDomain, fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)),
		label:     "COS",
	}, nil
}

func loadAWSConfig(cfg StorageConfig) (aws.Config, error) {
	return config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
}

func cdnOr(cdnDomain, fallback string) string {
	if cdnDomain != "" {
		return "https://" + strings.TrimRight(cdnDomain, "/")
	}
	return fallback
}

func (s *ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传%s失败: %w", s.label, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *ObjectStorage) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if key == "" || key == url {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入本地文件失败: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Delete(_ context.Context, url string) error {
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
