package model

import "gorm.io/datatypes"

// ListingSubmission 房源提交记录（每次进入网络阶段的提交都会落一条）
type ListingSubmission struct {
	BaseModel

	// 会话
	SessionID   string `gorm:"size:64;index;comment:向导会话ID"`
	SubmittedBy int64  `gorm:"index;comment:操作员ID"`

	// 提交信息
	Mode        string         `gorm:"size:16;index;comment:提交模式(create/update)"`
	ListingID   string         `gorm:"size:64;index;comment:后端房源ID"`
	ListingType string         `gorm:"size:32;comment:房源类型"`
	Payload     datatypes.JSON `gorm:"type:json;comment:提交的载荷"`
	AssetCount  int            `gorm:"default:0;comment:附件数量"`

	// 结果
	Status     string `gorm:"size:32;index;default:success;comment:状态(success/failed)"`
	Stage      string `gorm:"size:32;comment:失败阶段"`
	ErrorMsg   string `gorm:"size:1024;comment:错误信息"`
	DurationMs int64  `gorm:"comment:耗时(毫秒)"`
}

func (ListingSubmission) TableName() string {
	return "listing_submissions"
}

// ==================== 模式常量 ====================

const (
	SubmitModeCreate = "create"
	SubmitModeUpdate = "update"
)

// ==================== 状态常量 ====================

const (
	SubmissionStatusSuccess = "success"
	SubmissionStatusFailed  = "failed"
)

// ==================== 阶段常量 ====================

const (
	SubmitStageCompress = "compress"
	SubmitStageUpload   = "upload"
	SubmitStageAssemble = "assemble"
	SubmitStageCreate   = "create"
)
