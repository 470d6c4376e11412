package dto

import "time"

// ==================== 请求 DTO ====================

// CreateWizardRequest 创建向导会话；ListingID 非空进入编辑模式
type CreateWizardRequest struct {
	ListingID      string              `json:"listing_id"`
	Fields         map[string]string   `json:"fields"`
	ExistingAssets map[string][]string `json:"existing_assets"` // 槽位 -> 已有远程引用
}

// PatchFieldsRequest 批量设置字段
type PatchFieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

// ToggleFacilityRequest 选中/取消设施
type ToggleFacilityRequest struct {
	Category string `json:"category" binding:"required"`
	Option   string `json:"option" binding:"required"`
}

// RegisterCategoryRequest 注册设施分类
type RegisterCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// SetActivityPriceRequest 设置活动价格
type SetActivityPriceRequest struct {
	Activity string `json:"activity" binding:"required"`
	Channel  string `json:"channel" binding:"required,oneof=per_person per_group other"`
	Value    string `json:"value"`
}

// ListSubmissionsRequest 提交记录列表
type ListSubmissionsRequest struct {
	SessionID string `form:"session_id"`
	Status    string `form:"status"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
}

// ==================== 响应 DTO ====================

// WizardVO 向导会话快照
type WizardVO struct {
	ID        string            `json:"id"`
	Phase     string            `json:"phase"`
	Step      int               `json:"step"`
	StepKey   string            `json:"step_key"`
	Errors    map[string]string `json:"errors,omitempty"`
	Failure   string            `json:"failure,omitempty"`
	ListingID string            `json:"listing_id,omitempty"`
	Result    *ListingResultVO  `json:"result,omitempty"`

	Fields         map[string]string          `json:"fields"`
	Categories     []string                   `json:"facility_categories"`
	Facilities     map[string][]string        `json:"facilities"`
	ActivityPrices map[string]ActivityPriceVO `json:"activity_prices"`
	Slots          []SlotVO                   `json:"slots"`
	Orphans        []string                   `json:"orphans,omitempty"`

	LastActiveAt time.Time `json:"last_active_at"`
}

// ActivityPriceVO 活动价格
type ActivityPriceVO struct {
	PerPerson string `json:"per_person,omitempty"`
	PerGroup  string `json:"per_group,omitempty"`
	Other     string `json:"other,omitempty"`
}

// SlotVO 附件槽位
type SlotVO struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Kind  string    `json:"kind"`
	Max   int       `json:"max"`
	Items []AssetVO `json:"items"`
}

// AssetVO 附件（不含字节）
type AssetVO struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	State       string `json:"state"`
	RemoteRef   string `json:"remote_ref,omitempty"`
}

// ListingResultVO 提交成功后的后端房源
type ListingResultVO struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// SubmissionVO 提交记录
type SubmissionVO struct {
	ID          int64  `json:"id"`
	SessionID   string `json:"session_id"`
	SubmittedBy int64  `json:"submitted_by"`
	Mode        string `json:"mode"`
	ListingID   string `json:"listing_id,omitempty"`
	ListingType string `json:"listing_type,omitempty"`
	AssetCount  int    `json:"asset_count"`
	Status      string `json:"status"`
	Stage       string `json:"stage,omitempty"`
	ErrorMsg    string `json:"error_msg,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	CreatedAt   string `json:"created_at"`
}
