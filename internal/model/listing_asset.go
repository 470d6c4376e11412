package model

import (
	"errors"

	"github.com/google/uuid"
)

// ==================== 附件槽位 ====================

// SlotName 附件槽位名（也是上传分类名）
type SlotName string

const (
	SlotRegistrationCertificates SlotName = "registration_certificates"
	SlotIdentityDocumentFront    SlotName = "identity_document_front"
	SlotIdentityDocumentBack     SlotName = "identity_document_back"
	SlotHomestayPhotos           SlotName = "homestay_photos"
)

// SlotKind 槽位形态
type SlotKind int

const (
	SlotSingle SlotKind = iota + 1
	SlotMulti
)

// SlotSpec 槽位声明
type SlotSpec struct {
	Name     SlotName
	Label    string
	Kind     SlotKind
	Max      int // Multi 槽位的最大数量，Single 固定为 1
	Required bool
}

// SlotSpecs 所有槽位（顺序即上传分类顺序）
var SlotSpecs = []SlotSpec{
	{Name: SlotRegistrationCertificates, Label: "Registration certificates", Kind: SlotMulti, Max: 5, Required: true},
	{Name: SlotIdentityDocumentFront, Label: "Identity document (front)", Kind: SlotSingle, Max: 1, Required: true},
	{Name: SlotIdentityDocumentBack, Label: "Identity document (back)", Kind: SlotSingle, Max: 1, Required: true},
	{Name: SlotHomestayPhotos, Label: "Homestay photos", Kind: SlotMulti, Max: 10, Required: true},
}

// LookupSlotSpec 查找槽位声明
func LookupSlotSpec(name SlotName) (SlotSpec, bool) {
	for _, spec := range SlotSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return SlotSpec{}, false
}

// ==================== 附件 ====================

// AssetState 附件状态
type AssetState string

const (
	AssetStateAttached AssetState = "attached" // 本地，未压缩未上传
	AssetStateUploaded AssetState = "uploaded" // 已上传，持有远程引用
)

// Asset 单个二进制附件
type Asset struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
	RemoteRef   string
}

// NewLocalAsset 创建本地附件
func NewLocalAsset(filename, contentType string, data []byte) *Asset {
	return &Asset{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}
}

// NewUploadedAsset 用已有远程引用创建附件（编辑模式）
func NewUploadedAsset(remoteRef string) *Asset {
	return &Asset{
		ID:        uuid.NewString(),
		RemoteRef: remoteRef,
	}
}

// State 当前状态
func (a *Asset) State() AssetState {
	if a.RemoteRef != "" {
		return AssetStateUploaded
	}
	return AssetStateAttached
}

// Size 本地字节数
func (a *Asset) Size() int {
	return len(a.Data)
}

// Clone 拷贝（字节切片共享，附件内容视为不可变）
func (a *Asset) Clone() *Asset {
	cp := *a
	return &cp
}

// AssetSlot 附件槽位
type AssetSlot struct {
	Spec  SlotSpec
	Items []*Asset
}

// Count 附件数量
func (s *AssetSlot) Count() int {
	return len(s.Items)
}

// LocalItems 未上传的附件
func (s *AssetSlot) LocalItems() []*Asset {
	var items []*Asset
	for _, item := range s.Items {
		if item.State() == AssetStateAttached {
			items = append(items, item)
		}
	}
	return items
}

// ==================== 错误定义 ====================

var (
	ErrUnknownSlot       = errors.New("unknown asset slot")
	ErrAssetIndex        = errors.New("asset index out of range")
	ErrEmptyAsset        = errors.New("asset has neither data nor remote reference")
	ErrUnknownFacility   = errors.New("unknown facility category")
	ErrUnknownChannel    = errors.New("unknown activity price channel")
	ErrEmptyFacilityName = errors.New("facility category name is empty")
)
