package model

import (
	"fmt"
	"sort"
	"strings"
)

// ==================== 设施 ====================

// FacilityCategory 设施分类（开放集合，需先注册再写入）
type FacilityCategory string

const (
	FacilityWater       FacilityCategory = "Water"
	FacilityElectricity FacilityCategory = "Electricity"
	FacilityKitchen     FacilityCategory = "Kitchen"
	FacilityBathroom    FacilityCategory = "Bathroom"
	FacilityInternet    FacilityCategory = "Internet"
	FacilityTransport   FacilityCategory = "Transport"
	FacilitySafety      FacilityCategory = "Safety"
	FacilityActivities  FacilityCategory = "Activities"
)

// DefaultFacilityCategories 新草稿默认注册的设施分类
var DefaultFacilityCategories = []FacilityCategory{
	FacilityWater,
	FacilityElectricity,
	FacilityKitchen,
	FacilityBathroom,
	FacilityInternet,
	FacilityTransport,
	FacilitySafety,
	FacilityActivities,
}

// ==================== 活动价格 ====================

// PriceChannel 活动价格渠道
type PriceChannel string

const (
	PricePerPerson PriceChannel = "per_person"
	PricePerGroup  PriceChannel = "per_group"
	PriceOther     PriceChannel = "other"
)

// ActivityPrice 单个活动的价格（均为可选字符串）
type ActivityPrice struct {
	PerPerson string `json:"per_person,omitempty" yaml:"per_person"`
	PerGroup  string `json:"per_group,omitempty" yaml:"per_group"`
	Other     string `json:"other,omitempty" yaml:"other"`
}

// HasAny 是否至少填写了一个渠道
func (p ActivityPrice) HasAny() bool {
	return strings.TrimSpace(p.PerPerson) != "" ||
		strings.TrimSpace(p.PerGroup) != "" ||
		strings.TrimSpace(p.Other) != ""
}

// ==================== 草稿 ====================

// ListingDraft 进行中的房源草稿
// 由所属向导会话独占，方法本身不加锁
type ListingDraft struct {
	// ListingID 非空表示编辑已有房源
	ListingID string

	fields         map[FieldName]string
	facilities     map[FacilityCategory]map[string]struct{}
	categoryOrder  []FacilityCategory
	activityPrices map[string]ActivityPrice
	slots          map[SlotName]*AssetSlot

	// Orphans 已上传后又被移除的远程引用（不做远端清理）
	Orphans []string
}

// NewListingDraft 创建空草稿
func NewListingDraft() *ListingDraft {
	d := &ListingDraft{
		fields:         make(map[FieldName]string),
		facilities:     make(map[FacilityCategory]map[string]struct{}),
		activityPrices: make(map[string]ActivityPrice),
		slots:          make(map[SlotName]*AssetSlot),
	}
	for _, c := range DefaultFacilityCategories {
		_ = d.RegisterFacilityCategory(c)
	}
	for _, spec := range SlotSpecs {
		d.slots[spec.Name] = &AssetSlot{Spec: spec}
	}
	return d
}

// ==================== 标量字段 ====================

// geoCascade 上级地理字段变化时需要清空的下级字段
var geoCascade = map[FieldName][]FieldName{
	FieldProvince: {FieldDistrict, FieldMunicipality},
	FieldDistrict: {FieldMunicipality},
}

// SetField 设置字段值，未知字段返回 false
// 注意：修改 type 不会清空 homestay_subtype，调用方需重新校验
func (d *ListingDraft) SetField(name FieldName, value string) bool {
	if !IsKnownField(name) {
		return false
	}

	old := d.fields[name]
	d.fields[name] = value

	if old != value {
		for _, dep := range geoCascade[name] {
			delete(d.fields, dep)
		}
	}
	return true
}

// Field 读取字段值
func (d *ListingDraft) Field(name FieldName) string {
	return d.fields[name]
}

// Fields 字段快照
func (d *ListingDraft) Fields() map[FieldName]string {
	out := make(map[FieldName]string, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// IsHomestay 是否民宿类型
func (d *ListingDraft) IsHomestay() bool {
	return strings.TrimSpace(d.fields[FieldType]) == ListingTypeHomestay
}

// ==================== 设施 ====================

// RegisterFacilityCategory 运行时注册新设施分类（重复注册无副作用）
func (d *ListingDraft) RegisterFacilityCategory(category FacilityCategory) error {
	if strings.TrimSpace(string(category)) == "" {
		return ErrEmptyFacilityName
	}
	if _, ok := d.facilities[category]; ok {
		return nil
	}
	d.facilities[category] = make(map[string]struct{})
	d.categoryOrder = append(d.categoryOrder, category)
	return nil
}

// FacilityCategories 已注册分类（注册顺序）
func (d *ListingDraft) FacilityCategories() []FacilityCategory {
	return append([]FacilityCategory(nil), d.categoryOrder...)
}

// ToggleFacility 选中/取消选中某个设施选项
func (d *ListingDraft) ToggleFacility(category FacilityCategory, option string) error {
	set, ok := d.facilities[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFacility, category)
	}
	if _, selected := set[option]; selected {
		delete(set, option)
	} else {
		set[option] = struct{}{}
	}
	return nil
}

// FacilitySelected 选项是否已选中
func (d *ListingDraft) FacilitySelected(category FacilityCategory, option string) bool {
	_, ok := d.facilities[category][option]
	return ok
}

// FacilityOptions 某分类已选选项（排序后）
func (d *ListingDraft) FacilityOptions(category FacilityCategory) []string {
	set := d.facilities[category]
	options := make([]string, 0, len(set))
	for o := range set {
		options = append(options, o)
	}
	sort.Strings(options)
	return options
}

// Facilities 非空分类的选项快照
func (d *ListingDraft) Facilities() map[FacilityCategory][]string {
	out := make(map[FacilityCategory][]string)
	for _, c := range d.categoryOrder {
		if opts := d.FacilityOptions(c); len(opts) > 0 {
			out[c] = opts
		}
	}
	return out
}

// ==================== 活动价格 ====================

// SetActivityPrice 设置某活动某渠道的价格
func (d *ListingDraft) SetActivityPrice(activity string, channel PriceChannel, value string) error {
	price := d.activityPrices[activity]
	switch channel {
	case PricePerPerson:
		price.PerPerson = value
	case PricePerGroup:
		price.PerGroup = value
	case PriceOther:
		price.Other = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	d.activityPrices[activity] = price
	return nil
}

// ActivityPrice 读取活动价格
func (d *ListingDraft) ActivityPrice(activity string) ActivityPrice {
	return d.activityPrices[activity]
}

// ActivityPrices 活动价格快照
func (d *ListingDraft) ActivityPrices() map[string]ActivityPrice {
	out := make(map[string]ActivityPrice, len(d.activityPrices))
	for k, v := range d.activityPrices {
		out[k] = v
	}
	return out
}

// ==================== 附件 ====================

// Slot 获取槽位
func (d *ListingDraft) Slot(name SlotName) (*AssetSlot, bool) {
	s, ok := d.slots[name]
	return s, ok
}

// AttachAsset 挂载附件
// Single 槽位替换已有附件；Multi 槽位追加，超过上限由校验器报告
func (d *ListingDraft) AttachAsset(name SlotName, asset *Asset) error {
	slot, ok := d.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, name)
	}
	if asset == nil || (len(asset.Data) == 0 && asset.RemoteRef == "") {
		return ErrEmptyAsset
	}

	if slot.Spec.Kind == SlotSingle {
		for _, old := range slot.Items {
			d.orphan(old)
		}
		slot.Items = []*Asset{asset}
		return nil
	}
	slot.Items = append(slot.Items, asset)
	return nil
}

// RemoveAsset 移除附件，Single 槽位忽略 index
func (d *ListingDraft) RemoveAsset(name SlotName, index int) error {
	slot, ok := d.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, name)
	}
	if slot.Spec.Kind == SlotSingle {
		index = 0
	}
	if index < 0 || index >= len(slot.Items) {
		return ErrAssetIndex
	}

	d.orphan(slot.Items[index])
	slot.Items = append(slot.Items[:index:index], slot.Items[index+1:]...)
	return nil
}

// orphan 记录被丢弃的远程引用
func (d *ListingDraft) orphan(a *Asset) {
	if a != nil && a.State() == AssetStateUploaded {
		d.Orphans = append(d.Orphans, a.RemoteRef)
	}
}

// AssetCount 全部附件数量
func (d *ListingDraft) AssetCount() int {
	n := 0
	for _, s := range d.slots {
		n += s.Count()
	}
	return n
}

// ==================== 快照 ====================

// Clone 深拷贝草稿（附件字节共享）
func (d *ListingDraft) Clone() *ListingDraft {
	cp := &ListingDraft{
		ListingID:      d.ListingID,
		fields:         d.Fields(),
		facilities:     make(map[FacilityCategory]map[string]struct{}, len(d.facilities)),
		categoryOrder:  d.FacilityCategories(),
		activityPrices: d.ActivityPrices(),
		slots:          make(map[SlotName]*AssetSlot, len(d.slots)),
		Orphans:        append([]string(nil), d.Orphans...),
	}
	for c, set := range d.facilities {
		dup := make(map[string]struct{}, len(set))
		for o := range set {
			dup[o] = struct{}{}
		}
		cp.facilities[c] = dup
	}
	for name, slot := range d.slots {
		items := make([]*Asset, len(slot.Items))
		for i, item := range slot.Items {
			items[i] = item.Clone()
		}
		cp.slots[name] = &AssetSlot{Spec: slot.Spec, Items: items}
	}
	return cp
}
