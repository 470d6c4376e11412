// Package draftfile 读取 YAML 格式的房源草稿文件，供 listingctl 使用
package draftfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/service"
)

// File 草稿文件
//
//	listing_id: ""            # 非空时走更新
//	fields:
//	  type: homestay
//	facilities:
//	  Water: [Hot water]
//	activity_prices:
//	  Trekking: {per_person: "1500"}
//	assets:
//	  homestay_photos: [photos/1.jpg, https://cdn.example.com/old.jpg]
//
// 附件为相对草稿文件的本地路径，http(s) 开头的视为已上传的远程引用
type File struct {
	ListingID      string                         `yaml:"listing_id"`
	Fields         map[string]string              `yaml:"fields"`
	Facilities     map[string][]string            `yaml:"facilities"`
	ActivityPrices map[string]model.ActivityPrice `yaml:"activity_prices"`
	Assets         map[string][]string            `yaml:"assets"`

	dir string
}

// Load 读取并解析草稿文件
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取草稿文件失败: %w", err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse 解析草稿内容，未知的顶层键视为错误
func Parse(raw []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("解析草稿失败: %w", err)
	}
	f.dir = "."
	return &f, nil
}

// Draft 构建草稿，本地附件在此时读入内存
func (f *File) Draft() (*model.ListingDraft, error) {
	d := model.NewListingDraft()
	d.ListingID = strings.TrimSpace(f.ListingID)

	fields := make(map[model.FieldName]string, len(f.Fields))
	for k, v := range f.Fields {
		fields[model.FieldName(k)] = v
	}
	if err := service.ApplyFields(d, fields); err != nil {
		return nil, err
	}

	for _, category := range sortedKeys(f.Facilities) {
		c := model.FacilityCategory(category)
		if err := d.RegisterFacilityCategory(c); err != nil {
			return nil, err
		}
		for _, option := range f.Facilities[category] {
			if d.FacilitySelected(c, option) {
				continue
			}
			if err := d.ToggleFacility(c, option); err != nil {
				return nil, err
			}
		}
	}

	for activity, price := range f.ActivityPrices {
		for channel, value := range map[model.PriceChannel]string{
			model.PricePerPerson: price.PerPerson,
			model.PricePerGroup:  price.PerGroup,
			model.PriceOther:     price.Other,
		} {
			if value == "" {
				continue
			}
			if err := d.SetActivityPrice(activity, channel, value); err != nil {
				return nil, err
			}
		}
	}

	for _, slot := range sortedKeys(f.Assets) {
		for _, ref := range f.Assets[slot] {
			asset, err := f.asset(ref)
			if err != nil {
				return nil, err
			}
			if err := d.AttachAsset(model.SlotName(slot), asset); err != nil {
				return nil, fmt.Errorf("%s: %w", ref, err)
			}
		}
	}
	return d, nil
}

func (f *File) asset(ref string) (*model.Asset, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return model.NewUploadedAsset(ref), nil
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取附件失败: %w", err)
	}

	contentType := mimetype.Detect(data).String()
	if i := strings.IndexByte(contentType, ';'); i > 0 {
		contentType = contentType[:i]
	}
	return model.NewLocalAsset(filepath.Base(path), contentType, data), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
