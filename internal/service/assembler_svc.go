package service

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/pkg/backend"
)

//go:embed schemas/listing_payload.v1.json
var listingPayloadSchema []byte

const listingPayloadSchemaURL = "https://lodging-console.local/schemas/listing_payload.v1.json"

// AssemblyError 组装时字段无法转换
// 校验通过后仍出现说明校验与组装规则不一致
type AssemblyError struct {
	Field string
	Value string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble field %s (%q): %v", e.Field, e.Value, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// PayloadAssembler 将草稿与上传结果组装成后端请求体
type PayloadAssembler struct {
	schema *jsonschema.Schema
}

// NewPayloadAssembler 编译内置的载荷契约
func NewPayloadAssembler() (*PayloadAssembler, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(listingPayloadSchemaURL, bytes.NewReader(listingPayloadSchema)); err != nil {
		return nil, fmt.Errorf("加载载荷契约失败: %w", err)
	}
	schema, err := compiler.Compile(listingPayloadSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("编译载荷契约失败: %w", err)
	}
	return &PayloadAssembler{schema: schema}, nil
}

// Assemble 组装请求体，纯函数，不做 I/O
// uploads 为每个槽位的远程引用，顺序与槽位内附件一致
func (a *PayloadAssembler) Assemble(d *model.ListingDraft, uploads map[model.SlotName][]string) (*backend.ListingPayload, error) {
	field := func(name model.FieldName) string {
		return strings.TrimSpace(d.Field(name))
	}

	ints := make(map[model.FieldName]int)
	var price float64
	for name, kind := range model.NumericFields {
		raw := field(name)
		switch kind {
		case model.NumericInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &AssemblyError{Field: string(name), Value: raw, Err: err}
			}
			ints[name] = n
		case model.NumericDecimal:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &AssemblyError{Field: string(name), Value: raw, Err: err}
			}
			price = f
		}
	}

	p := &backend.ListingPayload{
		Type:               field(model.FieldType),
		Name:               field(model.FieldListingName),
		RegistrationNumber: field(model.FieldRegistrationNumber),
		PANNumber:          field(model.FieldPANNumber),
		RegisteredDate:     field(model.FieldRegisteredDate),

		Province:     field(model.FieldProvince),
		District:     field(model.FieldDistrict),
		Municipality: field(model.FieldMunicipality),
		WardNumber:   ints[model.FieldWardNumber],
		Tole:         field(model.FieldTole),
		Landmark:     field(model.FieldLandmark),

		OwnerName:      field(model.FieldOwnerName),
		MobileNumber:   field(model.FieldMobileNumber),
		Email:          field(model.FieldEmail),
		AlternatePhone: field(model.FieldAlternatePhone),
		Website:        field(model.FieldWebsite),

		Bedrooms:      ints[model.FieldBedrooms],
		Bathrooms:     ints[model.FieldBathrooms],
		MaxGuests:     ints[model.FieldMaxGuests],
		PricePerNight: price,
		CheckInTime:   field(model.FieldCheckInTime),
		CheckOutTime:  field(model.FieldCheckOutTime),

		History:     field(model.FieldHistory),
		Story:       field(model.FieldStory),
		Description: field(model.FieldDescription),
		Community:   field(model.FieldCommunity),

		CancellationPolicy: field(model.FieldCancellationPolicy),
		HouseRules:         field(model.FieldHouseRules),
	}

	// 子类型只对民宿有意义
	if d.IsHomestay() {
		p.HomestaySubtype = field(model.FieldHomestaySubtype)
	}

	p.Facilities = make(map[string][]string)
	for category, options := range d.Facilities() {
		p.Facilities[string(category)] = options
	}

	for activity, price := range d.ActivityPrices() {
		if !price.HasAny() {
			continue
		}
		if p.ActivityPrices == nil {
			p.ActivityPrices = make(map[string]backend.ActivityPriceItem)
		}
		p.ActivityPrices[activity] = backend.ActivityPriceItem{
			PerPerson: strings.TrimSpace(price.PerPerson),
			PerGroup:  strings.TrimSpace(price.PerGroup),
			Other:     strings.TrimSpace(price.Other),
		}
	}

	p.RegistrationCertificates = multiRefs(uploads[model.SlotRegistrationCertificates])
	p.IdentityDocumentFront = singleRef(uploads[model.SlotIdentityDocumentFront])
	p.IdentityDocumentBack = singleRef(uploads[model.SlotIdentityDocumentBack])
	p.HomestayPhotos = multiRefs(uploads[model.SlotHomestayPhotos])

	return p, nil
}

// CheckContract 发送前按内置 JSON Schema 校验请求体
func (a *PayloadAssembler) CheckContract(p *backend.ListingPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("序列化载荷失败: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("载荷不是合法 JSON: %w", err)
	}
	if err := a.schema.Validate(v); err != nil {
		return fmt.Errorf("载荷不符合后端契约: %w", err)
	}
	return nil
}

func singleRef(refs []string) string {
	if len(refs) == 0 {
		return ""
	}
	return refs[0]
}

func multiRefs(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return append([]string(nil), refs...)
}
