package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"lodging_console_v1_202610/internal/model"
)

// ==================== 校验结果 ====================

// ValidationErrors 字段 -> 错误原因，空表示通过
type ValidationErrors map[string]string

// add 同一字段只保留第一条原因
func (e ValidationErrors) add(field, reason string) {
	if _, exists := e[field]; !exists {
		e[field] = reason
	}
}

// merge 合并，已有字段不覆盖
func (e ValidationErrors) merge(other ValidationErrors) {
	for f, r := range other {
		e.add(f, r)
	}
}

// Empty 是否通过
func (e ValidationErrors) Empty() bool {
	return len(e) == 0
}

// Fields 出错字段（排序）
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error 实现 error，便于向上返回
func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ActivityPriceKey 活动价格错误的合成 key
func ActivityPriceKey(activity string) string {
	return "activity_price_" + activity
}

// FacilitiesKey 设施规则错误 key
const FacilitiesKey = "facilities"

// ==================== 规则表 ====================

// FieldRule 单字段格式规则（仅在字段非空时执行）
type FieldRule struct {
	Field  model.FieldName
	Tag    string // validator tag
	Reason string // 含一个 %s，填字段展示名
}

// ConditionalRule 条件必填
type ConditionalRule struct {
	Field model.FieldName
	When  func(d *model.ListingDraft) bool
}

// StepRules 单个步骤的规则集
type StepRules struct {
	Required    []model.FieldName
	RequiredIf  []ConditionalRule
	Formats     []FieldRule
	Facilities  bool
	AssetSlots  []model.SlotName
	Description string
}

const (
	reasonRequired = "%s is required"
	reasonDigits   = "%s must contain digits only"
	reasonPositive = "%s must be greater than 0"
	reasonEmail    = "Enter a valid email address"
	reasonWords    = "%s must not exceed 500 words"
	reasonOneOf    = "%s has an unsupported value"
	reasonDate     = "%s must be a date (YYYY-MM-DD)"
	reasonTime     = "%s must be a time (HH:MM)"
	reasonURL      = "%s must be a valid URL"

	reasonFacility      = "Select at least one facility"
	reasonActivityPrice = "Enter at least one price for %s"
	reasonSlotEmpty     = "At least one file is required for %s"
	reasonSlotMax       = "max %d files allowed"
)

// positiveRules 由数值字段表生成范围规则
func positiveRules(fields ...model.FieldName) []FieldRule {
	rules := make([]FieldRule, 0, len(fields))
	for _, f := range fields {
		tag := "positive_int"
		if model.NumericFields[f] == model.NumericDecimal {
			tag = "positive_decimal"
		}
		rules = append(rules, FieldRule{Field: f, Tag: tag, Reason: reasonPositive})
	}
	return rules
}

// defaultStepRules 8 个步骤的固定规则
func defaultStepRules() [model.StepCount]StepRules {
	var rules [model.StepCount]StepRules

	rules[model.StepBasic] = StepRules{
		Description: "basic",
		Required:    []model.FieldName{model.FieldType, model.FieldListingName, model.FieldRegistrationNumber, model.FieldPANNumber},
		RequiredIf: []ConditionalRule{
			{Field: model.FieldHomestaySubtype, When: (*model.ListingDraft).IsHomestay},
		},
		Formats: []FieldRule{
			{Field: model.FieldType, Tag: "oneof=" + strings.Join(model.ListingTypes, " "), Reason: reasonOneOf},
			{Field: model.FieldHomestaySubtype, Tag: "oneof=" + strings.Join(model.HomestaySubtypes, " "), Reason: reasonOneOf},
			{Field: model.FieldRegistrationNumber, Tag: "number", Reason: reasonDigits},
			{Field: model.FieldPANNumber, Tag: "number", Reason: reasonDigits},
			{Field: model.FieldRegisteredDate, Tag: "datetime=2006-01-02", Reason: reasonDate},
		},
	}

	rules[model.StepAddress] = StepRules{
		Description: "address",
		Required:    []model.FieldName{model.FieldProvince, model.FieldDistrict, model.FieldMunicipality, model.FieldWardNumber, model.FieldTole},
		Formats: append([]FieldRule{
			{Field: model.FieldWardNumber, Tag: "number", Reason: reasonDigits},
		}, positiveRules(model.FieldWardNumber)...),
	}

	rules[model.StepContact] = StepRules{
		Description: "contact",
		Required:    []model.FieldName{model.FieldOwnerName, model.FieldMobileNumber, model.FieldEmail},
		Formats: []FieldRule{
			{Field: model.FieldMobileNumber, Tag: "number", Reason: reasonDigits},
			{Field: model.FieldAlternatePhone, Tag: "number", Reason: reasonDigits},
			{Field: model.FieldEmail, Tag: "loose_email", Reason: reasonEmail},
			{Field: model.FieldWebsite, Tag: "url", Reason: reasonURL},
		},
	}

	rules[model.StepCapacity] = StepRules{
		Description: "capacity",
		Required:    []model.FieldName{model.FieldBedrooms, model.FieldBathrooms, model.FieldMaxGuests, model.FieldPricePerNight},
		Formats: append(positiveRules(model.FieldBedrooms, model.FieldBathrooms, model.FieldMaxGuests, model.FieldPricePerNight),
			FieldRule{Field: model.FieldCheckInTime, Tag: "datetime=15:04", Reason: reasonTime},
			FieldRule{Field: model.FieldCheckOutTime, Tag: "datetime=15:04", Reason: reasonTime},
		),
	}

	var wordRules []FieldRule
	for _, f := range model.LongTextFields {
		wordRules = append(wordRules, FieldRule{Field: f, Tag: fmt.Sprintf("max_words=%d", model.MaxLongTextWords), Reason: reasonWords})
	}
	rules[model.StepStories] = StepRules{
		Description: "stories",
		Required:    []model.FieldName{model.FieldDescription},
		Formats:     wordRules,
	}

	rules[model.StepFacilities] = StepRules{
		Description: "facilities",
		Facilities:  true,
	}

	rules[model.StepDocuments] = StepRules{
		Description: "documents",
		AssetSlots:  []model.SlotName{model.SlotRegistrationCertificates, model.SlotIdentityDocumentFront, model.SlotIdentityDocumentBack},
	}

	rules[model.StepPhotos] = StepRules{
		Description: "photos",
		AssetSlots:  []model.SlotName{model.SlotHomestayPhotos},
	}

	return rules
}

// ==================== 自定义 tag ====================

// looseEmailRegex 宽松邮箱格式 local@domain.tld
var looseEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func registerListingTags(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"loose_email": func(fl validator.FieldLevel) bool {
			return looseEmailRegex.MatchString(fl.Field().String())
		},
		"max_words": func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return len(strings.Fields(fl.Field().String())) <= limit
		},
		"positive_int": func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n > 0
		},
		"positive_decimal": func(fl validator.FieldLevel) bool {
			f, err := strconv.ParseFloat(fl.Field().String(), 64)
			return err == nil && f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
		},
	}
	for name, fn := range tags {
		if err := v.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("注册校验规则 %s 失败: %w", name, err)
		}
	}
	return nil
}

// ==================== 校验器 ====================

// StepValidator 分步/整单校验器，纯函数，无副作用
type StepValidator struct {
	validate *validator.Validate
	rules    [model.StepCount]StepRules
}

// NewStepValidator 创建校验器
func NewStepValidator() *StepValidator {
	v := validator.New()
	if err := registerListingTags(v); err != nil {
		// 规则在编译期确定，注册失败只可能是代码错误
		panic(err)
	}
	return &StepValidator{
		validate: v,
		rules:    defaultStepRules(),
	}
}

// Rules 某步骤的规则集（供测试/展示）
func (s *StepValidator) Rules(step int) StepRules {
	return s.rules[model.ClampStep(step)]
}

// ValidateStep 校验单个步骤
func (s *StepValidator) ValidateStep(d *model.ListingDraft, step int) ValidationErrors {
	errs := ValidationErrors{}
	if step < 0 || step >= model.StepCount {
		errs.add("step", fmt.Sprintf("unknown step %d", step))
		return errs
	}

	rules := s.rules[step]

	// 1. 必填
	for _, f := range rules.Required {
		if isBlank(d.Field(f)) {
			errs.add(string(f), fmt.Sprintf(reasonRequired, f.Label()))
		}
	}

	// 2. 条件必填
	for _, c := range rules.RequiredIf {
		if c.When(d) && isBlank(d.Field(c.Field)) {
			errs.add(string(c.Field), fmt.Sprintf(reasonRequired, c.Field.Label()))
		}
	}

	// 3. 格式 / 范围 / 字数
	for _, r := range rules.Formats {
		value := d.Field(r.Field)
		if isBlank(value) {
			continue
		}
		if _, failed := errs[string(r.Field)]; failed {
			continue
		}
		if err := s.validate.Var(value, r.Tag); err != nil {
			reason := r.Reason
			if strings.Contains(reason, "%s") {
				reason = fmt.Sprintf(reason, r.Field.Label())
			}
			errs.add(string(r.Field), reason)
		}
	}

	// 4. 设施
	if rules.Facilities {
		errs.merge(s.validateFacilities(d))
	}

	// 5. 附件数量
	for _, name := range rules.AssetSlots {
		if slot, ok := d.Slot(name); ok {
			if reason := slotReason(slot); reason != "" {
				errs.add(string(name), reason)
			}
		}
	}

	return errs
}

// ValidateAll 整单校验（提交前的最终关卡，不依赖分步校验是否执行过）
func (s *StepValidator) ValidateAll(d *model.ListingDraft) ValidationErrors {
	errs := ValidationErrors{}
	for i := 0; i < model.StepCount; i++ {
		errs.merge(s.ValidateStep(d, i))
	}
	return errs
}

// FirstInvalidStep 第一个未通过的步骤，全部通过返回 -1
func (s *StepValidator) FirstInvalidStep(d *model.ListingDraft) int {
	for i := 0; i < model.StepCount; i++ {
		if !s.ValidateStep(d, i).Empty() {
			return i
		}
	}
	return -1
}

// validateFacilities 设施与活动价格规则
func (s *StepValidator) validateFacilities(d *model.ListingDraft) ValidationErrors {
	errs := ValidationErrors{}

	if len(d.Facilities()) == 0 {
		errs.add(FacilitiesKey, reasonFacility)
	}

	for _, activity := range d.FacilityOptions(model.FacilityActivities) {
		if !d.ActivityPrice(activity).HasAny() {
			errs.add(ActivityPriceKey(activity), fmt.Sprintf(reasonActivityPrice, activity))
		}
	}
	return errs
}

// slotReason 附件数量规则，通过返回空串
func slotReason(slot *model.AssetSlot) string {
	spec := slot.Spec
	count := slot.Count()

	switch spec.Kind {
	case model.SlotMulti:
		if count == 0 && spec.Required {
			return fmt.Sprintf(reasonSlotEmpty, spec.Label)
		}
		if count > spec.Max {
			return fmt.Sprintf(reasonSlotMax, spec.Max)
		}
	case model.SlotSingle:
		if count == 0 && spec.Required {
			return fmt.Sprintf(reasonRequired, spec.Label)
		}
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
