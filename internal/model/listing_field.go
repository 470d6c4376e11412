package model

// ==================== 字段名 ====================

// FieldName 草稿标量字段名（与后端 JSON key 一致）
type FieldName string

const (
	// Step 0 基本信息
	FieldType               FieldName = "type"
	FieldHomestaySubtype    FieldName = "homestay_subtype"
	FieldListingName        FieldName = "name"
	FieldRegistrationNumber FieldName = "registration_number"
	FieldPANNumber          FieldName = "pan_number"
	FieldRegisteredDate     FieldName = "registered_date"

	// Step 1 地址
	FieldProvince     FieldName = "province"
	FieldDistrict     FieldName = "district"
	FieldMunicipality FieldName = "municipality"
	FieldWardNumber   FieldName = "ward_number"
	FieldTole         FieldName = "tole"
	FieldLandmark     FieldName = "landmark"

	// Step 2 联系方式
	FieldOwnerName      FieldName = "owner_name"
	FieldMobileNumber   FieldName = "mobile_number"
	FieldEmail          FieldName = "email"
	FieldAlternatePhone FieldName = "alternate_phone"
	FieldWebsite        FieldName = "website"

	// Step 3 容量与价格
	FieldBedrooms      FieldName = "bedrooms"
	FieldBathrooms     FieldName = "bathrooms"
	FieldMaxGuests     FieldName = "max_guests"
	FieldPricePerNight FieldName = "price_Per_Night"
	FieldCheckInTime   FieldName = "check_in_time"
	FieldCheckOutTime  FieldName = "check_out_time"

	// Step 4 文案
	FieldHistory     FieldName = "history"
	FieldStory       FieldName = "story"
	FieldDescription FieldName = "description"
	FieldCommunity   FieldName = "community"

	// Step 7 规则
	FieldCancellationPolicy FieldName = "cancellation_policy"
	FieldHouseRules         FieldName = "house_rules"
)

// fieldLabels 字段展示名，用于校验提示
var fieldLabels = map[FieldName]string{
	FieldType:               "Listing type",
	FieldHomestaySubtype:    "Homestay subtype",
	FieldListingName:        "Name",
	FieldRegistrationNumber: "Registration number",
	FieldPANNumber:          "PAN number",
	FieldRegisteredDate:     "Registered date",

	FieldProvince:     "Province",
	FieldDistrict:     "District",
	FieldMunicipality: "Municipality",
	FieldWardNumber:   "Ward number",
	FieldTole:         "Tole",
	FieldLandmark:     "Landmark",

	FieldOwnerName:      "Owner name",
	FieldMobileNumber:   "Mobile number",
	FieldEmail:          "Email",
	FieldAlternatePhone: "Alternate phone",
	FieldWebsite:        "Website",

	FieldBedrooms:      "Bedrooms",
	FieldBathrooms:     "Bathrooms",
	FieldMaxGuests:     "Maximum guests",
	FieldPricePerNight: "Price per night",
	FieldCheckInTime:   "Check-in time",
	FieldCheckOutTime:  "Check-out time",

	FieldHistory:     "History",
	FieldStory:       "Story",
	FieldDescription: "Description",
	FieldCommunity:   "Community",

	FieldCancellationPolicy: "Cancellation policy",
	FieldHouseRules:         "House rules",
}

// IsKnownField 是否为已声明的字段
func IsKnownField(name FieldName) bool {
	_, ok := fieldLabels[name]
	return ok
}

// Label 字段展示名
func (f FieldName) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// KnownFields 返回全部字段名
func KnownFields() []FieldName {
	fields := make([]FieldName, 0, len(fieldLabels))
	for f := range fieldLabels {
		fields = append(fields, f)
	}
	return fields
}

// ==================== 枚举 ====================

const (
	ListingTypeHomestay   = "homestay"
	ListingTypeHotel      = "hotel"
	ListingTypeGuesthouse = "guesthouse"
	ListingTypeResort     = "resort"
	ListingTypeApartment  = "apartment"

	HomestaySubtypeIndividual = "individual"
	HomestaySubtypeCommunity  = "community"
)

// ListingTypes 允许的房源类型
var ListingTypes = []string{
	ListingTypeHomestay,
	ListingTypeHotel,
	ListingTypeGuesthouse,
	ListingTypeResort,
	ListingTypeApartment,
}

// HomestaySubtypes 允许的民宿子类型
var HomestaySubtypes = []string{
	HomestaySubtypeIndividual,
	HomestaySubtypeCommunity,
}

// ==================== 数值字段 ====================

// NumericKind 数值字段类型
type NumericKind int

const (
	NumericInt NumericKind = iota + 1
	NumericDecimal
)

// NumericFields 需要 string -> number 转换的字段
// 校验器与组装器共用此表，保证两边规则一致
var NumericFields = map[FieldName]NumericKind{
	FieldBedrooms:      NumericInt,
	FieldBathrooms:     NumericInt,
	FieldMaxGuests:     NumericInt,
	FieldWardNumber:    NumericInt,
	FieldPricePerNight: NumericDecimal,
}

// LongTextFields 受字数限制的长文本字段
var LongTextFields = []FieldName{
	FieldHistory,
	FieldStory,
	FieldDescription,
	FieldCommunity,
}

// MaxLongTextWords 长文本最大词数
const MaxLongTextWords = 500
