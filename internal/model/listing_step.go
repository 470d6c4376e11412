package model

// StepCount 向导步骤数
const StepCount = 8

// 步骤下标
const (
	StepBasic = iota
	StepAddress
	StepContact
	StepCapacity
	StepStories
	StepFacilities
	StepDocuments
	StepPhotos
)

// LastStep 最后一步（提交所在步骤）
const LastStep = StepCount - 1

// StepDefinition 步骤定义，仅用于分步校验和界面顺序，不持久化
type StepDefinition struct {
	Index  int         `json:"index"`
	Key    string      `json:"key"`
	Title  string      `json:"title"`
	Fields []FieldName `json:"fields"`
	Slots  []SlotName  `json:"slots,omitempty"`
}

// Steps 固定的 8 个步骤
var Steps = [StepCount]StepDefinition{
	{
		Index: StepBasic, Key: "basic", Title: "Basic information",
		Fields: []FieldName{FieldType, FieldHomestaySubtype, FieldListingName, FieldRegistrationNumber, FieldPANNumber, FieldRegisteredDate},
	},
	{
		Index: StepAddress, Key: "address", Title: "Address",
		Fields: []FieldName{FieldProvince, FieldDistrict, FieldMunicipality, FieldWardNumber, FieldTole, FieldLandmark},
	},
	{
		Index: StepContact, Key: "contact", Title: "Owner & contact",
		Fields: []FieldName{FieldOwnerName, FieldMobileNumber, FieldEmail, FieldAlternatePhone, FieldWebsite},
	},
	{
		Index: StepCapacity, Key: "capacity", Title: "Capacity & pricing",
		Fields: []FieldName{FieldBedrooms, FieldBathrooms, FieldMaxGuests, FieldPricePerNight, FieldCheckInTime, FieldCheckOutTime},
	},
	{
		Index: StepStories, Key: "stories", Title: "Stories",
		Fields: []FieldName{FieldHistory, FieldStory, FieldDescription, FieldCommunity},
	},
	{
		Index: StepFacilities, Key: "facilities", Title: "Facilities & activities",
	},
	{
		Index: StepDocuments, Key: "documents", Title: "Documents",
		Slots: []SlotName{SlotRegistrationCertificates, SlotIdentityDocumentFront, SlotIdentityDocumentBack},
	},
	{
		Index: StepPhotos, Key: "photos", Title: "Photos & policies",
		Fields: []FieldName{FieldCancellationPolicy, FieldHouseRules},
		Slots:  []SlotName{SlotHomestayPhotos},
	},
}

// ClampStep 将步骤下标限制在 [0, LastStep]
func ClampStep(i int) int {
	if i < 0 {
		return 0
	}
	if i > LastStep {
		return LastStep
	}
	return i
}
