package backend

// ListingPayload 房源创建/更新请求体（后端契约）
// 数值字段已完成 string -> number 转换；可选字段为空时省略
type ListingPayload struct {
	// 基本信息
	Type               string `json:"type"`
	HomestaySubtype    string `json:"homestay_subtype,omitempty"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	PANNumber          string `json:"pan_number"`
	RegisteredDate     string `json:"registered_date,omitempty"`

	// 地址
	Province     string `json:"province"`
	District     string `json:"district"`
	Municipality string `json:"municipality"`
	WardNumber   int    `json:"ward_number"`
	Tole         string `json:"tole"`
	Landmark     string `json:"landmark,omitempty"`

	// 联系方式
	OwnerName      string `json:"owner_name"`
	MobileNumber   string `json:"mobile_number"`
	Email          string `json:"email"`
	AlternatePhone string `json:"alternate_phone,omitempty"`
	Website        string `json:"website,omitempty"`

	// 容量与价格
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	MaxGuests     int     `json:"max_guests"`
	PricePerNight float64 `json:"price_Per_Night"`
	CheckInTime   string  `json:"check_in_time,omitempty"`
	CheckOutTime  string  `json:"check_out_time,omitempty"`

	// 文案
	History     string `json:"history,omitempty"`
	Story       string `json:"story,omitempty"`
	Description string `json:"description"`
	Community   string `json:"community,omitempty"`

	// 设施: 分类 -> 已选选项（排序）
	Facilities     map[string][]string          `json:"facilities"`
	ActivityPrices map[string]ActivityPriceItem `json:"activity_prices,omitempty"`

	// 附件引用
	RegistrationCertificates []string `json:"registration_certificates"`
	IdentityDocumentFront    string   `json:"identity_document_front"`
	IdentityDocumentBack     string   `json:"identity_document_back"`
	HomestayPhotos           []string `json:"homestay_photos"`

	// 规则
	CancellationPolicy string `json:"cancellation_policy,omitempty"`
	HouseRules         string `json:"house_rules,omitempty"`
}

// ActivityPriceItem 单个活动的价格
type ActivityPriceItem struct {
	PerPerson string `json:"per_person,omitempty"`
	PerGroup  string `json:"per_group,omitempty"`
	Other     string `json:"other,omitempty"`
}
