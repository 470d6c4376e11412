package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"lodging_console_v1_202610/internal/model"
)

// newValidDraft 构造一份所有步骤都能通过校验的草稿
func newValidDraft(t *testing.T) *model.ListingDraft {
	t.Helper()
	d := model.NewListingDraft()

	fields := map[model.FieldName]string{
		model.FieldType:               model.ListingTypeHomestay,
		model.FieldHomestaySubtype:    model.HomestaySubtypeCommunity,
		model.FieldListingName:        "Ghale Community Homestay",
		model.FieldRegistrationNumber: "1234",
		model.FieldPANNumber:          "609876543",
		model.FieldRegisteredDate:     "2020-03-15",

		model.FieldProvince:     "Gandaki",
		model.FieldDistrict:     "Lamjung",
		model.FieldMunicipality: "Besishahar",
		model.FieldWardNumber:   "4",
		model.FieldTole:         "Ghalegaun",

		model.FieldOwnerName:    "Sita Ghale",
		model.FieldMobileNumber: "9841000000",
		model.FieldEmail:        "sita@example.com",

		model.FieldBedrooms:      "3",
		model.FieldBathrooms:     "2",
		model.FieldMaxGuests:     "6",
		model.FieldPricePerNight: "2500.50",

		model.FieldDescription: "Traditional Gurung village stay with mountain views.",
	}
	// 先设省份再设下级，避免级联清空
	for _, f := range []model.FieldName{model.FieldProvince, model.FieldDistrict, model.FieldMunicipality} {
		require.True(t, d.SetField(f, fields[f]))
	}
	for f, v := range fields {
		require.True(t, d.SetField(f, v))
	}

	require.NoError(t, d.ToggleFacility(model.FacilityWater, "Hot water"))
	require.NoError(t, d.ToggleFacility(model.FacilityActivities, "Trekking"))
	require.NoError(t, d.SetActivityPrice("Trekking", model.PricePerPerson, "1500"))

	require.NoError(t, d.AttachAsset(model.SlotRegistrationCertificates, model.NewLocalAsset("cert.pdf", "application/pdf", []byte("%PDF-1.4 cert"))))
	require.NoError(t, d.AttachAsset(model.SlotIdentityDocumentFront, model.NewLocalAsset("front.png", "image/png", tinyPNG(t))))
	require.NoError(t, d.AttachAsset(model.SlotIdentityDocumentBack, model.NewLocalAsset("back.png", "image/png", tinyPNG(t))))
	require.NoError(t, d.AttachAsset(model.SlotHomestayPhotos, model.NewLocalAsset("p1.png", "image/png", tinyPNG(t))))
	require.NoError(t, d.AttachAsset(model.SlotHomestayPhotos, model.NewLocalAsset("p2.png", "image/png", tinyPNG(t))))

	return d
}

// tinyPNG 4x4 纯色 PNG
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	return encodePNG(t, 4, 4)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
