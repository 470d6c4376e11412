package draftfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/service"
)

const sampleDraft = `
fields:
  type: homestay
  homestay_subtype: community
  name: Ghale Community Homestay
  registration_number: "1234"
  pan_number: "609876543"
  registered_date: "2020-03-15"
  municipality: Besishahar
  district: Lamjung
  province: Gandaki
  ward_number: "4"
  tole: Ghalegaun
  owner_name: Sita Ghale
  mobile_number: "9841000000"
  email: sita@example.com
  bedrooms: "3"
  bathrooms: "2"
  max_guests: "6"
  price_Per_Night: "2500.50"
  description: Village stay.
facilities:
  Water: [Hot water, Hot water]
  Spa: [Sauna]
  Activities: [Trekking]
activity_prices:
  Trekking:
    per_person: "1500"
assets:
  registration_certificates: [docs/cert.pdf]
  identity_document_front: [docs/front.txt]
  identity_document_back: [https://cdn.example.com/back.jpg]
  homestay_photos: [docs/front.txt, https://cdn.example.com/p2.jpg]
`

func writeDraft(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "cert.pdf"), []byte("%PDF-1.4 cert"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "front.txt"), []byte("front side"), 0o644))

	path := filepath.Join(dir, "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_BuildsValidDraft(t *testing.T) {
	f, err := Load(writeDraft(t, sampleDraft))
	require.NoError(t, err)

	d, err := f.Draft()
	require.NoError(t, err)

	assert.Equal(t, "Besishahar", d.Field(model.FieldMunicipality))
	assert.True(t, d.FacilitySelected(model.FacilityWater, "Hot water"), "重复项不应被反选")
	assert.True(t, d.FacilitySelected("Spa", "Sauna"))
	assert.Equal(t, "1500", d.ActivityPrice("Trekking").PerPerson)

	certs, _ := d.Slot(model.SlotRegistrationCertificates)
	require.Len(t, certs.Items, 1)
	assert.Equal(t, "cert.pdf", certs.Items[0].Filename)
	assert.Equal(t, "application/pdf", certs.Items[0].ContentType)

	back, _ := d.Slot(model.SlotIdentityDocumentBack)
	require.Len(t, back.Items, 1)
	assert.Equal(t, model.AssetStateUploaded, back.Items[0].State())

	photos, _ := d.Slot(model.SlotHomestayPhotos)
	require.Len(t, photos.Items, 2)
	assert.Equal(t, model.AssetStateAttached, photos.Items[0].State())
	assert.Equal(t, model.AssetStateUploaded, photos.Items[1].State())

	assert.True(t, service.NewStepValidator().ValidateAll(d).Empty())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("listing: 1\n"))
	assert.Error(t, err)
}

func TestDraft_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"未知字段", "fields:\n  colour: red\n"},
		{"未知槽位", "assets:\n  passport: [https://cdn.example.com/p.jpg]\n"},
		{"附件不存在", "assets:\n  homestay_photos: [missing.jpg]\n"},
		{"未知价格渠道", "activity_prices:\n  Rafting:\n    per_day: \"10\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(writeDraft(t, tt.content))
			if err != nil {
				// 结构错误在解析阶段即被拒绝
				return
			}
			_, err = f.Draft()
			assert.Error(t, err)
		})
	}
}

func TestParse_EditMode(t *testing.T) {
	f, err := Parse([]byte("listing_id: \" 88 \"\nfields:\n  type: hotel\n"))
	require.NoError(t, err)

	d, err := f.Draft()
	require.NoError(t, err)
	assert.Equal(t, "88", d.ListingID)
	assert.False(t, d.IsHomestay())
}
