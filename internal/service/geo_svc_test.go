package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging_console_v1_202610/pkg/backend"
)

type mockGeoLookup struct {
	calls     int32
	districts func(provinceID string) ([]backend.GeoArea, error)
}

func (m *mockGeoLookup) Provinces(ctx context.Context) ([]backend.GeoArea, error) {
	atomic.AddInt32(&m.calls, 1)
	return []backend.GeoArea{{ID: "4", Name: "Gandaki"}}, nil
}

func (m *mockGeoLookup) Districts(ctx context.Context, provinceID string) ([]backend.GeoArea, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.districts != nil {
		return m.districts(provinceID)
	}
	return []backend.GeoArea{{ID: "lam", Name: "Lamjung"}}, nil
}

func (m *mockGeoLookup) Municipalities(ctx context.Context, districtID string) ([]backend.GeoArea, error) {
	atomic.AddInt32(&m.calls, 1)
	return []backend.GeoArea{{ID: "bes", Name: "Besishahar"}}, nil
}

func TestGeoService_CachesResults(t *testing.T) {
	m := &mockGeoLookup{}
	s := NewGeoService(m, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		provinces, err := s.Provinces(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Gandaki", provinces[0].Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))

	_, err := s.Municipalities(ctx, "lam")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.calls))
}

func TestGeoService_ErrorsNotCached(t *testing.T) {
	fail := true
	m := &mockGeoLookup{
		districts: func(provinceID string) ([]backend.GeoArea, error) {
			if fail {
				return nil, errors.New("timeout")
			}
			return []backend.GeoArea{{ID: "kas", Name: "Kaski"}}, nil
		},
	}
	s := NewGeoService(m, time.Minute, nil)

	_, err := s.Districts(context.Background(), "4")
	require.Error(t, err)

	fail = false
	districts, err := s.Districts(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Kaski", districts[0].Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.calls))
}
