package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lodging_console_v1_202610/pkg/backend"
	"lodging_console_v1_202610/pkg/utils"
)

// GeoLookup 地理数据查询端口，*backend.Client 实现
type GeoLookup interface {
	Provinces(ctx context.Context) ([]backend.GeoArea, error)
	Districts(ctx context.Context, provinceID string) ([]backend.GeoArea, error)
	Municipalities(ctx context.Context, districtID string) ([]backend.GeoArea, error)
}

// GeoService 带缓存的地理数据查询
// 并发的相同查询合并为一次请求，失败结果不缓存
type GeoService struct {
	lookup GeoLookup
	cache  *utils.TTLCache[[]backend.GeoArea]
	group  singleflight.Group
	logger *zap.Logger
}

func NewGeoService(lookup GeoLookup, ttl time.Duration, logger *zap.Logger) *GeoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoService{
		lookup: lookup,
		cache:  utils.NewTTLCache[[]backend.GeoArea](ttl),
		logger: logger.Named("GeoService"),
	}
}

func (s *GeoService) Provinces(ctx context.Context) ([]backend.GeoArea, error) {
	return s.cached(ctx, "provinces", func(ctx context.Context) ([]backend.GeoArea, error) {
		return s.lookup.Provinces(ctx)
	})
}

func (s *GeoService) Districts(ctx context.Context, provinceID string) ([]backend.GeoArea, error) {
	return s.cached(ctx, "districts:"+provinceID, func(ctx context.Context) ([]backend.GeoArea, error) {
		return s.lookup.Districts(ctx, provinceID)
	})
}

func (s *GeoService) Municipalities(ctx context.Context, districtID string) ([]backend.GeoArea, error) {
	return s.cached(ctx, "municipalities:"+districtID, func(ctx context.Context) ([]backend.GeoArea, error) {
		return s.lookup.Municipalities(ctx, districtID)
	})
}

func (s *GeoService) cached(ctx context.Context, key string, load func(context.Context) ([]backend.GeoArea, error)) ([]backend.GeoArea, error) {
	if areas, ok := s.cache.Get(key); ok {
		return areas, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		areas, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, areas)
		return areas, nil
	})
	if err != nil {
		s.logger.Warn("地理数据查询失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return v.([]backend.GeoArea), nil
}
