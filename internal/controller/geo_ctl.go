package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodging_console_v1_202610/pkg/backend"
)

// GeoProvider 地理数据查询，*service.GeoService 实现
type GeoProvider interface {
	Provinces(ctx context.Context) ([]backend.GeoArea, error)
	Districts(ctx context.Context, provinceID string) ([]backend.GeoArea, error)
	Municipalities(ctx context.Context, districtID string) ([]backend.GeoArea, error)
}

// GeoController 省/区/市级联数据
type GeoController struct {
	geo GeoProvider
}

func NewGeoController(geo GeoProvider) *GeoController {
	return &GeoController{geo: geo}
}

// Provinces GET /api/geo/provinces
func (ctrl *GeoController) Provinces(c *gin.Context) {
	areas, err := ctrl.geo.Provinces(c.Request.Context())
	respondGeo(c, areas, err)
}

// Districts GET /api/geo/provinces/:id/districts
func (ctrl *GeoController) Districts(c *gin.Context) {
	areas, err := ctrl.geo.Districts(c.Request.Context(), c.Param("id"))
	respondGeo(c, areas, err)
}

// Municipalities GET /api/geo/districts/:id/municipalities
func (ctrl *GeoController) Municipalities(c *gin.Context) {
	areas, err := ctrl.geo.Municipalities(c.Request.Context(), c.Param("id"))
	respondGeo(c, areas, err)
}

func respondGeo(c *gin.Context, areas []backend.GeoArea, err error) {
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "地理数据查询失败: " + err.Error(),
		})
		return
	}
	if areas == nil {
		areas = []backend.GeoArea{}
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    areas,
	})
}
