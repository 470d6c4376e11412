package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lodging_console_v1_202610/internal/controller"
	"lodging_console_v1_202610/internal/middleware"
)

// Options 路由依赖
type Options struct {
	Auth           middleware.AuthConfig
	SubmitCooldown time.Duration
	Limiter        *middleware.CooldownLimiter

	Wizard      *controller.WizardController
	Geo         *controller.GeoController
	Submissions *controller.SubmissionController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, opts Options) {
	// 健康检查（无需认证）
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok"})
	})

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewCooldownLimiter()
	}

	api := r.Group("/api", middleware.BearerAuth(opts.Auth), middleware.AuditContext())
	{
		// wizard 房源向导
		wizards := api.Group("/wizards")
		{
			// POST /api/wizards
			wizards.POST("", opts.Wizard.Create)
			wizards.GET("/:id", opts.Wizard.Get)
			wizards.DELETE("/:id", opts.Wizard.Delete)

			wizards.PATCH("/:id/fields", opts.Wizard.PatchFields)
			wizards.POST("/:id/facility-categories", opts.Wizard.RegisterCategory)
			wizards.POST("/:id/facilities/toggle", opts.Wizard.ToggleFacility)
			wizards.PUT("/:id/activity-prices", opts.Wizard.SetActivityPrice)

			// POST /api/wizards/:id/assets/homestay_photos (multipart files)
			wizards.POST("/:id/assets/:slot", opts.Wizard.AttachAssets)
			wizards.DELETE("/:id/assets/:slot/:index", opts.Wizard.RemoveAsset)

			wizards.POST("/:id/next", opts.Wizard.Next)
			wizards.POST("/:id/back", opts.Wizard.Back)
			wizards.POST("/:id/submit",
				middleware.SubmitCooldown(limiter, opts.SubmitCooldown),
				opts.Wizard.Submit,
			)
		}

		// geo 省/区/市
		geo := api.Group("/geo")
		{
			geo.GET("/provinces", opts.Geo.Provinces)
			geo.GET("/provinces/:id/districts", opts.Geo.Districts)
			geo.GET("/districts/:id/municipalities", opts.Geo.Municipalities)
		}

		// submissions 提交记录
		submissions := api.Group("/submissions")
		{
			submissions.GET("", opts.Submissions.List)
			submissions.GET("/stats", opts.Submissions.Stats)
			submissions.GET("/:id", opts.Submissions.Get)
		}
	}
}
