package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lodging_console_v1_202610/internal/api/dto"
	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/repository"
)

// SubmissionController 提交记录查询
type SubmissionController struct {
	repo repository.SubmissionRepository
}

func NewSubmissionController(repo repository.SubmissionRepository) *SubmissionController {
	return &SubmissionController{repo: repo}
}

// List 提交记录列表
// GET /api/submissions?session_id=&status=&page=&page_size=
func (ctrl *SubmissionController) List(c *gin.Context) {
	var req dto.ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	subs, total, err := ctrl.repo.List(c.Request.Context(), repository.SubmissionFilter{
		SessionID: req.SessionID,
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	list := make([]dto.SubmissionVO, 0, len(subs))
	for i := range subs {
		list = append(list, toSubmissionVO(&subs[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"list":  list,
			"total": total,
			"page":  req.Page,
		},
	})
}

// Get 提交记录详情（含载荷）
func (ctrl *SubmissionController) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "无效的记录ID")
		return
	}

	sub, err := ctrl.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "记录不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"submission": toSubmissionVO(sub),
			"payload":    sub.Payload,
		},
	})
}

// Stats 提交统计
// GET /api/submissions/stats?start=2026-01-01&end=2026-01-31，默认最近 7 天
func (ctrl *SubmissionController) Stats(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	if s := c.Query("start"); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			badRequest(c, "start 格式应为 YYYY-MM-DD")
			return
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			badRequest(c, "end 格式应为 YYYY-MM-DD")
			return
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		badRequest(c, "end 不能早于 start")
		return
	}

	stats, err := ctrl.repo.GetStats(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "统计失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": stats})
}

func toSubmissionVO(s *model.ListingSubmission) dto.SubmissionVO {
	return dto.SubmissionVO{
		ID:          s.ID,
		SessionID:   s.SessionID,
		SubmittedBy: s.SubmittedBy,
		Mode:        s.Mode,
		ListingID:   s.ListingID,
		ListingType: s.ListingType,
		AssetCount:  s.AssetCount,
		Status:      s.Status,
		Stage:       s.Stage,
		ErrorMsg:    s.ErrorMsg,
		DurationMs:  s.DurationMs,
		CreatedAt:   s.CreatedAt.Format(time.DateTime),
	}
}
