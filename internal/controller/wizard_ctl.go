package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/api/dto"
	"lodging_console_v1_202610/internal/middleware"
	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/service"
	"lodging_console_v1_202610/pkg/backend"
)

// ==================== 控制器 ====================

// WizardController 房源向导控制器
type WizardController struct {
	wizards      *service.WizardService
	limiter      *middleware.CooldownLimiter
	maxFileBytes int64
	logger       *zap.Logger
}

func NewWizardController(wizards *service.WizardService, limiter *middleware.CooldownLimiter, maxFileBytes int64, logger *zap.Logger) *WizardController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFileBytes <= 0 {
		maxFileBytes = 20 << 20
	}
	return &WizardController{
		wizards:      wizards,
		limiter:      limiter,
		maxFileBytes: maxFileBytes,
		logger:       logger.Named("WizardController"),
	}
}

// ==================== 会话 ====================

// Create 创建向导会话
// 请求体可为空；带 listing_id 时进入编辑模式
func (ctrl *WizardController) Create(c *gin.Context) {
	var req dto.CreateWizardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	operatorID := middleware.GetOperatorID(c)

	if req.ListingID == "" && len(req.Fields) == 0 && len(req.ExistingAssets) == 0 {
		w := ctrl.wizards.Open(operatorID)
		c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "success", "data": w.View()})
		return
	}

	seed := service.EditSeed{
		ListingID:      req.ListingID,
		Fields:         make(map[model.FieldName]string, len(req.Fields)),
		ExistingAssets: make(map[model.SlotName][]string, len(req.ExistingAssets)),
	}
	for k, v := range req.Fields {
		seed.Fields[model.FieldName(k)] = v
	}
	for k, refs := range req.ExistingAssets {
		seed.ExistingAssets[model.SlotName(k)] = refs
	}

	w, err := ctrl.wizards.OpenEdit(operatorID, seed)
	if err != nil {
		ctrl.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "success", "data": w.View()})
}

// Get 会话详情
func (ctrl *WizardController) Get(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": w.View()})
}

// Delete 丢弃会话
func (ctrl *WizardController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := ctrl.wizards.Close(id); err != nil {
		ctrl.fail(c, err, nil)
		return
	}
	if ctrl.limiter != nil {
		ctrl.limiter.Reset(middleware.SubmitKey(id))
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// ==================== 草稿编辑 ====================

// PatchFields 批量设置字段
func (ctrl *WizardController) PatchFields(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	var req dto.PatchFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	fields := make(map[model.FieldName]string, len(req.Fields))
	for k, v := range req.Fields {
		fields[model.FieldName(k)] = v
	}

	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		return service.ApplyFields(d, fields)
	})
}

// RegisterCategory 注册设施分类
func (ctrl *WizardController) RegisterCategory(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	var req dto.RegisterCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		return d.RegisterFacilityCategory(model.FacilityCategory(req.Category))
	})
}

// ToggleFacility 选中/取消设施
func (ctrl *WizardController) ToggleFacility(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	var req dto.ToggleFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		return d.ToggleFacility(model.FacilityCategory(req.Category), req.Option)
	})
}

// SetActivityPrice 设置活动价格
func (ctrl *WizardController) SetActivityPrice(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	var req dto.SetActivityPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		return d.SetActivityPrice(req.Activity, model.PriceChannel(req.Channel), req.Value)
	})
}

// AttachAssets 上传附件到槽位（multipart，字段名 files）
// 附件只保存在会话内，提交时才上传
func (ctrl *WizardController) AttachAssets(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	slot := model.SlotName(c.Param("slot"))
	if _, known := model.LookupSlotSpec(slot); !known {
		badRequest(c, fmt.Sprintf("未知的附件槽位: %s", slot))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "未上传文件")
		return
	}

	assets := make([]*model.Asset, 0, len(headers))
	for _, fh := range headers {
		asset, err := ctrl.readAsset(fh)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		assets = append(assets, asset)
	}

	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		for _, a := range assets {
			if err := d.AttachAsset(slot, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveAsset 移除槽位中的附件
func (ctrl *WizardController) RemoveAsset(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "无效的附件序号")
		return
	}

	slot := model.SlotName(c.Param("slot"))
	ctrl.edit(c, w, func(d *model.ListingDraft) error {
		return d.RemoveAsset(slot, index)
	})
}

// ==================== 步骤流转 ====================

// Next 校验当前步骤并前进
func (ctrl *WizardController) Next(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	_, errs, err := w.Next()
	if err != nil {
		ctrl.fail(c, err, w)
		return
	}
	if !errs.Empty() {
		ctrl.fail(c, errs, w)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": w.View()})
}

// Back 后退一步
func (ctrl *WizardController) Back(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	if _, err := w.Back(); err != nil {
		ctrl.fail(c, err, w)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": w.View()})
}

// Submit 提交房源
// 操作员令牌原样转发给后端
func (ctrl *WizardController) Submit(c *gin.Context) {
	w, ok := ctrl.lookup(c)
	if !ok {
		return
	}

	ctx := service.WithBearerToken(c.Request.Context(), middleware.GetBearerToken(c))
	if _, err := w.Submit(ctx); err != nil {
		ctrl.fail(c, err, w)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": w.View()})
}

// ==================== 辅助函数 ====================

func (ctrl *WizardController) lookup(c *gin.Context) (*service.Wizard, bool) {
	w, err := ctrl.wizards.Get(c.Param("id"))
	if err != nil {
		ctrl.fail(c, err, nil)
		return nil, false
	}
	return w, true
}

// edit 修改草稿，返回会话快照与当前步骤的实时校验结果
func (ctrl *WizardController) edit(c *gin.Context, w *service.Wizard, fn func(d *model.ListingDraft) error) {
	errs, err := w.Edit(fn)
	if err != nil {
		ctrl.fail(c, err, w)
		return
	}

	data := gin.H{"wizard": w.View()}
	if !errs.Empty() {
		data["errors"] = map[string]string(errs)
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func (ctrl *WizardController) readAsset(fh *multipart.FileHeader) (*model.Asset, error) {
	if fh.Size > ctrl.maxFileBytes {
		return nil, fmt.Errorf("文件 %s 超过大小限制", fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, ctrl.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", fh.Filename, err)
	}
	if int64(len(data)) > ctrl.maxFileBytes {
		return nil, fmt.Errorf("文件 %s 超过大小限制", fh.Filename)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("文件 %s 为空", fh.Filename)
	}

	// 以内容识别为准，客户端声明的类型仅作参考
	contentType := mimetype.Detect(data).String()
	if i := strings.IndexByte(contentType, ';'); i > 0 {
		contentType = contentType[:i]
	}
	return model.NewLocalAsset(fh.Filename, contentType, data), nil
}

// fail 将领域错误映射为 HTTP 响应
func (ctrl *WizardController) fail(c *gin.Context, err error, w *service.Wizard) {
	status, code, msg := classifyError(err)

	body := gin.H{"code": code, "message": msg}
	data := gin.H{}

	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		data["errors"] = map[string]string(verrs)
	}
	if w != nil {
		data["wizard"] = w.View()
	}
	if len(data) > 0 {
		body["data"] = data
	}

	if status >= http.StatusInternalServerError {
		ctrl.logger.Warn("请求失败", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, body)
}

func classifyError(err error) (status, code int, msg string) {
	var (
		verrs    service.ValidationErrors
		upErr    *service.UploadError
		apiErr   *backend.APIError
		assemble *service.AssemblyError
	)

	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, 422, "校验未通过"
	case errors.Is(err, service.ErrWizardNotFound):
		return http.StatusNotFound, 404, "会话不存在或已过期"
	case errors.Is(err, service.ErrSessionClosed):
		return http.StatusGone, 410, "会话已关闭"
	case errors.Is(err, service.ErrSubmitInProgress):
		return http.StatusConflict, 409, "正在提交中，请勿重复提交"
	case errors.Is(err, service.ErrAlreadySubmitted):
		return http.StatusConflict, 409, "房源已提交"
	case errors.Is(err, service.ErrNotAtFinalStep):
		return http.StatusConflict, 409, "请先完成所有步骤"
	case errors.Is(err, service.ErrNotReady):
		return http.StatusUnauthorized, 401, "缺少提交凭证"
	case errors.Is(err, service.ErrUnknownField),
		errors.Is(err, model.ErrUnknownSlot),
		errors.Is(err, model.ErrAssetIndex),
		errors.Is(err, model.ErrEmptyAsset),
		errors.Is(err, model.ErrUnknownFacility),
		errors.Is(err, model.ErrUnknownChannel),
		errors.Is(err, model.ErrEmptyFacilityName):
		return http.StatusBadRequest, 400, err.Error()
	case errors.As(err, &upErr):
		return http.StatusBadGateway, 502, "附件上传失败: " + err.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, 502, "后端拒绝请求: " + apiErr.Message
	case errors.As(err, &assemble):
		return http.StatusInternalServerError, 500, "载荷组装失败: " + err.Error()
	}
	return http.StatusInternalServerError, 500, "服务器内部错误: " + err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": msg,
	})
}
