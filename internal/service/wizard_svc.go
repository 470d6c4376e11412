package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/api/dto"
	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/pkg/backend"
)

// ==================== 错误定义 ====================

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrNotReady         = errors.New("not ready to submit: no credentials")
	ErrNotAtFinalStep   = errors.New("submit is only allowed at the final step")
	ErrSessionClosed    = errors.New("wizard session closed")
	ErrWizardNotFound   = errors.New("wizard session not found")
	ErrAlreadySubmitted = errors.New("wizard already submitted")
	ErrUnknownField     = errors.New("unknown field")
)

// ==================== 凭证 ====================

// CredentialProvider 提供当前操作员的 Bearer Token，取不到视为未就绪
type CredentialProvider interface {
	BearerToken(ctx context.Context) (string, bool)
}

type bearerTokenKey struct{}

// WithBearerToken 将 Token 放入 ctx（HTTP 中间件使用）
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// ContextCredentials 从 ctx 读取 Token
type ContextCredentials struct{}

func (ContextCredentials) BearerToken(ctx context.Context) (string, bool) {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	token = strings.TrimSpace(token)
	return token, token != ""
}

// StaticCredentials 固定 Token（CLI 使用）
type StaticCredentials string

func (s StaticCredentials) BearerToken(context.Context) (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// ==================== 状态 ====================

// WizardPhase 向导阶段
type WizardPhase string

const (
	PhaseStep       WizardPhase = "step"
	PhaseSubmitting WizardPhase = "submitting"
	PhaseDone       WizardPhase = "done"
	PhaseFailed     WizardPhase = "failed" // 仅出现在 View 中：提交失败后、操作员下一次操作前
)

// WizardState 向导当前状态
type WizardState struct {
	Phase WizardPhase
	Step  int
}

// ==================== 向导 ====================

// Wizard 单个向导会话，所有方法并发安全
type Wizard struct {
	id         string
	operatorID int64

	mu          sync.Mutex
	draft       *model.ListingDraft
	step        int
	phase       WizardPhase
	closed      bool
	lastErrors  ValidationErrors
	lastFailure string
	result      *backend.Listing
	lastActive  time.Time

	pipeline *SubmitPipeline
	creds    CredentialProvider
	now      func() time.Time
}

func newWizard(id string, operatorID int64, draft *model.ListingDraft, pipeline *SubmitPipeline, creds CredentialProvider, now func() time.Time) *Wizard {
	return &Wizard{
		id:         id,
		operatorID: operatorID,
		draft:      draft,
		phase:      PhaseStep,
		lastActive: now(),
		pipeline:   pipeline,
		creds:      creds,
		now:        now,
	}
}

func (w *Wizard) ID() string {
	return w.id
}

// State 当前状态
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WizardState{Phase: w.phase, Step: w.step}
}

// guard 所有修改类操作的前置检查，调用方需持有锁
func (w *Wizard) guard() error {
	switch {
	case w.closed:
		return ErrSessionClosed
	case w.phase == PhaseSubmitting:
		return ErrSubmitInProgress
	case w.phase == PhaseDone:
		return ErrAlreadySubmitted
	}
	return nil
}

// Next 校验当前步骤，通过则前进一步（最后一步停留）
func (w *Wizard) Next() (WizardState, ValidationErrors, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return WizardState{Phase: w.phase, Step: w.step}, nil, err
	}
	w.lastActive = w.now()
	w.lastFailure = ""

	errs := w.pipeline.Validator.ValidateStep(w.draft, w.step)
	w.lastErrors = errs
	if errs.Empty() {
		w.step = model.ClampStep(w.step + 1)
		w.lastErrors = nil
	}
	return WizardState{Phase: w.phase, Step: w.step}, errs, nil
}

// AdvanceToEnd 连续 Next 直到最后一步，遇到校验失败即停在该步
func (w *Wizard) AdvanceToEnd() (WizardState, ValidationErrors, error) {
	for {
		state, errs, err := w.Next()
		if err != nil || !errs.Empty() || state.Step == model.LastStep {
			return state, errs, err
		}
	}
}

// Back 后退一步，不做校验
func (w *Wizard) Back() (WizardState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return WizardState{Phase: w.phase, Step: w.step}, err
	}
	w.lastActive = w.now()
	w.lastFailure = ""
	w.step = model.ClampStep(w.step - 1)
	w.lastErrors = nil
	return WizardState{Phase: w.phase, Step: w.step}, nil
}

// Edit 在会话锁内修改草稿，返回当前步骤的实时校验结果
func (w *Wizard) Edit(fn func(d *model.ListingDraft) error) (ValidationErrors, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return nil, err
	}
	w.lastActive = w.now()
	w.lastFailure = ""

	if err := fn(w.draft); err != nil {
		return nil, err
	}
	return w.pipeline.Validator.ValidateStep(w.draft, w.step), nil
}

// Submit 提交整单
// 失败时回到最后一步，草稿保持不变；会话在提交期间被关闭则丢弃结果
func (w *Wizard) Submit(ctx context.Context) (*backend.Listing, error) {
	w.mu.Lock()
	if err := w.guard(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.step != model.LastStep {
		w.mu.Unlock()
		return nil, ErrNotAtFinalStep
	}
	token, ok := w.creds.BearerToken(ctx)
	if !ok {
		w.mu.Unlock()
		return nil, ErrNotReady
	}
	w.lastActive = w.now()

	if errs := w.pipeline.Validator.ValidateAll(w.draft); !errs.Empty() {
		w.lastErrors = errs
		w.mu.Unlock()
		return nil, errs
	}

	w.phase = PhaseSubmitting
	w.lastErrors = nil
	w.lastFailure = ""
	snapshot := w.draft.Clone()
	w.mu.Unlock()

	listing, err := w.pipeline.Run(ctx, token, snapshot, SubmitMeta{SessionID: w.id, OperatorID: w.operatorID})

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrSessionClosed
	}
	w.lastActive = w.now()

	if err != nil {
		w.phase = PhaseStep
		w.step = model.LastStep
		w.lastFailure = err.Error()
		return nil, err
	}

	w.phase = PhaseDone
	w.result = listing
	return listing, nil
}

// Close 关闭会话，进行中的提交结果将被丢弃
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// idleFor 空闲时长；提交中的会话不算空闲
func (w *Wizard) idleFor(now time.Time) (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseSubmitting {
		return 0, false
	}
	return now.Sub(w.lastActive), true
}

// View 会话快照
func (w *Wizard) View() *dto.WizardVO {
	w.mu.Lock()
	defer w.mu.Unlock()

	phase := w.phase
	if phase == PhaseStep && w.lastFailure != "" {
		phase = PhaseFailed
	}

	d := w.draft
	vo := &dto.WizardVO{
		ID:             w.id,
		Phase:          string(phase),
		Step:           w.step,
		StepKey:        model.Steps[w.step].Key,
		Failure:        w.lastFailure,
		ListingID:      d.ListingID,
		Fields:         make(map[string]string),
		Facilities:     make(map[string][]string),
		ActivityPrices: make(map[string]dto.ActivityPriceVO),
		Orphans:        append([]string(nil), d.Orphans...),
		LastActiveAt:   w.lastActive,
	}
	if len(w.lastErrors) > 0 {
		vo.Errors = make(map[string]string, len(w.lastErrors))
		for k, v := range w.lastErrors {
			vo.Errors[k] = v
		}
	}
	if w.result != nil {
		vo.Result = &dto.ListingResultVO{ID: w.result.ID.String(), Status: w.result.Status}
	}

	for k, v := range d.Fields() {
		vo.Fields[string(k)] = v
	}
	for _, c := range d.FacilityCategories() {
		vo.Categories = append(vo.Categories, string(c))
	}
	for c, opts := range d.Facilities() {
		vo.Facilities[string(c)] = opts
	}
	for a, p := range d.ActivityPrices() {
		vo.ActivityPrices[a] = dto.ActivityPriceVO{PerPerson: p.PerPerson, PerGroup: p.PerGroup, Other: p.Other}
	}

	for _, spec := range model.SlotSpecs {
		slot, _ := d.Slot(spec.Name)
		sv := dto.SlotVO{
			Name:  string(spec.Name),
			Label: spec.Label,
			Kind:  slotKindName(spec.Kind),
			Max:   spec.Max,
			Items: []dto.AssetVO{},
		}
		for _, a := range slot.Items {
			sv.Items = append(sv.Items, dto.AssetVO{
				ID:          a.ID,
				Filename:    a.Filename,
				ContentType: a.ContentType,
				Size:        a.Size(),
				State:       string(a.State()),
				RemoteRef:   a.RemoteRef,
			})
		}
		vo.Slots = append(vo.Slots, sv)
	}
	return vo
}

func slotKindName(k model.SlotKind) string {
	if k == model.SlotSingle {
		return "single"
	}
	return "multi"
}

// ApplyFields 批量写入字段
// 省 -> 区 -> 市按顺序写入，避免上级字段的级联清空覆盖同批次的下级字段
func ApplyFields(d *model.ListingDraft, fields map[model.FieldName]string) error {
	for name := range fields {
		if !model.IsKnownField(name) {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	for _, f := range geoFields {
		if v, ok := fields[f]; ok {
			d.SetField(f, v)
		}
	}
	for name, value := range fields {
		if name == model.FieldProvince || name == model.FieldDistrict || name == model.FieldMunicipality {
			continue
		}
		d.SetField(name, value)
	}
	return nil
}

var geoFields = []model.FieldName{model.FieldProvince, model.FieldDistrict, model.FieldMunicipality}

// ==================== 会话管理 ====================

// EditSeed 编辑模式的初始数据
type EditSeed struct {
	ListingID      string
	Fields         map[model.FieldName]string
	ExistingAssets map[model.SlotName][]string
}

// WizardService 向导会话注册表
type WizardService struct {
	mu       sync.RWMutex
	sessions map[string]*Wizard

	pipeline *SubmitPipeline
	creds    CredentialProvider
	logger   *zap.Logger
	now      func() time.Time
}

func NewWizardService(pipeline *SubmitPipeline, creds CredentialProvider, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if creds == nil {
		creds = ContextCredentials{}
	}
	return &WizardService{
		sessions: make(map[string]*Wizard),
		pipeline: pipeline,
		creds:    creds,
		logger:   logger.Named("WizardService"),
		now:      time.Now,
	}
}

// Open 新建空白向导
func (s *WizardService) Open(operatorID int64) *Wizard {
	w := newWizard(uuid.NewString(), operatorID, model.NewListingDraft(), s.pipeline, s.creds, s.now)
	s.register(w)
	return w
}

// OpenDraft 以现成草稿创建向导（CLI 等无界面场景）
func (s *WizardService) OpenDraft(operatorID int64, d *model.ListingDraft) *Wizard {
	w := newWizard(uuid.NewString(), operatorID, d, s.pipeline, s.creds, s.now)
	s.register(w)
	return w
}

// OpenEdit 以已有房源为底稿创建向导
func (s *WizardService) OpenEdit(operatorID int64, seed EditSeed) (*Wizard, error) {
	d := model.NewListingDraft()
	d.ListingID = strings.TrimSpace(seed.ListingID)

	if err := ApplyFields(d, seed.Fields); err != nil {
		return nil, err
	}

	for slot, refs := range seed.ExistingAssets {
		for _, ref := range refs {
			if strings.TrimSpace(ref) == "" {
				continue
			}
			if err := d.AttachAsset(slot, model.NewUploadedAsset(ref)); err != nil {
				return nil, err
			}
		}
	}

	w := newWizard(uuid.NewString(), operatorID, d, s.pipeline, s.creds, s.now)
	s.register(w)
	return w, nil
}

func (s *WizardService) register(w *Wizard) {
	s.mu.Lock()
	s.sessions[w.id] = w
	s.mu.Unlock()

	s.logger.Info("向导会话已创建", zap.String("session", w.id), zap.Int64("operator", w.operatorID))
}

// Get 查找会话
func (s *WizardService) Get(id string) (*Wizard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.sessions[id]
	if !ok {
		return nil, ErrWizardNotFound
	}
	return w, nil
}

// Close 关闭并移除会话
func (s *WizardService) Close(id string) error {
	s.mu.Lock()
	w, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrWizardNotFound
	}
	w.Close()
	return nil
}

// Count 当前会话数
func (s *WizardService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle 关闭空闲超过 ttl 的会话，返回关闭数量
func (s *WizardService) SweepIdle(ttl time.Duration) int {
	now := s.now()

	s.mu.Lock()
	var expired []*Wizard
	for id, w := range s.sessions {
		if idle, ok := w.idleFor(now); ok && idle > ttl {
			expired = append(expired, w)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, w := range expired {
		w.Close()
		s.logger.Info("空闲会话已关闭", zap.String("session", w.id))
	}
	return len(expired)
}
