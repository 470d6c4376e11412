package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	r := gin.New()
	r.GET("/me", BearerAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operator_id": GetOperatorID(c),
			"name":        GetOperatorName(c),
			"token":       GetBearerToken(c),
		})
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== BearerAuth ====================

func TestBearerAuth_MissingOrMalformed(t *testing.T) {
	r := newAuthRouter(AuthConfig{})

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "Bearer   ").Code)
}

func TestBearerAuth_PassThroughWithoutSecret(t *testing.T) {
	r := newAuthRouter(AuthConfig{})

	w := doGet(r, "/me", "Bearer opaque-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator_id":0,"name":"","token":"opaque-token"}`, w.Body.String())
}

func TestBearerAuth_VerifiesSignedToken(t *testing.T) {
	cfg := AuthConfig{SecretKey: "s3cret", Issuer: "lodging-console"}
	r := newAuthRouter(cfg)

	token, err := IssueToken(cfg, 42, "sita", time.Hour)
	require.NoError(t, err)

	w := doGet(r, "/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operator_id":42`)
	assert.Contains(t, w.Body.String(), `"name":"sita"`)

	other, err := IssueToken(AuthConfig{SecretKey: "other"}, 42, "sita", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "Bearer "+other).Code)

	expired, err := IssueToken(cfg, 42, "sita", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "Bearer "+expired).Code)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken(AuthConfig{}, 1, "x", time.Hour)
	assert.Error(t, err)
}

// ==================== CooldownLimiter ====================

func TestCooldownLimiter_Check(t *testing.T) {
	limiter := NewCooldownLimiter()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Check("k", 3*time.Second).Allowed)

	now = now.Add(time.Second)
	res := limiter.Check("k", 3*time.Second)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2*time.Second, res.RetryAfter)

	// 其他 key 不受影响
	assert.True(t, limiter.Check("other", 3*time.Second).Allowed)

	now = now.Add(2 * time.Second)
	assert.True(t, limiter.Check("k", 3*time.Second).Allowed)

	limiter.Reset("k")
	assert.True(t, limiter.Check("k", 3*time.Second).Allowed)
}

func TestSubmitCooldown(t *testing.T) {
	limiter := NewCooldownLimiter()
	r := gin.New()
	r.GET("/wizards/:id/submit", SubmitCooldown(limiter, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doGet(r, "/wizards/a/submit", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "/wizards/a/submit", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/wizards/b/submit", "").Code)
}

func TestSubmitCooldown_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/wizards/:id/submit", SubmitCooldown(NewCooldownLimiter(), 0), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doGet(r, "/wizards/a/submit", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/wizards/a/submit", "").Code)
}

// ==================== Audit ====================

type auditRecord struct {
	ID        int64 `gorm:"primaryKey"`
	Note      string
	CreatedBy int64
	UpdatedBy int64
}

func TestAuditCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditRecord{}))
	RegisterAuditCallbacks(db)

	ctx := WithAuditInfo(context.Background(), 9, "ram")
	rec := &auditRecord{Note: "a"}
	require.NoError(t, db.WithContext(ctx).Create(rec).Error)
	assert.Equal(t, int64(9), rec.CreatedBy)
	assert.Equal(t, int64(9), rec.UpdatedBy)

	// 无审计信息时不填充
	plain := &auditRecord{Note: "b"}
	require.NoError(t, db.Create(plain).Error)
	assert.Zero(t, plain.CreatedBy)
}

func TestAuditContext_InjectsOperator(t *testing.T) {
	cfg := AuthConfig{SecretKey: "k"}
	token, err := IssueToken(cfg, 5, "ops", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	var got int64
	r.GET("/x", BearerAuth(cfg), AuditContext(), func(c *gin.Context) {
		got = GetAuditOperatorID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, doGet(r, "/x", "Bearer "+token).Code)
	assert.Equal(t, int64(5), got)
}
