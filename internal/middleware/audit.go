package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// AuditInfo 当前请求的操作员
type AuditInfo struct {
	OperatorID int64
	Name       string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, operatorID int64, name string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{
		OperatorID: operatorID,
		Name:       name,
	})
}

// GetAuditInfo 从 context 获取审计信息
func GetAuditInfo(ctx context.Context) *AuditInfo {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info
	}
	return nil
}

// GetAuditOperatorID 从 context 获取审计操作员 ID
func GetAuditOperatorID(ctx context.Context) int64 {
	if info := GetAuditInfo(ctx); info != nil {
		return info.OperatorID
	}
	return 0
}

// ==================== Gin 中间件 ====================

// AuditContext 把 BearerAuth 解析出的操作员放进 request context
// 提交流水线以 WithoutCancel 派生的 ctx 落库时仍能读到
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := GetOperatorID(c)

		if operatorID > 0 {
			ctx := WithAuditInfo(c.Request.Context(), operatorID, GetOperatorName(c))
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 写入提交记录时按请求里的操作员补齐 CreatedBy/UpdatedBy
// 调用方已显式赋值的列不覆盖
func RegisterAuditCallbacks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:create").Register("audit:create", fillOperator("CreatedBy", "UpdatedBy"))
	db.Callback().Update().Before("gorm:update").Register("audit:update", fillOperator("UpdatedBy"))
}

func fillOperator(fields ...string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		stmt := tx.Statement
		if stmt.Context == nil || stmt.Schema == nil {
			return
		}
		operatorID := GetAuditOperatorID(stmt.Context)
		if operatorID == 0 {
			return
		}
		for _, name := range fields {
			if field := stmt.Schema.LookUpField(name); field != nil {
				setIfZero(stmt, field, operatorID)
			}
		}
	}
}

// setIfZero 兼容单条与批量插入
func setIfZero(stmt *gorm.Statement, field *schema.Field, value int64) {
	rv := stmt.ReflectValue
	switch rv.Kind() {
	case reflect.Struct:
		if _, zero := field.ValueOf(stmt.Context, rv); zero {
			_ = field.Set(stmt.Context, rv, value)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			item := reflect.Indirect(rv.Index(i))
			if _, zero := field.ValueOf(stmt.Context, item); zero {
				_ = field.Set(stmt.Context, item, value)
			}
		}
	}
}
