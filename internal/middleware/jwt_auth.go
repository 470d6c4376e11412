package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// AuthConfig 认证配置
// SecretKey 为空时只要求携带 Bearer，不校验签名（令牌由后端校验）
type AuthConfig struct {
	SecretKey string
	Issuer    string
}

// ==================== Claims 定义 ====================

// OperatorClaims 操作员声明
type OperatorClaims struct {
	OperatorID int64  `json:"operator_id"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// IssueToken 签发操作员令牌（本地调试与 CLI 使用）
func IssueToken(cfg AuthConfig, operatorID int64, name string, ttl time.Duration) (string, error) {
	if cfg.SecretKey == "" {
		return "", errors.New("secret key is empty")
	}
	now := time.Now()
	claims := &OperatorClaims{
		OperatorID: operatorID,
		Name:       name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SecretKey))
}

// ParseToken 解析并校验令牌
func ParseToken(cfg AuthConfig, tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyOperatorID = "operator_id"
	ContextKeyOperator   = "operator"
	ContextKeyToken      = "bearer_token"
)

// BearerAuth 认证中间件
// 原始令牌保存在 Context 中，提交时原样转发给后端
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "未提供认证信息")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "认证格式错误，应为 Bearer {token}")
			return
		}
		raw := strings.TrimSpace(parts[1])

		if cfg.SecretKey != "" {
			claims, err := ParseToken(cfg, raw)
			if err != nil {
				abortUnauthorized(c, "Token 无效或已过期")
				return
			}
			if claims.Subject != "access" {
				abortUnauthorized(c, "Token 类型错误")
				return
			}
			c.Set(ContextKeyOperatorID, claims.OperatorID)
			c.Set(ContextKeyOperator, claims.Name)
		}

		c.Set(ContextKeyToken, raw)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": msg,
	})
	c.Abort()
}

// ==================== 辅助函数 ====================

// GetOperatorID 从 Context 获取操作员 ID，未校验签名时为 0
func GetOperatorID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyOperatorID); exists {
		return id.(int64)
	}
	return 0
}

// GetOperatorName 从 Context 获取操作员名称
func GetOperatorName(c *gin.Context) string {
	return c.GetString(ContextKeyOperator)
}

// GetBearerToken 从 Context 获取原始令牌
func GetBearerToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
