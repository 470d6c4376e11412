package net

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// NewRequest 通用请求构建器
// 统一挂载 ctx 与标准头 (Accept)，token 非空时附带 Bearer 鉴权
// 注意：JSON 请求由 SetBody 自动设置 Content-Type，multipart 请求由 resty 生成 boundary
func NewRequest(ctx context.Context, client *resty.Client, token string) *resty.Request {
	req := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")

	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}
