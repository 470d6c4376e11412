package net

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOptions Resty 客户端参数
type ClientOptions struct {
	Timeout    time.Duration
	RetryCount int    // 0 表示不重试
	ProxyURL   string // 出口代理，可为空
	UserAgent  string
	Debug      bool
}

// NewClient 创建一个配置好超时、重试和代理的 Resty 客户端
// 它是全系统统一的外部请求入口
func NewClient(opts ClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Lodging-Console/1.0"
	}

	client := resty.New().
		SetDebug(opts.Debug).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}

	// 只重试幂等的 GET，且只针对网络错误和 5xx
	if opts.RetryCount > 0 {
		client.
			SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(300 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
					return false
				}
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}

	return client
}
