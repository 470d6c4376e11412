package backend

import (
	"fmt"
	"net/http"
	"strings"
)

// uploadResp 上传接口响应
type uploadResp struct {
	URLs []string `json:"urls"`
}

// listingResp 创建/更新接口响应，兼容 {"id":..} 与 {"data":{..}}
type listingResp struct {
	Listing
	Data *Listing `json:"data"`
}

func (r *listingResp) listing() *Listing {
	if r.Data != nil && r.Data.ID != "" {
		return r.Data
	}
	l := r.Listing
	return &l
}

// geoResp 地理接口响应，兼容裸数组与 {"data":[..]}
type geoResp struct {
	Data []GeoArea `json:"data"`
}

// errorResp 后端错误体
type errorResp struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// APIError 后端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// newAPIError 按优先级取错误原因: message > error > 原始响应体 > 状态文本
func newAPIError(status int, body *errorResp, raw []byte) *APIError {
	msg := ""
	if body != nil {
		msg = strings.TrimSpace(body.Message)
		if msg == "" {
			msg = strings.TrimSpace(body.Error)
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
		if len(msg) > 512 {
			msg = msg[:512]
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
