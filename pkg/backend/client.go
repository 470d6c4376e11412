package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	lnet "lodging_console_v1_202610/pkg/net"
)

// Options 后端连接参数
type Options struct {
	BaseURL     string
	UploadPath  string // 默认 /api/uploads
	UploadField string // 默认 files
	ListingPath string // 默认 /api/listings
	GeoPath     string // 默认 /api/geo
	Timeout     time.Duration
	RetryCount  int // 仅作用于地理查询
	ProxyURL    string
	Debug       bool
}

func (o Options) withDefaults() Options {
	if o.UploadPath == "" {
		o.UploadPath = "/api/uploads"
	}
	if o.UploadField == "" {
		o.UploadField = "files"
	}
	if o.ListingPath == "" {
		o.ListingPath = "/api/listings"
	}
	if o.GeoPath == "" {
		o.GeoPath = "/api/geo"
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o
}

var ErrMissingListingID = errors.New("listing id is required for update")

// Client 房源后端客户端：上传、创建/更新、地理查询
type Client struct {
	opts   Options
	api    *resty.Client // 写操作，不重试
	lookup *resty.Client // 只读查询，可重试
}

// NewClient 创建后端客户端
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	base := lnet.ClientOptions{
		Timeout:  opts.Timeout,
		ProxyURL: opts.ProxyURL,
		Debug:    opts.Debug,
	}
	ro := base
	ro.RetryCount = opts.RetryCount

	return &Client{
		opts:   opts,
		api:    lnet.NewClient(base).SetBaseURL(opts.BaseURL),
		lookup: lnet.NewClient(ro).SetBaseURL(opts.BaseURL),
	}
}

// ==================== 上传 ====================

// UploadFiles 单次 multipart 请求上传一组文件，所有文件共用同一个字段名
// 返回的 URL 顺序与入参一致，数量校验由调用方负责
func (c *Client) UploadFiles(ctx context.Context, token, category string, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	req := lnet.NewRequest(ctx, c.api, token).
		SetFormData(map[string]string{"category": category})
	for _, f := range files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		req.SetMultipartField(c.opts.UploadField, f.Name, ct, bytes.NewReader(f.Data))
	}

	var res uploadResp
	var errBody errorResp
	resp, err := req.
		SetResult(&res).
		SetError(&errBody).
		Post(c.opts.UploadPath)
	if err != nil {
		return nil, fmt.Errorf("上传请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), &errBody, resp.Body())
	}
	return res.URLs, nil
}

// ==================== 房源 ====================

// CreateListing POST {listing_path}
func (c *Client) CreateListing(ctx context.Context, token string, payload *ListingPayload) (*Listing, error) {
	return c.sendListing(ctx, token, "POST", c.opts.ListingPath, payload)
}

// UpdateListing PUT {listing_path}/{id}
func (c *Client) UpdateListing(ctx context.Context, token, listingID string, payload *ListingPayload) (*Listing, error) {
	if strings.TrimSpace(listingID) == "" {
		return nil, ErrMissingListingID
	}
	path := c.opts.ListingPath + "/" + url.PathEscape(listingID)
	return c.sendListing(ctx, token, "PUT", path, payload)
}

func (c *Client) sendListing(ctx context.Context, token, method, path string, payload *ListingPayload) (*Listing, error) {
	var res listingResp
	var errBody errorResp

	resp, err := lnet.NewRequest(ctx, c.api, token).
		SetBody(payload).
		SetResult(&res).
		SetError(&errBody).
		Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("房源请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), &errBody, resp.Body())
	}
	return res.listing(), nil
}

// ==================== 地理 ====================

// Provinces GET {geo_path}/provinces
func (c *Client) Provinces(ctx context.Context) ([]GeoArea, error) {
	return c.geo(ctx, "/provinces")
}

// Districts GET {geo_path}/provinces/{id}/districts
func (c *Client) Districts(ctx context.Context, provinceID string) ([]GeoArea, error) {
	return c.geo(ctx, "/provinces/"+url.PathEscape(provinceID)+"/districts")
}

// Municipalities GET {geo_path}/districts/{id}/municipalities
func (c *Client) Municipalities(ctx context.Context, districtID string) ([]GeoArea, error) {
	return c.geo(ctx, "/districts/"+url.PathEscape(districtID)+"/municipalities")
}

func (c *Client) geo(ctx context.Context, path string) ([]GeoArea, error) {
	var errBody errorResp
	resp, err := lnet.NewRequest(ctx, c.lookup, "").
		SetError(&errBody).
		Get(c.opts.GeoPath + path)
	if err != nil {
		return nil, fmt.Errorf("地理查询失败: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), &errBody, resp.Body())
	}
	return decodeGeo(resp.Body())
}

func decodeGeo(body []byte) ([]GeoArea, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []GeoArea{}, nil
	}
	if body[0] == '[' {
		var areas []GeoArea
		if err := json.Unmarshal(body, &areas); err != nil {
			return nil, fmt.Errorf("解析地理数据失败: %w", err)
		}
		return areas, nil
	}
	var wrapped geoResp
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("解析地理数据失败: %w", err)
	}
	if wrapped.Data == nil {
		return []GeoArea{}, nil
	}
	return wrapped.Data, nil
}
