package backend

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexibleID 后端 ID 可能是数字也可能是字符串，统一按字符串处理
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}

// File 待上传的二进制文件
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Listing 后端返回的房源（仅保留控制台关心的字段）
type Listing struct {
	ID     FlexibleID `json:"id"`
	Name   string     `json:"name,omitempty"`
	Type   string     `json:"type,omitempty"`
	Status string     `json:"status,omitempty"`
}

// GeoArea 省 / 区县 / 市镇
type GeoArea struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
}
