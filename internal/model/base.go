package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 落库记录的公共列，审计列由 middleware 的 gorm 回调填充
type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 操作员
	CreatedBy int64 `gorm:"index;comment:提交操作员ID" json:"created_by"`
	UpdatedBy int64 `gorm:"comment:最后修改操作员ID" json:"updated_by"`
}
