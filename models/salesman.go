package models

import (
	"time"

	"gorm.io/gorm"
)

// 销售员状态常量
const (
	SalesmanStatusActive   = "active"   // 在职
	SalesmanStatusInactive = "inactive" // 离职
)

// Salesman 销售员模型
// 外勤销售员和管理员都存储在这张表里，通过IsAdmin区分：
// 外勤销售员收到个人业绩日报，管理员收到团队日报
type Salesman struct {
	ID        uint           `json:"id" gorm:"primaryKey"`                 // 主键ID
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`      // 所属租户ID
	Name      string         `json:"name" gorm:"size:50"`                  // 姓名
	Phone     string         `json:"phone" gorm:"size:30"`                 // 电话，原始格式可能带 + 和空格，发送前需归一化
	IsAdmin   bool           `json:"is_admin" gorm:"default:false"`        // 是否为管理员
	Status    string         `json:"status" gorm:"size:20;default:active"` // 状态：active在职, inactive离职
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`     // 创建时间
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`     // 更新时间
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`                       // 软删除标记
}

// TableName 返回表名
func (Salesman) TableName() string {
	return "salesmen"
}
