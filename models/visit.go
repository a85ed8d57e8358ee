package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 拜访渠道常量
const (
	ChannelPersonal  = "personal"  // 当面拜访
	ChannelTelephone = "telephone" // 电话拜访
)

// Visit 拜访记录模型
// 一条拜访记录对应销售员的一次销售活动，聚合之后不再修改
// 软删除的记录必须排除在所有统计之外（GORM的DeletedAt自动处理）
type Visit struct {
	ID            uint            `json:"id" gorm:"primaryKey"`                     // 主键ID
	TenantID      uint            `json:"tenant_id" gorm:"index;not null"`          // 所属租户ID
	SalesmanID    uint            `json:"salesman_id" gorm:"index;not null"`        // 销售员ID
	SalesmanName  string          `json:"salesman_name" gorm:"size:50"`             // 销售员姓名（冗余，报表渲染用）
	Channel       string          `json:"channel" gorm:"size:20;index"`             // 渠道：personal当面, telephone电话
	OrderValue    decimal.Decimal `json:"order_value" gorm:"type:decimal(20,4);default:0"` // 订单金额，无订单时为0
	Branch        string          `json:"branch" gorm:"size:100"`                   // 分支机构/工厂，可为空
	CustomerName  string          `json:"customer_name" gorm:"size:100"`            // 客户姓名
	IsNewCustomer bool            `json:"is_new_customer" gorm:"default:false"`     // 是否为新客户
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime;index"`   // 创建时间（UTC时刻）
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`                           // 软删除标记
}

// TableName 返回表名
func (Visit) TableName() string {
	return "visits"
}
