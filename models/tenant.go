package models

import (
	"strconv"
	"strings"
	"time"
)

// Tenant 租户模型
// 每个租户是一家使用外勤销售系统的客户企业，拥有独立的时区、周末策略和货币配置
// 报表核心只读取租户数据，创建和修改由入驻流程负责
type Tenant struct {
	ID             uint      `json:"id" gorm:"primaryKey"`                  // 主键ID
	Name           string    `json:"name" gorm:"size:100"`                  // 租户名称
	Timezone       string    `json:"timezone" gorm:"size:64;default:UTC"`   // IANA时区，例如 Asia/Kolkata
	WeekendDays    string    `json:"weekend_days" gorm:"size:20"`           // 周末日索引，逗号分隔，0=周日..6=周六，例如 "5,6"
	CurrencySymbol string    `json:"currency_symbol" gorm:"size:8"`         // 货币符号，例如 ₹
	CurrencyCode   string    `json:"currency_code" gorm:"size:8"`           // 货币代码，例如 INR
	IsActive       bool      `json:"is_active" gorm:"default:true;index"`   // 是否启用，停用的租户不参与报表发送
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`      // 创建时间
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`      // 更新时间
}

// TableName 返回表名
func (Tenant) TableName() string {
	return "tenants"
}

// WeekendSet 解析周末配置，返回星期索引集合
// 无法解析的片段会被忽略，未配置时返回空集合（即全周发送）
func (t *Tenant) WeekendSet() map[int]bool {
	set := make(map[int]bool)
	for _, part := range strings.Split(t.WeekendDays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil || day < 0 || day > 6 {
			continue
		}
		set[day] = true
	}
	return set
}
