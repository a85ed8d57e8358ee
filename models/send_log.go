package models

import (
	"time"
)

// 报表类型常量
const (
	ReportTypeDaily = "daily" // 每日报表
)

// SendLog 报表发送日志模型
// 这是报表核心唯一拥有的持久化状态，充当"每租户每天最多发送一次"的锁：
// (tenant_id, report_date, report_type) 上的唯一索引是真正的互斥原语，
// 插入因唯一约束失败即表示"今天已发送"，并发运行也不会对同一租户重复发送
// 记录创建后不再更新，也不由本服务删除（保留/清理属于外部运维）
type SendLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`                                                    // 主键ID
	TenantID   uint      `json:"tenant_id" gorm:"uniqueIndex:idx_send_log_unique,priority:1;not null"`    // 租户ID
	ReportDate string    `json:"report_date" gorm:"size:10;uniqueIndex:idx_send_log_unique,priority:2"`   // 报表日期（租户本地日历日期，非UTC）
	ReportType string    `json:"report_type" gorm:"size:20;uniqueIndex:idx_send_log_unique,priority:3"`   // 报表类型
	Metadata   string    `json:"metadata" gorm:"type:text"`                                               // 附加元数据（JSON），例如运行ID
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`                                        // 创建时间
}

// TableName 返回表名
func (SendLog) TableName() string {
	return "send_logs"
}
