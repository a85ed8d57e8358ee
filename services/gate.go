package services

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldreport/models"
	"fieldreport/utils"
)

// GateReason 门禁拒绝原因
type GateReason string

const (
	ReasonAlreadySent GateReason = "already_sent" // 今天已发送过
	ReasonLockError   GateReason = "lock_error"   // 发送日志不可用，宁可漏发不可重发
	ReasonWeekend     GateReason = "weekend"      // 租户本地周末
	ReasonNoVisits    GateReason = "no_visits"    // 当日无有效拜访记录
)

// GateDecision 门禁判定结果
// 拒绝是预期内的正常结果，不是错误
type GateDecision struct {
	Proceed   bool       `json:"proceed"`          // 是否允许发送
	Reason    GateReason `json:"reason,omitempty"` // 拒绝原因
	LocalDate string     `json:"local_date"`       // 租户本地日期（YYYY-MM-DD）
}

// SendGate 发送门禁
// 决定某个租户在其本地日历日内是否允许执行一次报表发送，
// 发送日志表上的唯一索引是防止并发重复发送的唯一互斥原语
type SendGate struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSendGate 创建发送门禁
func NewSendGate(db *gorm.DB, logger *zap.Logger) *SendGate {
	return &SendGate{db: db, logger: logger}
}

// ShouldSend 按固定顺序执行门禁检查
//  1. 计算租户本地日期
//  2. 抢占当日发送锁（force跳过；dryRun改为只读查询）：
//     唯一约束冲突 => already_sent；其他插入失败 => lock_error 并放弃发送
//     （基础设施故障时宁可少发，也不能在重试风暴里对租户重复轰炸）
//  3. 本地星期落在租户周末集合 => weekend
//  4. 当日窗口内无未删除拜访记录 => no_visits
//
// 返回的error仅表示拜访查询这类数据层故障，调用方应计入失败数并跳过该租户
func (g *SendGate) ShouldSend(tenant *models.Tenant, force bool, dryRun bool, runID string) (GateDecision, error) {
	localDate := utils.LocalDate(tenant.Timezone)
	decision := GateDecision{LocalDate: localDate}

	if !force {
		if dryRun {
			// dry-run不落锁，只探测锁状态，保证预览流程可以反复执行
			var existing models.SendLog
			err := g.db.Where("tenant_id = ? AND report_date = ? AND report_type = ?",
				tenant.ID, localDate, models.ReportTypeDaily).First(&existing).Error
			if err == nil {
				decision.Reason = ReasonAlreadySent
				return decision, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				g.logger.Error("发送日志查询失败",
					zap.Uint("tenant_id", tenant.ID), zap.String("date", localDate), zap.Error(err))
				decision.Reason = ReasonLockError
				return decision, nil
			}
		} else {
			entry := models.SendLog{
				TenantID:   tenant.ID,
				ReportDate: localDate,
				ReportType: models.ReportTypeDaily,
				Metadata:   fmt.Sprintf(`{"run_id":%q}`, runID),
			}
			if err := g.db.Create(&entry).Error; err != nil {
				if isDuplicateKeyError(err) {
					g.logger.Info("今日报表已发送，跳过",
						zap.Uint("tenant_id", tenant.ID), zap.String("date", localDate))
					decision.Reason = ReasonAlreadySent
					return decision, nil
				}
				g.logger.Error("发送日志写入失败，为避免重复发送选择跳过",
					zap.Uint("tenant_id", tenant.ID), zap.String("date", localDate), zap.Error(err))
				decision.Reason = ReasonLockError
				return decision, nil
			}
		}
	}

	weekday := utils.LocalWeekday(tenant.Timezone)
	if tenant.WeekendSet()[weekday] {
		decision.Reason = ReasonWeekend
		return decision, nil
	}

	start, end := utils.LocalDayWindow(tenant.Timezone)
	var count int64
	if err := g.db.Model(&models.Visit{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenant.ID, start, end).
		Count(&count).Error; err != nil {
		return decision, fmt.Errorf("查询当日拜访记录失败: %w", err)
	}
	if count == 0 {
		decision.Reason = ReasonNoVisits
		return decision, nil
	}

	decision.Proceed = true
	return decision, nil
}

// isDuplicateKeyError 判断是否为唯一约束冲突
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
