package services

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldreport/models"
	"fieldreport/utils"
	"fieldreport/whatsapp"
)

// 管理员报表默认展示的业绩排名条数
const defaultTopPerformers = 3

// Dispatcher 消息发送接口
// 生产环境由whatsapp.Client实现，测试注入假实现
type Dispatcher interface {
	SendMessage(to string, text string) (string, error)
}

// RunOptions 一次报表运行的参数
// 原系统里十几个复制粘贴的send-to-X脚本，在这里统一为
// "按租户过滤 + 收件人覆盖"的参数化运行
type RunOptions struct {
	Timezone   string   `json:"tz"`         // 只处理该IANA时区的租户（精确匹配），空串表示全部
	Force      bool     `json:"force"`      // 跳过当日发送锁（周末和无拜访检查仍然生效）
	DryRun     bool     `json:"dry_run"`    // 只聚合和渲染，不落锁也不真正发送
	TenantIDs  []uint   `json:"tenant_ids"` // 只处理指定租户，空表示全部
	Recipients []string `json:"recipients"` // 收件人覆盖：所有消息改发到这些号码（人工验证用）
}

// SkipLists 按原因分组的跳过租户名单
type SkipLists struct {
	Weekend     []string `json:"weekend"`      // 租户本地周末
	NoVisits    []string `json:"no_visits"`    // 当日无拜访记录
	AlreadySent []string `json:"already_sent"` // 今日已发送
	LockError   []string `json:"lock_error"`   // 发送日志不可用
}

// RunResult 一次报表运行的结构化汇总
// 调度器和运维人员总能拿到这份汇总，单个租户/收件人的失败不会让整轮运行报错
type RunResult struct {
	Success   bool      `json:"success"`              // 运行是否完成（仅租户枚举失败时为false）
	RunID     string    `json:"run_id"`               // 运行ID
	Date      string    `json:"date"`                 // 运行日期
	Tenants   int       `json:"tenants"`              // 参与处理的租户数
	Sent      int       `json:"sent"`                 // 成功发送的消息数
	Failed    int       `json:"failed"`               // 失败数（含数据层故障和单条发送失败）
	WouldSend int       `json:"would_send,omitempty"` // dry-run下本应发送的消息数
	Skipped   SkipLists `json:"skipped"`              // 按原因分组的跳过名单
}

// ReportRunner 报表运行编排器
// 状态流转：枚举租户 → 逐租户 [门禁 → 聚合 → 渲染 → 发送] → 汇总
// 所有依赖显式注入，不使用全局客户端
type ReportRunner struct {
	db         *gorm.DB
	gate       *SendGate
	dispatcher Dispatcher
	logger     *zap.Logger
	topN       int
}

// NewReportRunner 创建报表运行编排器
func NewReportRunner(db *gorm.DB, gate *SendGate, dispatcher Dispatcher, logger *zap.Logger) *ReportRunner {
	return &ReportRunner{
		db:         db,
		gate:       gate,
		dispatcher: dispatcher,
		logger:     logger,
		topN:       defaultTopPerformers,
	}
}

// Run 执行一轮报表运行
// 只有租户枚举失败才返回error（此时什么都没做，调用方返回5xx）；
// 其余所有失败都隔离到单个租户/收件人，体现在汇总计数里
func (r *ReportRunner) Run(opts RunOptions) (*RunResult, error) {
	runID := uuid.NewString()
	result := &RunResult{
		RunID: runID,
		// 指定了时区过滤时，运行与该时区的傍晚对齐，日期也取该时区的本地日期
		Date: utils.LocalDate(opts.Timezone),
		Skipped: SkipLists{
			Weekend:     []string{},
			NoVisits:    []string{},
			AlreadySent: []string{},
			LockError:   []string{},
		},
	}

	query := r.db.Where("is_active = ?", true)
	if opts.Timezone != "" {
		query = query.Where("timezone = ?", opts.Timezone)
	}
	if len(opts.TenantIDs) > 0 {
		query = query.Where("id IN ?", opts.TenantIDs)
	}

	var tenants []models.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("枚举租户失败: %w", err)
	}
	result.Tenants = len(tenants)

	r.logger.Info("报表运行开始",
		zap.String("run_id", runID), zap.Int("tenants", len(tenants)),
		zap.Bool("force", opts.Force), zap.Bool("dry_run", opts.DryRun))

	for i := range tenants {
		r.processTenant(&tenants[i], opts, runID, result)
	}

	result.Success = true
	r.logger.Info("报表运行结束",
		zap.String("run_id", runID), zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed), zap.Int("would_send", result.WouldSend))
	return result, nil
}

// processTenant 处理单个租户：门禁 → 聚合 → 渲染 → 发送
// 任何失败只影响该租户，不会中断整轮运行；
// 发送锁一旦写入就代表"今天已尝试"，个别收件人失败不回滚锁，当天不再自动重试
func (r *ReportRunner) processTenant(tenant *models.Tenant, opts RunOptions, runID string, result *RunResult) {
	decision, err := r.gate.ShouldSend(tenant, opts.Force, opts.DryRun, runID)
	if err != nil {
		r.logger.Error("租户门禁检查失败，跳过",
			zap.String("run_id", runID), zap.String("tenant", tenant.Name), zap.Error(err))
		result.Failed++
		return
	}
	if !decision.Proceed {
		switch decision.Reason {
		case ReasonWeekend:
			result.Skipped.Weekend = append(result.Skipped.Weekend, tenant.Name)
		case ReasonNoVisits:
			result.Skipped.NoVisits = append(result.Skipped.NoVisits, tenant.Name)
		case ReasonAlreadySent:
			result.Skipped.AlreadySent = append(result.Skipped.AlreadySent, tenant.Name)
		case ReasonLockError:
			result.Skipped.LockError = append(result.Skipped.LockError, tenant.Name)
		}
		r.logger.Info("租户被门禁跳过",
			zap.String("run_id", runID), zap.String("tenant", tenant.Name),
			zap.String("reason", string(decision.Reason)))
		return
	}

	start, end := utils.LocalDayWindow(tenant.Timezone)
	var visits []models.Visit
	if err := r.db.Where("tenant_id = ? AND created_at >= ? AND created_at < ?",
		tenant.ID, start, end).Find(&visits).Error; err != nil {
		r.logger.Error("查询拜访记录失败，跳过租户",
			zap.String("run_id", runID), zap.String("tenant", tenant.Name), zap.Error(err))
		result.Failed++
		return
	}

	var roster []models.Salesman
	if err := r.db.Where("tenant_id = ? AND status = ?",
		tenant.ID, models.SalesmanStatusActive).Find(&roster).Error; err != nil {
		r.logger.Error("查询销售员花名册失败，跳过租户",
			zap.String("run_id", runID), zap.String("tenant", tenant.Name), zap.Error(err))
		result.Failed++
		return
	}

	statsBySalesman := Aggregate(visits)
	ranked := RankedStats(statsBySalesman)

	// 当日无活动的在职外勤销售员 = 花名册与统计结果的差集
	inactive := make([]string, 0)
	for _, s := range roster {
		if s.IsAdmin {
			continue
		}
		if _, ok := statsBySalesman[s.ID]; !ok {
			inactive = append(inactive, s.Name)
		}
	}

	// 先发外勤销售员的个人日报，再发管理员的团队日报
	for _, s := range roster {
		if s.IsAdmin {
			continue
		}
		stats, ok := statsBySalesman[s.ID]
		if !ok {
			continue
		}
		message := RenderSalesmanMessage(stats, tenant, decision.LocalDate)
		r.deliver(tenant, s.Name, s.Phone, message, opts, runID, result)
	}

	adminMessage := RenderAdminMessage(tenant, decision.LocalDate, ranked, inactive, r.topN)
	for _, s := range roster {
		if !s.IsAdmin {
			continue
		}
		r.deliver(tenant, s.Name, s.Phone, adminMessage, opts, runID, result)
	}
}

// deliver 把一条渲染好的消息投递给收件人
// 设置了收件人覆盖时，消息改发到覆盖名单里的每个号码；
// dry-run只记录预览不发送；失败计数后继续下一个收件人，本轮不重试
func (r *ReportRunner) deliver(tenant *models.Tenant, recipient string, phone string, message string, opts RunOptions, runID string, result *RunResult) {
	targets := []string{phone}
	if len(opts.Recipients) > 0 {
		targets = opts.Recipients
	}

	for _, target := range targets {
		if whatsapp.NormalizePhone(target) == "" {
			r.logger.Warn("收件人电话号码为空，跳过发送",
				zap.String("run_id", runID), zap.String("tenant", tenant.Name),
				zap.String("recipient", recipient))
			result.Failed++
			continue
		}

		if opts.DryRun {
			result.WouldSend++
			r.logger.Info("dry-run消息预览",
				zap.String("run_id", runID), zap.String("tenant", tenant.Name),
				zap.String("recipient", recipient), zap.String("to", whatsapp.NormalizePhone(target)),
				zap.String("message", message))
			continue
		}

		messageID, err := r.dispatcher.SendMessage(target, message)
		if err != nil {
			r.logger.Error("消息发送失败",
				zap.String("run_id", runID), zap.String("tenant", tenant.Name),
				zap.String("recipient", recipient), zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
		r.logger.Info("消息发送成功",
			zap.String("run_id", runID), zap.String("tenant", tenant.Name),
			zap.String("recipient", recipient), zap.String("message_id", messageID))
	}
}
