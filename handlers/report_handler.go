package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fieldreport/services"
)

// ReportHandler 报表触发接口处理器
// 依赖通过构造函数注入，不使用全局服务客户端
type ReportHandler struct {
	runner *services.ReportRunner
	logger *zap.Logger
}

// NewReportHandler 创建报表处理器
func NewReportHandler(runner *services.ReportRunner, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{runner: runner, logger: logger}
}

// Health 存活探针
// 返回静态JSON，供负载均衡和调度平台探测
func (h *ReportHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"service": "fieldreport",
		"version": "1.0.0",
	})
}

// SendDailySummaries 执行一轮每日报表发送
// GET /cron/send-daily-summaries?tz=<iana>&force=<bool>
// tz用于把触发时间对齐到租户本地傍晚：只处理该时区字符串精确匹配的租户
// force=true 跳过当日发送锁，但周末和无拜访检查仍然生效
func (h *ReportHandler) SendDailySummaries(c *fiber.Ctx) error {
	opts := services.RunOptions{
		Timezone: c.Query("tz"),
		Force:    c.QueryBool("force", false),
	}

	result, err := h.runner.Run(opts)
	if err != nil {
		// 租户枚举失败是唯一的致命错误：什么都没做，如实返回5xx
		h.logger.Error("报表运行失败", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(result)
}

// dryRunRequest dry-run请求体（整体可选）
type dryRunRequest struct {
	Timezone   string   `json:"tz"`         // 按时区过滤租户
	Force      bool     `json:"force"`      // 连锁状态探测也跳过
	TenantIDs  []uint   `json:"tenant_ids"` // 只处理指定租户
	Recipients []string `json:"recipients"` // 收件人覆盖名单
}

// DryRun 空跑一轮报表流程做发布前验证
// POST /test/dry-run
// 与正式运行走同一条流水线，但不落发送锁（改为只读探测）、不真正发消息（只记录预览）
// 返回正式运行的汇总结构，外加 would_send 与按原因分组的 skip_reasons
func (h *ReportHandler) DryRun(c *fiber.Ctx) error {
	var req dryRunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "参数解析失败: " + err.Error(),
			})
		}
	}

	opts := services.RunOptions{
		Timezone:   req.Timezone,
		Force:      req.Force,
		DryRun:     true,
		TenantIDs:  req.TenantIDs,
		Recipients: req.Recipients,
	}

	result, err := h.runner.Run(opts)
	if err != nil {
		h.logger.Error("dry-run运行失败", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":      result.Success,
		"run_id":       result.RunID,
		"date":         result.Date,
		"tenants":      result.Tenants,
		"would_send":   result.WouldSend,
		"failed":       result.Failed,
		"skip_reasons": result.Skipped,
	})
}
