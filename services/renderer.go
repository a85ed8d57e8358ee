package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fieldreport/models"
	"fieldreport/utils"
)

// 管理员报表中"需要关注"名单的最大展示条数，超出部分折叠为 +N more
const alertListLimit = 3

// 排名前三名使用奖牌标记，之后使用普通标记
var rankMarkers = []string{"🥇", "🥈", "🥉"}

// FormatReportDate 把租户本地日期（YYYY-MM-DD）转为报表展示格式，例如 "28 Aug 2026"
// 日期标签必须使用租户本地日期，绝不使用触发请求的UTC日期，
// 否则落后/超前UTC的时区会看到差一天的标题
func FormatReportDate(localDate string) string {
	t, err := time.Parse("2006-01-02", localDate)
	if err != nil {
		return localDate
	}
	return t.Format("2 Jan 2006")
}

// RenderSalesmanMessage 渲染发给外勤销售员的个人业绩日报
// 纯格式化函数：相同输入必须产生逐字节相同的输出（测试和dry-run预览依赖这一点）
func RenderSalesmanMessage(stats *DailyStats, tenant *models.Tenant, localDate string) string {
	symbol := tenant.CurrencySymbol
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Daily Report — %s\n\n", FormatReportDate(localDate))
	fmt.Fprintf(&b, "Hi %s, here is your summary for %s:\n\n", stats.SalesmanName, tenant.Name)

	fmt.Fprintf(&b, "🤝 Personal visits: %d\n", stats.Personal.Count)
	writeChannelRevenue(&b, stats.Personal, symbol)
	fmt.Fprintf(&b, "📞 Telephone calls: %d\n", stats.Telephone.Count)
	writeChannelRevenue(&b, stats.Telephone, symbol)

	fmt.Fprintf(&b, "\n🧾 Total: %d activities, %s\n", stats.TotalVisits, utils.FormatMoney(stats.TotalRevenue, symbol))
	fmt.Fprintf(&b, "🆕 New customers: %d | Repeat: %d\n", stats.NewCustomers, stats.RepeatCustomers)
	if stats.Branch != "" {
		fmt.Fprintf(&b, "🏭 Branch: %s\n", stats.Branch)
	}

	// 辅导提示：电话拜访超过当面拜访两倍时提醒平衡节奏
	// 这是展示层的启发式建议，不是业务硬规则
	if stats.Telephone.Count > 2*stats.Personal.Count {
		b.WriteString("\n💡 Tip: try to balance with more personal visits.\n")
	}

	b.WriteString("\nKeep it up! 💪")
	return b.String()
}

// writeChannelRevenue 输出单渠道的金额行
// 平均值只在该渠道次数大于0时展示，避免除零和误导性的"0平均"行
func writeChannelRevenue(b *strings.Builder, channel ChannelStats, symbol string) {
	if avg, ok := channel.Average(); ok {
		fmt.Fprintf(b, "   Revenue: %s (avg %s)\n", utils.FormatMoney(channel.Revenue, symbol), utils.FormatMoney(avg, symbol))
		return
	}
	fmt.Fprintf(b, "   Revenue: %s\n", utils.FormatMoney(channel.Revenue, symbol))
}

// RenderAdminMessage 渲染发给租户管理员的团队日报
// ranked 必须是 RankedStats 的输出（业绩降序）；inactive 是当日无活动的在职外勤销售员名单，
// 由调用方用花名册与统计结果的差集算出，聚合器本身不负责补零行
func RenderAdminMessage(tenant *models.Tenant, localDate string, ranked []*DailyStats, inactive []string, topN int) string {
	symbol := tenant.CurrencySymbol
	var b strings.Builder

	fmt.Fprintf(&b, "📈 Team Daily Report — %s\n", tenant.Name)
	fmt.Fprintf(&b, "🗓 %s\n\n", FormatReportDate(localDate))

	personal := ChannelStats{Revenue: decimal.Zero}
	telephone := ChannelStats{Revenue: decimal.Zero}
	totalRevenue := decimal.Zero
	newCustomers := 0
	for _, stats := range ranked {
		personal.Count += stats.Personal.Count
		personal.Revenue = personal.Revenue.Add(stats.Personal.Revenue)
		telephone.Count += stats.Telephone.Count
		telephone.Revenue = telephone.Revenue.Add(stats.Telephone.Revenue)
		totalRevenue = totalRevenue.Add(stats.TotalRevenue)
		newCustomers += stats.NewCustomers
	}

	fmt.Fprintf(&b, "👥 Active salesmen: %d\n", len(ranked))
	fmt.Fprintf(&b, "🤝 Personal visits: %d (%s)\n", personal.Count, utils.FormatMoney(personal.Revenue, symbol))
	fmt.Fprintf(&b, "📞 Telephone calls: %d (%s)\n", telephone.Count, utils.FormatMoney(telephone.Revenue, symbol))
	fmt.Fprintf(&b, "💰 Total revenue: %s\n", utils.FormatMoney(totalRevenue, symbol))
	fmt.Fprintf(&b, "🆕 New customers: %d\n", newCustomers)

	if len(ranked) > 0 {
		b.WriteString("\n🏆 Top performers:\n")
		limit := topN
		if limit <= 0 || limit > len(ranked) {
			limit = len(ranked)
		}
		for i := 0; i < limit; i++ {
			marker := "▪️"
			if i < len(rankMarkers) {
				marker = rankMarkers[i]
			}
			stats := ranked[i]
			fmt.Fprintf(&b, "%s %s — %s (%d activities)\n",
				marker, stats.SalesmanName, utils.FormatMoney(stats.TotalRevenue, symbol), stats.TotalVisits)
		}
	}

	if len(inactive) > 0 {
		b.WriteString("\n⚠️ Attention required (no activity today):\n")
		shown := len(inactive)
		if shown > alertListLimit {
			shown = alertListLimit
		}
		for _, name := range inactive[:shown] {
			fmt.Fprintf(&b, "• %s\n", name)
		}
		if rest := len(inactive) - shown; rest > 0 {
			fmt.Fprintf(&b, "+%d more\n", rest)
		}
	}

	return b.String()
}
