package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldreport/models"
)

var testTenant = &models.Tenant{
	ID:             1,
	Name:           "Acme Traders",
	Timezone:       "Asia/Kolkata",
	CurrencySymbol: "₹",
	CurrencyCode:   "INR",
}

func scenarioStats() *DailyStats {
	return &DailyStats{
		SalesmanID:      10,
		SalesmanName:    "Ramesh",
		Personal:        ChannelStats{Count: 2, Revenue: decimal.NewFromInt(460000)},
		Telephone:       ChannelStats{Count: 43, Revenue: decimal.NewFromInt(1000000)},
		TotalVisits:     45,
		TotalRevenue:    decimal.NewFromInt(1460000),
		NewCustomers:    1,
		RepeatCustomers: 44,
		Branch:          "Pune",
	}
}

func TestRenderSalesmanMessageScenario(t *testing.T) {
	msg := RenderSalesmanMessage(scenarioStats(), testTenant, "2026-08-28")

	assert.Contains(t, msg, "28 Aug 2026")
	assert.Contains(t, msg, "Ramesh")
	assert.Contains(t, msg, "Acme Traders")
	// 平均值：460000/2 和 1000000/43（四舍五入）
	assert.Contains(t, msg, "avg ₹230,000")
	assert.Contains(t, msg, "avg ₹23,256")
	assert.Contains(t, msg, "₹1,460,000")
	assert.Contains(t, msg, "Branch: Pune")
	// 43 > 2*2，辅导提示必须出现
	assert.Contains(t, msg, "balance with more personal visits")
}

func TestRenderSalesmanMessageIsPure(t *testing.T) {
	first := RenderSalesmanMessage(scenarioStats(), testTenant, "2026-08-28")
	second := RenderSalesmanMessage(scenarioStats(), testTenant, "2026-08-28")
	assert.Equal(t, first, second)
}

func TestRenderSalesmanMessageSkipsAverageForEmptyChannel(t *testing.T) {
	stats := &DailyStats{
		SalesmanName: "Ramesh",
		Personal:     ChannelStats{Revenue: decimal.Zero},
		Telephone:    ChannelStats{Count: 3, Revenue: decimal.NewFromInt(300)},
		TotalVisits:  3,
		TotalRevenue: decimal.NewFromInt(300),
	}
	msg := RenderSalesmanMessage(stats, testTenant, "2026-08-28")

	// 当面拜访次数为0：不输出平均值行，避免误导性的"₹0 avg"
	personalLine := extractLineAfter(t, msg, "Personal visits: 0")
	assert.NotContains(t, personalLine, "avg")
	telephoneLine := extractLineAfter(t, msg, "Telephone calls: 3")
	assert.Contains(t, telephoneLine, "avg ₹100")
}

func TestRenderSalesmanMessageNoCoachingLineWhenBalanced(t *testing.T) {
	stats := &DailyStats{
		SalesmanName: "Ramesh",
		Personal:     ChannelStats{Count: 5, Revenue: decimal.NewFromInt(100)},
		Telephone:    ChannelStats{Count: 10, Revenue: decimal.NewFromInt(100)},
		TotalVisits:  15,
		TotalRevenue: decimal.NewFromInt(200),
	}
	// 10 == 2*5，不触发提示（必须严格大于）
	msg := RenderSalesmanMessage(stats, testTenant, "2026-08-28")
	assert.NotContains(t, msg, "balance with more personal visits")
}

func TestRenderAdminMessageMedalsAndTotals(t *testing.T) {
	ranked := []*DailyStats{
		{SalesmanID: 1, SalesmanName: "Ramesh", TotalRevenue: decimal.NewFromInt(400), TotalVisits: 4,
			Personal: ChannelStats{Count: 2, Revenue: decimal.NewFromInt(300)}, Telephone: ChannelStats{Count: 2, Revenue: decimal.NewFromInt(100)}},
		{SalesmanID: 2, SalesmanName: "Sita", TotalRevenue: decimal.NewFromInt(300), TotalVisits: 3,
			Personal: ChannelStats{Count: 3, Revenue: decimal.NewFromInt(300)}, Telephone: ChannelStats{Revenue: decimal.Zero}},
		{SalesmanID: 3, SalesmanName: "Arjun", TotalRevenue: decimal.NewFromInt(200), TotalVisits: 2,
			Personal: ChannelStats{Revenue: decimal.Zero}, Telephone: ChannelStats{Count: 2, Revenue: decimal.NewFromInt(200)}},
		{SalesmanID: 4, SalesmanName: "Kiran", TotalRevenue: decimal.NewFromInt(100), TotalVisits: 1,
			Personal: ChannelStats{Count: 1, Revenue: decimal.NewFromInt(100)}, Telephone: ChannelStats{Revenue: decimal.Zero}},
	}

	msg := RenderAdminMessage(testTenant, "2026-08-28", ranked, nil, 4)

	assert.Contains(t, msg, "Team Daily Report — Acme Traders")
	assert.Contains(t, msg, "28 Aug 2026")
	assert.Contains(t, msg, "Active salesmen: 4")
	assert.Contains(t, msg, "Total revenue: ₹1,000")
	assert.Contains(t, msg, "🥇 Ramesh")
	assert.Contains(t, msg, "🥈 Sita")
	assert.Contains(t, msg, "🥉 Arjun")
	// 第4名之后使用普通标记
	assert.Contains(t, msg, "▪️ Kiran")
}

func TestRenderAdminMessageAlertTruncation(t *testing.T) {
	inactive := []string{"A", "B", "C", "D", "E"}
	msg := RenderAdminMessage(testTenant, "2026-08-28", nil, inactive, 3)

	assert.Contains(t, msg, "Attention required")
	assert.Contains(t, msg, "• A")
	assert.Contains(t, msg, "• B")
	assert.Contains(t, msg, "• C")
	assert.NotContains(t, msg, "• D")
	assert.Contains(t, msg, "+2 more")
}

func TestRenderAdminMessageIsPure(t *testing.T) {
	ranked := []*DailyStats{
		{SalesmanID: 1, SalesmanName: "Ramesh", TotalRevenue: decimal.NewFromInt(400), TotalVisits: 4,
			Personal: ChannelStats{Count: 4, Revenue: decimal.NewFromInt(400)}, Telephone: ChannelStats{Revenue: decimal.Zero}},
	}
	first := RenderAdminMessage(testTenant, "2026-08-28", ranked, []string{"X"}, 3)
	second := RenderAdminMessage(testTenant, "2026-08-28", ranked, []string{"X"}, 3)
	assert.Equal(t, first, second)
}

func TestFormatReportDate(t *testing.T) {
	assert.Equal(t, "28 Aug 2026", FormatReportDate("2026-08-28"))
	assert.Equal(t, "2 Jan 2026", FormatReportDate("2026-01-02"))
	// 无法解析时原样返回，渲染不报错
	assert.Equal(t, "not-a-date", FormatReportDate("not-a-date"))
}

// extractLineAfter 返回包含marker的行
func extractLineAfter(t *testing.T, msg string, marker string) string {
	t.Helper()
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		if strings.Contains(line, marker) {
			require.Less(t, i+1, len(lines))
			return lines[i+1]
		}
	}
	t.Fatalf("marker %q not found in message:\n%s", marker, msg)
	return ""
}
