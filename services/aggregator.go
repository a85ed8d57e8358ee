package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"fieldreport/models"
)

// ChannelStats 单个渠道（当面/电话）的活动统计
type ChannelStats struct {
	Count   int             `json:"count"`   // 活动次数
	Revenue decimal.Decimal `json:"revenue"` // 订单金额合计
}

// Average 返回该渠道的单笔平均金额
// 次数为0时返回false，调用方必须据此跳过平均值展示，绝不允许除零
func (c ChannelStats) Average() (decimal.Decimal, bool) {
	if c.Count == 0 {
		return decimal.Zero, false
	}
	return c.Revenue.Div(decimal.NewFromInt(int64(c.Count))), true
}

// DailyStats 单个销售员在一个租户本地日期内的活动统计
// 由拜访记录即时计算得出，不落库
type DailyStats struct {
	SalesmanID      uint            `json:"salesman_id"`      // 销售员ID
	SalesmanName    string          `json:"salesman_name"`    // 销售员姓名
	Personal        ChannelStats    `json:"personal"`         // 当面拜访统计
	Telephone       ChannelStats    `json:"telephone"`        // 电话拜访统计
	TotalVisits     int             `json:"total_visits"`     // 总活动次数
	TotalRevenue    decimal.Decimal `json:"total_revenue"`    // 总订单金额
	NewCustomers    int             `json:"new_customers"`    // 新客户拜访次数
	RepeatCustomers int             `json:"repeat_customers"` // 老客户拜访次数
	Branch          string          `json:"branch"`           // 多数票归属的分支机构，平票取名称字典序最小者
	branchVotes     map[string]int
}

func newDailyStats(v models.Visit) *DailyStats {
	return &DailyStats{
		SalesmanID:   v.SalesmanID,
		SalesmanName: v.SalesmanName,
		TotalRevenue: decimal.Zero,
		Personal:     ChannelStats{Revenue: decimal.Zero},
		Telephone:    ChannelStats{Revenue: decimal.Zero},
		branchVotes:  make(map[string]int),
	}
}

// Aggregate 把一组拜访记录归并为按销售员分组的当日统计
// 渠道为telephone的记入电话桶，其余一律记入当面桶；缺失的订单金额按0处理
// 除分支机构平票规则外，输出与输入顺序无关
func Aggregate(visits []models.Visit) map[uint]*DailyStats {
	statsBySalesman := make(map[uint]*DailyStats)

	for _, v := range visits {
		stats, ok := statsBySalesman[v.SalesmanID]
		if !ok {
			stats = newDailyStats(v)
			statsBySalesman[v.SalesmanID] = stats
		}

		revenue := v.OrderValue
		if v.Channel == models.ChannelTelephone {
			stats.Telephone.Count++
			stats.Telephone.Revenue = stats.Telephone.Revenue.Add(revenue)
		} else {
			stats.Personal.Count++
			stats.Personal.Revenue = stats.Personal.Revenue.Add(revenue)
		}

		stats.TotalVisits++
		stats.TotalRevenue = stats.TotalRevenue.Add(revenue)

		if v.IsNewCustomer {
			stats.NewCustomers++
		} else {
			stats.RepeatCustomers++
		}

		if v.Branch != "" {
			stats.branchVotes[v.Branch]++
		}
	}

	for _, stats := range statsBySalesman {
		stats.Branch = majorityBranch(stats.branchVotes)
	}

	return statsBySalesman
}

// majorityBranch 按多数票选出分支机构
// 平票时取名称字典序最小的分支，保证结果与录入顺序无关
func majorityBranch(votes map[string]int) string {
	best := ""
	bestCount := 0
	for branch, count := range votes {
		if count > bestCount || (count == bestCount && (best == "" || branch < best)) {
			best = branch
			bestCount = count
		}
	}
	return best
}

// RankedStats 把统计结果按业绩排名返回
// 排序规则：总金额降序，平手按总活动次数降序，再平手按销售员ID升序（保证确定性）
func RankedStats(statsBySalesman map[uint]*DailyStats) []*DailyStats {
	ranked := make([]*DailyStats, 0, len(statsBySalesman))
	for _, stats := range statsBySalesman {
		ranked = append(ranked, stats)
	}
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].TotalRevenue.Cmp(ranked[j].TotalRevenue)
		if cmp != 0 {
			return cmp > 0
		}
		if ranked[i].TotalVisits != ranked[j].TotalVisits {
			return ranked[i].TotalVisits > ranked[j].TotalVisits
		}
		return ranked[i].SalesmanID < ranked[j].SalesmanID
	})
	return ranked
}

// TopPerformers 返回业绩排名前limit位的销售员
func TopPerformers(statsBySalesman map[uint]*DailyStats, limit int) []*DailyStats {
	ranked := RankedStats(statsBySalesman)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
