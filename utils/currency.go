package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney 将金额格式化为带千位分隔符的货币字符串
// 金额四舍五入到整数单位，例如 FormatMoney(230000, "₹") => "₹230,000"
// 报表中所有货币数字都必须经过这里，保证同一租户内格式一致
func FormatMoney(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().BigInt().String()

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString(symbol)

	// 从最高位开始按3位一组插入分隔符
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
