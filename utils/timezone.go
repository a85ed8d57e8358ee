package utils

import (
	"log"
	"time"
)

// TenantLocation 解析租户配置的IANA时区
// 时区字符串为空或无法解析时降级使用UTC，只记录日志不向调用方报错，
// 保证报表流程不会因为个别租户的脏配置而中断
func TenantLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("时区解析失败，降级使用UTC（日期可能偏差一个时区偏移量）: %q: %v", timezone, err)
		return time.UTC
	}
	return loc
}

// LocalDateAt 返回指定时刻在指定时区下的日历日期（YYYY-MM-DD）
func LocalDateAt(timezone string, at time.Time) string {
	return at.In(TenantLocation(timezone)).Format("2006-01-02")
}

// LocalDate 返回当前时刻在指定时区下的日历日期（YYYY-MM-DD）
func LocalDate(timezone string) string {
	return LocalDateAt(timezone, time.Now())
}

// LocalWeekdayAt 返回指定时刻在指定时区下的星期索引（0=周日..6=周六）
func LocalWeekdayAt(timezone string, at time.Time) int {
	return int(at.In(TenantLocation(timezone)).Weekday())
}

// LocalWeekday 返回当前时刻在指定时区下的星期索引（0=周日..6=周六）
func LocalWeekday(timezone string) int {
	return LocalWeekdayAt(timezone, time.Now())
}

// LocalDayWindowAt 返回指定时刻所在的租户本地日历日对应的UTC时间区间
// 区间为左闭右开 [当日00:00, 次日00:00)，直接用于拜访记录的时间过滤
func LocalDayWindowAt(timezone string, at time.Time) (time.Time, time.Time) {
	loc := TenantLocation(timezone)
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// LocalDayWindow 返回当前租户本地日历日对应的UTC时间区间
func LocalDayWindow(timezone string) (time.Time, time.Time) {
	return LocalDayWindowAt(timezone, time.Now())
}
