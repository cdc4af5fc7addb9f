package domain

import (
	"time"

	"github.com/wyfcoding/pkg/utils"
)

// TradeDateLayout 交易日期的线格式 YYYYMMDD。
const TradeDateLayout = "20060102"

// ParseTradeDate 解析 YYYYMMDD 交易日期。
func ParseTradeDate(s string) (time.Time, error) {
	return time.Parse(TradeDateLayout, s)
}

// FormatTradeDate 格式化为 YYYYMMDD。
func FormatTradeDate(t time.Time) string {
	return t.Format(TradeDateLayout)
}

// Calendar 营业日历。实现方决定节假日来源。
type Calendar interface {
	IsBusinessDay(t time.Time) bool
}

// TradingCalendar 基于平台节假日表（周末 + 法定节假日/调休补班）的日历实现。
type TradingCalendar struct{}

// IsBusinessDay 是否营业日
func (TradingCalendar) IsBusinessDay(t time.Time) bool {
	return !utils.IsHoliday(t)
}

// AddBusinessDays 从 t 起顺延 n 个营业日（T+N 交收日计算）。
func AddBusinessDays(cal Calendar, t time.Time, n int) time.Time {
	d := t
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if cal.IsBusinessDay(d) {
			added++
		}
	}
	return d
}
