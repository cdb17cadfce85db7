// Package utils provides common utility functions for futuresagent.
package utils

import (
	"time"
)

// CST is China Standard Time (UTC+8), the clock of all domestic futures exchanges.
var CST *time.Location

func init() {
	var err error
	CST, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		CST = time.FixedZone("CST", 8*60*60)
	}
}

// NowCST returns the current time in CST.
func NowCST() time.Time {
	return time.Now().In(CST)
}

// Session is a continuous trading window within one day.
type Session struct {
	Name       string
	Start, End time.Duration // offsets from midnight
}

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// Commodity day sessions. The 10:15-10:30 break applies to commodities only.
var commoditySessions = []Session{
	{Name: "morning-1", Start: hm(9, 0), End: hm(10, 15)},
	{Name: "morning-2", Start: hm(10, 30), End: hm(11, 30)},
	{Name: "afternoon", Start: hm(13, 30), End: hm(15, 0)},
	{Name: "night", Start: hm(21, 0), End: hm(23, 0)},
}

// CFFEX stock-index futures trade without a night session.
var financialSessions = []Session{
	{Name: "morning", Start: hm(9, 30), End: hm(11, 30)},
	{Name: "afternoon", Start: hm(13, 0), End: hm(15, 0)},
}

// Sessions returns the trading sessions for a commodity or financial future.
// Night-session hours differ per variety; 21:00-23:00 is the common window.
func Sessions(financial bool) []Session {
	if financial {
		return financialSessions
	}
	return commoditySessions
}

// IsTradingDay checks if the given date is a trading day (not weekend, not holiday).
func IsTradingDay(t time.Time) bool {
	t = t.In(CST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// IsTradingHoliday checks if the given date is an exchange holiday.
// This list should be updated annually.
func IsTradingHoliday(t time.Time) bool {
	_, ok := holidays2026[t.In(CST).Format("2006-01-02")]
	return ok
}

// Exchange holidays for 2026 (weekdays only).
var holidays2026 = map[string]string{
	"2026-01-01": "元旦",
	"2026-01-02": "元旦",
	"2026-02-16": "春节",
	"2026-02-17": "春节",
	"2026-02-18": "春节",
	"2026-02-19": "春节",
	"2026-02-20": "春节",
	"2026-02-23": "春节",
	"2026-04-06": "清明节",
	"2026-05-01": "劳动节",
	"2026-05-04": "劳动节",
	"2026-05-05": "劳动节",
	"2026-06-19": "端午节",
	"2026-09-25": "中秋节",
	"2026-10-01": "国庆节",
	"2026-10-02": "国庆节",
	"2026-10-05": "国庆节",
	"2026-10-06": "国庆节",
	"2026-10-07": "国庆节",
}

// IsMarketOpenAt checks if the given variety class would be trading at t.
func IsMarketOpenAt(t time.Time, financial bool) bool {
	t = t.In(CST)
	if !IsTradingDay(t) {
		return false
	}
	offset := t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, CST))
	for _, s := range Sessions(financial) {
		if offset >= s.Start && offset < s.End {
			return true
		}
	}
	return false
}

// MarketStatus returns a human-readable market status at t.
func MarketStatus(t time.Time, financial bool) string {
	t = t.In(CST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "休市 (周末)"
	}
	if name, ok := holidays2026[t.Format("2006-01-02")]; ok {
		return "休市 (" + name + ")"
	}
	if IsMarketOpenAt(t, financial) {
		return "交易中"
	}
	return "非交易时段"
}

// LastTradingDay returns t if it is a trading day, otherwise the previous one.
func LastTradingDay(t time.Time) time.Time {
	d := t.In(CST)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// FormatDateTimeCST formats a time.Time to "2006-01-02 15:04:05".
func FormatDateTimeCST(t time.Time) string {
	return t.In(CST).Format("2006-01-02 15:04:05")
}

// FileStamp formats t as "20060102_150405" for report file names.
func FileStamp(t time.Time) string {
	return t.In(CST).Format("20060102_150405")
}
