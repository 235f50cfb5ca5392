package util

import (
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ValidMonth reports whether m is in 1..12.
func ValidMonth(m int) bool { return m >= 1 && m <= 12 }

// MonthName returns the lowercase English month name, or "" for invalid months.
func MonthName(m int) string {
	if !ValidMonth(m) {
		return ""
	}
	return monthNames[m-1]
}

// Season returns the meteorological northern-hemisphere season of a month.
func Season(m int) string {
	switch m {
	case 12, 1, 2:
		return "winter"
	case 3, 4, 5:
		return "spring"
	case 6, 7, 8:
		return "summer"
	case 9, 10, 11:
		return "autumn"
	}
	return ""
}

// Quarter returns q1..q4.
func Quarter(m int) string {
	if !ValidMonth(m) {
		return ""
	}
	return "q" + strconv.Itoa((m-1)/3+1)
}

// PeriodKeys lists the correction keys that can match a month, most specific first.
func PeriodKeys(m int) []string {
	if !ValidMonth(m) {
		return nil
	}
	return []string{MonthName(m), Season(m), Quarter(m)}
}

// ParseMonth accepts "3", "03", "march" or "mar".
func ParseMonth(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, ValidMonth(n)
	}
	for i, name := range monthNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return i + 1, true
		}
	}
	return 0, false
}

// MonthOrCurrent returns m when valid, otherwise the month of now.
func MonthOrCurrent(m int, now time.Time) int {
	if ValidMonth(m) {
		return m
	}
	return int(now.Month())
}
