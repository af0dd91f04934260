package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sitestock-backend/internal/domains/movement/model"
)

var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// ParseDate converts a DD/MM/YY or DD/MM/YYYY date to ISO YYYY-MM-DD.
// Two-digit years below 50 map to 20xx, the rest to 19xx. Impossible
// calendar dates are rejected rather than normalized.
func ParseDate(input string) (string, error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q, expected DD/MM/YY", model.ErrInvalidDate, input)
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", fmt.Errorf("%w: %q, expected DD/MM/YY", model.ErrInvalidDate, input)
	}

	switch {
	case len(strings.TrimSpace(parts[2])) <= 2:
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	case year < 1900 || year > 2100:
		return "", fmt.Errorf("%w: year %d out of range", model.ErrInvalidDate, year)
	}

	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: month %d", model.ErrInvalidDate, month)
	}
	maxDay := daysInMonth[month]
	if month == 2 && isLeapYear(year) {
		maxDay = 29
	}
	if day < 1 || day > maxDay {
		return "", fmt.Errorf("%w: day %d in month %d", model.ErrInvalidDate, day, month)
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

// TodayISO is the default stocktake date when none is given.
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}
