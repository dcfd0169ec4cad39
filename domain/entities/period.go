package entities

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout selects how a period label is rendered as a folder path
type Layout string

const (
	// LayoutDay renders YYYYMMDD
	LayoutDay Layout = "day"
	// LayoutMonth renders YYYY/MM
	LayoutMonth Layout = "month"
	// LayoutStamped renders YYYY년MM월_홈택스신고자료_YYYYMMDD_HHMMSS
	LayoutStamped Layout = "stamped"
)

// ParseLayout returns the layout named by s
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutDay, "":
		return LayoutDay, nil
	case LayoutMonth:
		return LayoutMonth, nil
	case LayoutStamped:
		return LayoutStamped, nil
	}
	return "", fmt.Errorf("unknown folder layout %q (want day, month or stamped)", s)
}

// Period is the year/month (and optional day) an output belongs to,
// or a free identifier when the operator entered something else.
type Period struct {
	Year       int
	Month      int
	Day        int
	Identifier string
}

var (
	periodDigits = regexp.MustCompile(`^\d{4}[-./]?\d{2}([-./]?\d{2})?$`)
	unsafeLabel  = regexp.MustCompile(`[\\/:*?"<>|]+`)
)

// ParsePeriod reads YYYY-MM, YYYYMM, YYYY-MM-DD or YYYYMMDD (any of - . / as separator).
// Blank input means today; anything else is kept as an identifier.
func ParsePeriod(input string, now time.Time) Period {
	s := strings.TrimSpace(input)
	if s == "" {
		return Period{Year: now.Year(), Month: int(now.Month()), Day: now.Day()}
	}
	if periodDigits.MatchString(s) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, s)
		year, _ := strconv.Atoi(digits[:4])
		month, _ := strconv.Atoi(digits[4:6])
		day := 0
		if len(digits) == 8 {
			day, _ = strconv.Atoi(digits[6:8])
		}
		if month >= 1 && month <= 12 && day >= 0 && day <= 31 {
			return Period{Year: year, Month: month, Day: day}
		}
	}
	return Period{Identifier: s}
}

// IsIdentifier reports whether the period is a free identifier
func (p Period) IsIdentifier() bool {
	return p.Identifier != ""
}

// Label renders the folder path for the period, relative to the base directory
func (p Period) Label(layout Layout, now time.Time) string {
	if p.IsIdentifier() {
		label := strings.Trim(unsafeLabel.ReplaceAllString(p.Identifier, "_"), ". ")
		if label == "" {
			return "unlabelled"
		}
		return label
	}
	switch layout {
	case LayoutMonth:
		return filepath.Join(fmt.Sprintf("%04d", p.Year), fmt.Sprintf("%02d", p.Month))
	case LayoutStamped:
		return fmt.Sprintf("%04d년%02d월_홈택스신고자료_%s", p.Year, p.Month, now.Format("20060102_150405"))
	default:
		if p.Day == 0 {
			return fmt.Sprintf("%04d%02d", p.Year, p.Month)
		}
		return fmt.Sprintf("%04d%02d%02d", p.Year, p.Month, p.Day)
	}
}

func (p Period) String() string {
	switch {
	case p.IsIdentifier():
		return p.Identifier
	case p.Day == 0:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
	}
}
