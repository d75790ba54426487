// Package analytics implements the metrics core of the Lavpop dashboard:
// Brazilian-format parsing, revenue aggregation, churn-risk scoring,
// weather-impact correlation, and growth-trend analysis.
//
// Every function here is a pure transformation: no clock reads, no I/O, no
// mutation of inputs. Time-relative calculations take the evaluation
// instant from the caller so results stay deterministic and testable.
// Malformed input never produces an error; rows degrade to sentinel
// values and are excluded from the views that cannot hold them.
package analytics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// ParseBrazilianDate parses "DD/MM/YYYY" or "DD/MM/YYYY HH:mm:ss" into a
// UTC time. A missing time component defaults to midnight; two-digit years
// are promoted to 20xx, matching the POS export. The second return is
// false when the input cannot be parsed; no input ever panics.
func ParseBrazilianDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	datePart := s
	timePart := "00:00:00"
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		datePart = s[:idx]
		timePart = strings.TrimSpace(s[idx+1:])
	}

	dp := strings.Split(datePart, "/")
	if len(dp) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(dp[0])
	month, err2 := strconv.Atoi(dp[1])
	year, err3 := strconv.Atoi(dp[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if len(dp[2]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	tp := strings.Split(timePart, ":")
	if len(tp) < 2 || len(tp) > 3 {
		return time.Time{}, false
	}
	hour, errH := strconv.Atoi(tp[0])
	min, errM := strconv.Atoi(tp[1])
	sec := 0
	var errS error
	if len(tp) == 3 {
		sec, errS = strconv.Atoi(tp[2])
	}
	if errH != nil || errM != nil || errS != nil {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	// Reject dates time.Date normalized away, e.g. 31/02.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// ParseBrazilianNumber parses decimal strings using comma as the fractional
// separator: "17,90" -> 17.90, "1.234,56" -> 1234.56. Non-numeric input
// yields 0.
func ParseBrazilianNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		// 1.234,56 style, dots are thousands separators
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, ","):
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeDocument reduces a customer document (CPF) to its canonical
// 11-digit form: non-digits stripped, left-padded with zeros, trimmed to
// the last 11 digits when longer. Two documents identify the same customer
// iff their normalized forms are equal. Empty input stays empty.
func NormalizeDocument(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) > 11 {
		return digits[len(digits)-11:]
	}
	return strings.Repeat("0", 11-len(digits)) + digits
}

var machineCountRe = regexp.MustCompile(`:\s*(\d+)`)

// CountMachineUsage tokenizes the free-text machine field and counts cycles
// per service type. "Lavadora:3" adds 3 wash cycles, a bare "Lavadora"
// mention adds 1; same for "Secadora" (dry). "Recarga" is a wallet top-up
// and is tracked on its own counter, never as wash or dry. Unrecognized
// text yields all zeros.
func CountMachineUsage(s string) domain.MachineUsage {
	var usage domain.MachineUsage
	if s == "" {
		return usage
	}

	for _, token := range strings.Split(strings.ToLower(s), ",") {
		n := 1
		if m := machineCountRe.FindStringSubmatch(token); m != nil {
			if parsed, err := strconv.Atoi(m[1]); err == nil {
				n = parsed
			}
		}
		switch {
		case strings.Contains(token, "recarga"):
			usage.Recarga += n
		case strings.Contains(token, "lavadora"):
			usage.Wash += n
		case strings.Contains(token, "secadora"):
			usage.Dry += n
		}
	}
	return usage
}
