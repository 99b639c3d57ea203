package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyTime     = errors.New("empty time")
	ErrInvalidTime   = errors.New("invalid time")
	ErrInvalidOffset = errors.New("invalid offset")
)

// ParseClock parses a manual "HH:MM" entry into an instant on the same local
// calendar day as now.
func ParseClock(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyTime
	}
	h, m, err := parseHHMM(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidTime, s, err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()), nil
}

func parseHHMM(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, errors.New("invalid minute")
	}
	return h, m, nil
}

// ParseOffset parses "[-]MM[:SS]" into signed minutes and seconds.
// The sign applies to both parts, so "-4:30" is four and a half minutes before sunrise.
func ParseOffset(s string) (minutes, seconds int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrInvalidOffset)
	}
	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	mm, ss, hasSec := strings.Cut(s, ":")
	minutes, err = strconv.Atoi(mm)
	if err != nil || minutes < 0 {
		return 0, 0, fmt.Errorf("%w: minutes %q", ErrInvalidOffset, mm)
	}
	if hasSec {
		seconds, err = strconv.Atoi(ss)
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, 0, fmt.Errorf("%w: seconds %q", ErrInvalidOffset, ss)
		}
	}
	return sign * minutes, sign * seconds, nil
}

// FormatOffset renders a stage offset as "[-]MM:SS".
func FormatOffset(s StageDefinition) string {
	total := s.OffsetMinutes*60 + s.OffsetSeconds
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}

// FormatCountdown returns HH:MM:SS, truncating sub-second remainders.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatClock formats t in local time as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04:05")
}
