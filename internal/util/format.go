package util

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lestrrat-go/strftime"
)

// TimeFormatter renders a modification time for output.
type TimeFormatter func(time.Time) string

// FormatCtime renders t in local time using the ctime(3) layout,
// e.g. "Wed Jun 30 21:49:08 1993".
func FormatCtime(t time.Time) string {
	return t.Local().Format(time.ANSIC)
}

// FormatEpoch renders t as integer seconds since the Unix epoch.
func FormatEpoch(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// FormatRelative renders t relative to now, e.g. "3 hours ago".
func FormatRelative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// RelativeTo returns a formatter that renders times relative to now.
func RelativeTo(now time.Time) TimeFormatter {
	return func(t time.Time) string {
		return FormatRelative(t, now)
	}
}

// glibcVerbs fills in strftime(3) conversions the library does not ship.
var glibcVerbs = map[byte]strftime.Appender{
	's': strftime.AppendFunc(func(b []byte, t time.Time) []byte {
		return strconv.AppendInt(b, t.Unix(), 10)
	}),
	'P': strftime.AppendFunc(func(b []byte, t time.Time) []byte {
		return t.AppendFormat(b, "pm")
	}),
	'G': strftime.AppendFunc(func(b []byte, t time.Time) []byte {
		year, _ := t.ISOWeek()
		return strconv.AppendInt(b, int64(year), 10)
	}),
	'g': strftime.AppendFunc(func(b []byte, t time.Time) []byte {
		year, _ := t.ISOWeek()
		return appendTwoDigits(b, year%100)
	}),
}

var specifications = sync.OnceValues(func() (strftime.SpecificationSet, error) {
	ss := strftime.NewSpecificationSet()
	for verb, a := range glibcVerbs {
		if err := ss.Set(verb, a); err != nil {
			return nil, fmt.Errorf("register %%%c: %w", verb, err)
		}
	}
	return ss, nil
})

func appendTwoDigits(b []byte, n int) []byte {
	if n < 10 {
		b = append(b, '0')
	}
	return strconv.AppendInt(b, int64(n), 10)
}

// NewStrftime compiles a strftime(3) pattern into a formatter that renders
// local time. An empty pattern renders an empty string.
func NewStrftime(pattern string) (TimeFormatter, error) {
	if pattern == "" {
		return func(time.Time) string { return "" }, nil
	}
	ss, err := specifications()
	if err != nil {
		return nil, err
	}
	f, err := strftime.New(pattern, strftime.WithSpecificationSet(ss))
	if err != nil {
		return nil, fmt.Errorf("invalid time format %q: %w", pattern, err)
	}
	return func(t time.Time) string {
		return f.FormatString(t.Local())
	}, nil
}

// FormatStrftime renders t with a one-off strftime pattern.
func FormatStrftime(pattern string, t time.Time) (string, error) {
	f, err := NewStrftime(pattern)
	if err != nil {
		return "", err
	}
	return f(t), nil
}
