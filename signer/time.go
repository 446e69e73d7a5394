package signer

import "time"

const (
	// TimeFormat is the ISO 8601 basic datetime layout used on the wire.
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the date-only layout used in credential scopes.
	ShortTimeFormat = "20060102"
)

// SigningTime carries a signing instant together with memoized wire
// formattings of it.
type SigningTime struct {
	time.Time
	timeFormat      string
	shortTimeFormat string
}

// NewSigningTime normalizes t to UTC for signing.
func NewSigningTime(t time.Time) SigningTime {
	return SigningTime{Time: t.UTC()}
}

// TimeFormat returns t as 20060102T150405Z.
func (m *SigningTime) TimeFormat() string {
	return m.format(&m.timeFormat, TimeFormat)
}

// ShortTimeFormat returns t as 20060102.
func (m *SigningTime) ShortTimeFormat() string {
	return m.format(&m.shortTimeFormat, ShortTimeFormat)
}

func (m *SigningTime) format(target *string, format string) string {
	if len(*target) > 0 {
		return *target
	}
	v := m.Time.Format(format)
	*target = v
	return v
}

func isSameDay(x, y time.Time) bool {
	xYear, xMonth, xDay := x.Date()
	yYear, yMonth, yDay := y.Date()
	return xYear == yYear && xMonth == yMonth && xDay == yDay
}
