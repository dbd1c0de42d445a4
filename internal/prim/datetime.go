package prim

import (
	"strconv"
	"strings"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// DateTime is a strict ISO-8601 extended value,
// YYYY-MM-DDThh:mm[:ss[.fraction]][Z|±hh:mm], or a date-only value
// when no time component was present on read.
type DateTime struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	// Nanos holds the fractional-second value truncated/padded to 100ns
	// resolution (7 decimal digits), expressed in nanoseconds (a
	// multiple of 100).
	Nanos int
	// DateOnly records that the source text had no time component.
	DateOnly bool
	// HasOffset records that the source text carried a 'Z' or numeric
	// offset; UTC distinguishes 'Z' from a numeric +00:00 offset.
	HasOffset     bool
	UTC           bool
	OffsetMinutes int
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseFixedDigits(s string, n int) (int, bool) {
	if len(s) < n {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		if !isASCIIDigit(s[i]) {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}

// ParseDateTime parses the strict ISO-8601 extended grammar.
func ParseDateTime(s string) (DateTime, error) {
	var dt DateTime
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return dt, jsonerr.ErrInvalidDateTime
	}
	year, ok := parseFixedDigits(s[0:4], 4)
	if !ok {
		return dt, jsonerr.ErrInvalidDateTime
	}
	month, ok := parseFixedDigits(s[5:7], 2)
	if !ok {
		return dt, jsonerr.ErrInvalidDateTime
	}
	day, ok := parseFixedDigits(s[8:10], 2)
	if !ok {
		return dt, jsonerr.ErrInvalidDateTime
	}
	dt.Year, dt.Month, dt.Day = year, month, day

	if len(s) == 10 {
		dt.DateOnly = true
		return dt, nil
	}
	if s[10] != 'T' && s[10] != 't' {
		return dt, jsonerr.ErrInvalidDateTime
	}
	rest := s[11:]
	if len(rest) < 5 || rest[2] != ':' {
		return dt, jsonerr.ErrInvalidDateTime
	}
	hour, ok := parseFixedDigits(rest[0:2], 2)
	if !ok {
		return dt, jsonerr.ErrInvalidDateTime
	}
	minute, ok := parseFixedDigits(rest[3:5], 2)
	if !ok {
		return dt, jsonerr.ErrInvalidDateTime
	}
	dt.Hour, dt.Minute = hour, minute

	i := 5
	if i < len(rest) && rest[i] == ':' {
		i++
		sec, ok := parseFixedDigits(rest[i:], 2)
		if !ok {
			return dt, jsonerr.ErrInvalidDateTime
		}
		dt.Second = sec
		i += 2
		if i < len(rest) && rest[i] == '.' {
			i++
			start := i
			for i < len(rest) && isASCIIDigit(rest[i]) {
				i++
			}
			if i == start || i-start > 16 {
				return dt, jsonerr.ErrInvalidDateTime
			}
			dt.Nanos = fracToNanos(rest[start:i])
		}
	}

	if i < len(rest) {
		switch rest[i] {
		case 'Z', 'z':
			if i != len(rest)-1 {
				return dt, jsonerr.ErrInvalidDateTime
			}
			dt.HasOffset = true
			dt.UTC = true
		case '+', '-':
			sign := 1
			if rest[i] == '-' {
				sign = -1
			}
			off := rest[i+1:]
			if len(off) != 5 || off[2] != ':' {
				return dt, jsonerr.ErrInvalidDateTime
			}
			oh, ok := parseFixedDigits(off[0:2], 2)
			if !ok {
				return dt, jsonerr.ErrInvalidDateTime
			}
			om, ok := parseFixedDigits(off[3:5], 2)
			if !ok {
				return dt, jsonerr.ErrInvalidDateTime
			}
			dt.HasOffset = true
			dt.OffsetMinutes = sign * (oh*60 + om)
		default:
			return dt, jsonerr.ErrInvalidDateTime
		}
	}
	return dt, nil
}

// fracToNanos retains the first 7 digits of a fractional-seconds literal
// (100ns resolution) and pads right with zeros if fewer were given.
func fracToNanos(digits string) int {
	if len(digits) > 7 {
		digits = digits[:7]
	}
	for len(digits) < 7 {
		digits += "0"
	}
	v, _ := strconv.Atoi(digits)
	return v * 100
}

// Format renders dt in its canonical output form: always
// the fractional-seconds form, followed by 'Z' or a numeric offset when
// dt carries one and by nothing otherwise.
func (dt DateTime) Format() string {
	var b strings.Builder
	b.Grow(40)
	writeFixed(&b, dt.Year, 4)
	b.WriteByte('-')
	writeFixed(&b, dt.Month, 2)
	b.WriteByte('-')
	writeFixed(&b, dt.Day, 2)
	b.WriteByte('T')
	writeFixed(&b, dt.Hour, 2)
	b.WriteByte(':')
	writeFixed(&b, dt.Minute, 2)
	b.WriteByte(':')
	writeFixed(&b, dt.Second, 2)
	b.WriteByte('.')
	writeFixed(&b, dt.Nanos/100, 7)
	switch {
	case dt.UTC:
		b.WriteByte('Z')
	case dt.HasOffset:
		off := dt.OffsetMinutes
		if off < 0 {
			b.WriteByte('-')
			off = -off
		} else {
			b.WriteByte('+')
		}
		writeFixed(&b, off/60, 2)
		b.WriteByte(':')
		writeFixed(&b, off%60, 2)
	}
	return b.String()
}

func writeFixed(b *strings.Builder, v, width int) {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	b.WriteString(s)
}

// WriteDateTime writes dt in its canonical output form.
func WriteDateTime[S sym.Symbol](w *writer.Writer[S], dt DateTime) {
	w.WriteString(dt.Format())
}

// ReadDateTime reads the current TokenString as a DateTime.
func ReadDateTime[S sym.Symbol](r *reader.Reader[S]) (DateTime, error) {
	s, err := r.StringValue()
	if err != nil {
		return DateTime{}, err
	}
	dt, perr := ParseDateTime(s)
	if perr != nil {
		return DateTime{}, jsonerr.ErrInvalidDateTime.At(r.Offset())
	}
	return dt, nil
}

// TimeSpan is a `[-][d.]hh:mm:ss[.fffffff]` duration value.
type TimeSpan struct {
	Negative                      bool
	Days, Hours, Minutes, Seconds int
	Nanos                         int
}

// ParseTimeSpan parses the strict `[-][d.]hh:mm:ss[.fffffff]` grammar.
func ParseTimeSpan(s string) (TimeSpan, error) {
	var ts TimeSpan
	i := 0
	if i < len(s) && s[i] == '-' {
		ts.Negative = true
		i++
	}
	firstColon := strings.IndexByte(s[i:], ':')
	if firstColon < 0 {
		return ts, jsonerr.ErrInvalidTimeSpan
	}
	head := s[i : i+firstColon]
	if dot := strings.IndexByte(head, '.'); dot >= 0 {
		days, err := strconv.Atoi(head[:dot])
		if err != nil || days < 0 {
			return ts, jsonerr.ErrInvalidTimeSpan
		}
		ts.Days = days
		i += dot + 1
	}
	rest := s[i:]
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return ts, jsonerr.ErrInvalidTimeSpan
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	secPart := parts[2]
	var frac string
	if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
		frac = secPart[dot+1:]
		secPart = secPart[:dot]
	}
	ss, err3 := strconv.Atoi(secPart)
	if err1 != nil || err2 != nil || err3 != nil || hh < 0 || mm < 0 || ss < 0 {
		return ts, jsonerr.ErrInvalidTimeSpan
	}
	ts.Hours, ts.Minutes, ts.Seconds = hh, mm, ss
	if frac != "" {
		if len(frac) > 16 {
			return ts, jsonerr.ErrInvalidTimeSpan
		}
		ts.Nanos = fracToNanos(frac)
	}
	return ts, nil
}

// Format renders ts in its canonical form.
func (ts TimeSpan) Format() string {
	var b strings.Builder
	b.Grow(24)
	if ts.Negative {
		b.WriteByte('-')
	}
	if ts.Days != 0 {
		b.WriteString(strconv.Itoa(ts.Days))
		b.WriteByte('.')
	}
	writeFixed(&b, ts.Hours, 2)
	b.WriteByte(':')
	writeFixed(&b, ts.Minutes, 2)
	b.WriteByte(':')
	writeFixed(&b, ts.Seconds, 2)
	if ts.Nanos != 0 {
		b.WriteByte('.')
		writeFixed(&b, ts.Nanos/100, 7)
	}
	return b.String()
}

// WriteTimeSpan writes ts in its canonical output form.
func WriteTimeSpan[S sym.Symbol](w *writer.Writer[S], ts TimeSpan) {
	w.WriteString(ts.Format())
}

// ReadTimeSpan reads the current TokenString as a TimeSpan.
func ReadTimeSpan[S sym.Symbol](r *reader.Reader[S]) (TimeSpan, error) {
	s, err := r.StringValue()
	if err != nil {
		return TimeSpan{}, err
	}
	ts, perr := ParseTimeSpan(s)
	if perr != nil {
		return TimeSpan{}, jsonerr.ErrInvalidTimeSpan.At(r.Offset())
	}
	return ts, nil
}
