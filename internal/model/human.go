// human readable and writable stdlib types
// which can be used inside config file
package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration accepts either an ISO8601 duration (PT10M) or a Go duration (500ms).
// Negative values are rejected.
type Duration struct {
	time.Duration
}

func (d Duration) AsDuration() time.Duration {
	return d.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	if d == nil {
		return errors.New("can't unmarshal to nil")
	}
	s := strings.TrimSpace(string(text))
	if s == "" {
		return errors.New("can't be empty")
	}
	if strings.HasPrefix(s, "P") {
		parsed, err := ParseISODuration(s)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", s, err)
		}
		d.Duration = parsed
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("parsing %q: negative duration", s)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var ErrISOFormat = errors.New("invalid ISO8601 duration")

// days, hours, minutes, whole seconds, second fraction
var isoRx = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:[.,](\d{1,9}))?S)?)?$`)

// ParseISODuration parses the day and time part of an ISO8601 duration,
// e.g. PT10M, P1DT2H or PT0.5S. Years, months, weeks and signs are not
// supported.
func ParseISODuration(s string) (time.Duration, error) {
	m := isoRx.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, ErrISOFormat
	}

	var total time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || n > int64(math.MaxInt64/unit) {
			return 0, fmt.Errorf("%w: %s out of range", ErrISOFormat, m[i+1])
		}
		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return 0, fmt.Errorf("%w: overflow", ErrISOFormat)
		}
		total += part
	}
	if frac := m[5]; frac != "" {
		ns, _ := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if total > math.MaxInt64-time.Duration(ns) {
			return 0, fmt.Errorf("%w: overflow", ErrISOFormat)
		}
		total += time.Duration(ns)
	}
	return total, nil
}
