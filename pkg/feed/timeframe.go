package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a labeled report cadence such as "10m", "1h", or "24h".
// The label selects both the retention policy and which previous summary
// context is chained from.
type Timeframe string

// Standard timeframes. Custom labels in the same <number><unit> form are
// accepted everywhere a Timeframe is parsed.
const (
	Timeframe10m Timeframe = "10m"
	Timeframe1h  Timeframe = "1h"
	Timeframe24h Timeframe = "24h"
)

// ParseTimeframe validates a timeframe label of the form <number>m or
// <number>h and returns it as a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if _, err := tf.Duration(); err != nil {
		return "", err
	}
	return tf, nil
}

// Duration converts the label to the window duration it covers.
func (tf Timeframe) Duration() (time.Duration, error) {
	s := string(tf)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", s)
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", s)
	}

	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe %q: unit must be 'm' or 'h'", s)
	}
}

// MustDuration is Duration for labels already validated by ParseTimeframe.
// It panics on an invalid label.
func (tf Timeframe) MustDuration() time.Duration {
	d, err := tf.Duration()
	if err != nil {
		panic(err)
	}
	return d
}

// String implements fmt.Stringer.
func (tf Timeframe) String() string { return string(tf) }
