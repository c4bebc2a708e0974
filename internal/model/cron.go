package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MinRefreshPeriod is the shortest accepted workers.refresh period.
const MinRefreshPeriod = 10 * time.Second

// Refresh schedules a periodic catalog rediscovery. Cron wins when both are set.
type Refresh struct {
	Cron     string   `json:"cron,omitempty" yaml:"cron,omitempty"`
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// standard five fields plus @hourly style descriptors and @every
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronPeriod returns the gap between the first two activations of expr
// after now.
func CronPeriod(expr string, now time.Time) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, errors.New("empty cron expression")
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, err
	}
	first := sched.Next(now)
	return sched.Next(first).Sub(first), nil
}

// Period returns how often r fires when evaluated at now.
func (r Refresh) Period(now time.Time) (time.Duration, error) {
	switch {
	case r.Cron != "":
		d, err := CronPeriod(r.Cron, now)
		if err != nil {
			return 0, fmt.Errorf("workers.refresh.cron: %w", err)
		}
		return d, nil
	case r.Duration.AsDuration() > 0:
		return r.Duration.AsDuration(), nil
	default:
		return 0, errors.New("both cron and duration are empty")
	}
}
