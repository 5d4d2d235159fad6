package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser accepts the same expressions as cron.ParseStandard: five fields or a
// descriptor such as "@hourly" or "@every 30s".
var Parser = cron.NewParser(cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// GetTriggerInfo reports the next activation of cronExpr after refTime and,
// for calendar schedules, the most recent one at or before it.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := Parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       schedule.Next(refTime),
	}
	info.TimeUntilNext = info.Next.Sub(refTime)

	// interval schedules have no fixed previous activation
	if every, ok := schedule.(cron.ConstantDelaySchedule); ok {
		info.Last = info.Next.Add(-every.Delay)
		info.TimeSinceLast = refTime.Sub(info.Last)
		return info, nil
	}

	searchStart := refTime.Add(-time.Minute)
	for i := 0; i < 366*24; i++ {
		checkTime := searchStart.Add(-time.Duration(i) * time.Hour)
		candidate := schedule.Next(checkTime)
		if !candidate.After(refTime) {
			// walk forward to the latest activation not after refTime
			for {
				next := schedule.Next(candidate)
				if next.After(refTime) {
					break
				}
				candidate = next
			}
			info.Last = candidate
			break
		}
	}

	if !info.Last.IsZero() {
		info.TimeSinceLast = refTime.Sub(info.Last)
	}
	return info, nil
}
