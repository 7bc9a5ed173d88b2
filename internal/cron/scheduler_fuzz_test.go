package cron

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func FuzzScheduleExpression(f *testing.F) {
	for _, expr := range defaultSchedules {
		f.Add(expr)
	}
	f.Add("30 5 * * *")
	f.Add("* * * * *")
	f.Add("")
	f.Add("61 * * * *")
	f.Add("*/0 * * * *")
	f.Add("0 6 * * mon-fri")

	f.Fuzz(func(_ *testing.T, expr string) {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		sched, err := parser.Parse(expr)
		if err != nil {
			return
		}
		// An accepted expression must also yield a next firing time
		// without panicking.
		sched.Next(time.Now())
	})
}
