package memorystore

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSweeper schedules the physical removal of purged OTP records and
// finished cooldowns. Either may be nil. The returned cron must be stopped
// on shutdown.
func StartSweeper(schedule string, otps *OtpStore, cooldown *Cooldown) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if otps != nil {
			if n := otps.Purge(time.Now()); n > 0 {
				slog.Debug("purged expired otp records", "count", n)
			}
		}
		if cooldown != nil {
			cooldown.Purge()
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
