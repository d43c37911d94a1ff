package config

import (
	"errors"
	"fmt"
	"time"
)

type SweeperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

func NewSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval:   getSecondsEnv("STALE_SWEEP_INTERVAL_SEC", 60),
		StaleAfter: getSecondsEnv("STALE_SUBMISSION_AFTER_SEC", 600),
	}
}

// CheckJudgeDeadline reports whether a submission still being judged could be
// swept. Judging is bounded by judgeDeadline plus the fallback write.
func (c *SweeperConfig) CheckJudgeDeadline(judgeDeadline time.Duration) error {
	if c.Interval <= 0 {
		return nil
	}
	if judgeDeadline <= 0 {
		return errors.New("judging has no deadline, a long run can be swept while in progress")
	}
	if minimum := judgeDeadline + ResponseGrace; c.StaleAfter <= minimum {
		return fmt.Errorf("stale threshold %v must exceed the judging deadline plus grace (%v)", c.StaleAfter, minimum)
	}
	return nil
}
