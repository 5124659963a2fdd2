package polling

import (
	"time"

	"github.com/femavibes/feedmaster/internal/configfile"
)

// ScheduleNext decides, for a post of the given age whose most recently
// polled engagement score is score, whether to retire it from polling and
// (if not) how long until its next poll.
//
// The first three checkpoints (5m/10m/20m by default) are reschedule-only
// and exist purely to catch early engagement; the fourth (30m) retires a
// post that has accumulated zero engagement, and the fifth (60m) retires
// anything still at or below a score of 3. Past the fifth checkpoint and
// short of the hard stop, the polling tiers take over based on age alone.
func ScheduleNext(ageHours float64, score int, rules configfile.DeactivationRules, tiers []configfile.PollingTier) (interval time.Duration, retire bool) {
	if ageHours >= rules.HardStopHours {
		return 0, true
	}
	if ageHours >= rules.FifthPollAgeHours && score <= 3 {
		return 0, true
	}
	if ageHours >= rules.FourthPollAgeHours && ageHours < rules.FifthPollAgeHours && score == 0 {
		return 0, true
	}

	switch {
	case ageHours < rules.FirstPollAgeHours:
		return hoursToDuration(rules.FirstPollAgeHours - ageHours), false
	case ageHours < rules.SecondPollAgeHours:
		return hoursToDuration(rules.SecondPollAgeHours - ageHours), false
	case ageHours < rules.ThirdPollAgeHours:
		return hoursToDuration(rules.ThirdPollAgeHours - ageHours), false
	case ageHours < rules.FourthPollAgeHours:
		return hoursToDuration(rules.FourthPollAgeHours - ageHours), false
	case ageHours < rules.FifthPollAgeHours:
		return hoursToDuration(rules.FifthPollAgeHours - ageHours), false
	default:
		return hoursToDuration(tierInterval(ageHours, tiers)), false
	}
}

// tierInterval returns the interval for the first tier whose MaxAgeHours
// covers ageHours, falling back to the coarsest tier past the last
// ceiling.
func tierInterval(ageHours float64, tiers []configfile.PollingTier) float64 {
	for _, t := range tiers {
		if ageHours <= t.MaxAgeHours {
			return t.IntervalHours
		}
	}
	if len(tiers) > 0 {
		return tiers[len(tiers)-1].IntervalHours
	}
	return 24
}

func hoursToDuration(h float64) time.Duration {
	if h < 0 {
		h = 0
	}
	return time.Duration(h * float64(time.Hour))
}
