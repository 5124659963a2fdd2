package polling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/femavibes/feedmaster/internal/configfile"
)

func defaultRulesAndTiers() (configfile.DeactivationRules, []configfile.PollingTier) {
	cfg := configfile.DefaultPollingConfig()
	return cfg.DeactivationRules, cfg.PollingTiers
}

func TestScheduleNextEarlyCheckpointsReschedule(t *testing.T) {
	rules, tiers := defaultRulesAndTiers()

	interval, retire := ScheduleNext(0, 0, rules, tiers)
	assert.False(t, retire)
	assert.Positive(t, interval)
}

func TestScheduleNextRetiresZeroEngagementAtFourthCheckpoint(t *testing.T) {
	rules, tiers := defaultRulesAndTiers()

	_, retire := ScheduleNext(rules.FourthPollAgeHours, 0, rules, tiers)
	assert.True(t, retire)
}

func TestScheduleNextRetiresLowEngagementAtFifthCheckpoint(t *testing.T) {
	rules, tiers := defaultRulesAndTiers()

	_, retire := ScheduleNext(rules.FifthPollAgeHours, 3, rules, tiers)
	assert.True(t, retire)

	_, retire = ScheduleNext(rules.FifthPollAgeHours, 4, rules, tiers)
	assert.False(t, retire)
}

func TestScheduleNextHardStop(t *testing.T) {
	rules, tiers := defaultRulesAndTiers()

	interval, retire := ScheduleNext(rules.HardStopHours, 1000, rules, tiers)
	assert.True(t, retire)
	assert.Zero(t, interval)
}

func TestScheduleNextFallsIntoAgeTiers(t *testing.T) {
	rules, tiers := defaultRulesAndTiers()

	interval, retire := ScheduleNext(30, 10, rules, tiers)
	assert.False(t, retire)
	assert.Equal(t, int64(6)*int64(3600)*int64(1e9), interval.Nanoseconds())
}

func TestTierIntervalFallsBackToCoarsestTier(t *testing.T) {
	_, tiers := defaultRulesAndTiers()

	// Beyond every declared tier's MaxAgeHours ceiling.
	assert.Equal(t, tiers[len(tiers)-1].IntervalHours, tierInterval(10_000, tiers))
}

func TestTierIntervalNoTiersDefaultsToOneDay(t *testing.T) {
	assert.Equal(t, 24.0, tierInterval(10, nil))
}
