package configfile

import "fmt"

// DeactivationRules is the hot-reloadable schedule of polling checkpoints,
// keyed by elapsed post age, loaded from polling_config.json.
type DeactivationRules struct {
	HardStopHours float64 `json:"hard_stop_hours"`
	FirstPollAgeHours  float64 `json:"first_poll_age_hours"`
	SecondPollAgeHours float64 `json:"second_poll_age_hours"`
	ThirdPollAgeHours  float64 `json:"third_poll_age_hours"`
	FourthPollAgeHours float64 `json:"fourth_poll_age_hours"`
	FifthPollAgeHours  float64 `json:"fifth_poll_age_hours"`
}

// PollingTier maps a post-age ceiling to a polling interval.
type PollingTier struct {
	MaxAgeHours      float64 `json:"max_age_hours"`
	IntervalHours    float64 `json:"interval_hours"`
}

// PollingConfig is the full contents of polling_config.json.
type PollingConfig struct {
	DeactivationRules DeactivationRules `json:"deactivation_rules"`
	PollingTiers      []PollingTier     `json:"polling_tiers"`
}

// Validate rejects an empty tier list or a non-positive hard stop.
func (c *PollingConfig) Validate() error {
	if c.DeactivationRules.HardStopHours <= 0 {
		return fmt.Errorf("hard_stop_hours must be positive")
	}
	if len(c.PollingTiers) == 0 {
		return fmt.Errorf("polling_tiers must not be empty")
	}
	return nil
}

// DefaultPollingConfig matches original_source/backend/polling_worker.py's
// built-in defaults, used when polling_config.json is absent.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		DeactivationRules: DeactivationRules{
			HardStopHours:      168,
			FirstPollAgeHours:  0.083,
			SecondPollAgeHours: 0.167,
			ThirdPollAgeHours:  0.33,
			FourthPollAgeHours: 0.5,
			FifthPollAgeHours:  1.0,
		},
		PollingTiers: []PollingTier{
			{MaxAgeHours: 24, IntervalHours: 2},
			{MaxAgeHours: 48, IntervalHours: 6},
			{MaxAgeHours: 72, IntervalHours: 12},
			{MaxAgeHours: 168, IntervalHours: 24},
		},
	}
}
