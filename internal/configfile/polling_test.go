package configfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPollingConfigValidates(t *testing.T) {
	cfg := DefaultPollingConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveHardStop(t *testing.T) {
	cfg := DefaultPollingConfig()
	cfg.DeactivationRules.HardStopHours = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyTiers(t *testing.T) {
	cfg := DefaultPollingConfig()
	cfg.PollingTiers = nil
	assert.Error(t, cfg.Validate())
}
