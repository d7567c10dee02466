package jobs

import (
	"testing"
	"time"

	config "github.com/quizfoundry/backend/configs"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSchedulesMaintenance(t *testing.T) {
	c := cron.New()
	require.NoError(t, Register(c, config.Settings{AttemptAbandonAfter: time.Hour}))

	entries := c.Entries()
	assert.Len(t, entries, 3)

	from := time.Date(2026, 1, 1, 10, 7, 0, 0, time.UTC)
	for _, e := range entries {
		assert.Equal(t, time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC), e.Schedule.Next(from))
	}
}

func TestMaintenanceScheduleParses(t *testing.T) {
	_, err := cron.ParseStandard(MaintenanceSchedule)
	assert.NoError(t, err)
}
