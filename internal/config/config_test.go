package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagepass/stagepass/internal/config"
)

func TestSchedulerValidate(t *testing.T) {
	t.Run("should accept defined tasks", func(t *testing.T) {
		s := config.Scheduler{Tasks: []config.Task{
			{Cronspec: "@every 1h", TaskType: config.TypeCascadeRepair, Retries: 3},
		}}

		assert.NoError(t, s.Validate())
	})

	t.Run("should reject an unknown task type", func(t *testing.T) {
		s := config.Scheduler{Tasks: []config.Task{
			{Cronspec: "@every 1h", TaskType: "tenant:unknown"},
		}}

		assert.ErrorIs(t, s.Validate(), config.ErrNonDefinedTaskType)
	})

	t.Run("should reject a repeated task type", func(t *testing.T) {
		s := config.Scheduler{Tasks: []config.Task{
			{Cronspec: "@every 1h", TaskType: config.TypeCascadeRepair},
			{Cronspec: "@every 2h", TaskType: config.TypeCascadeRepair},
		}}

		assert.ErrorIs(t, s.Validate(), config.ErrRepeatedTaskType)
	})
}

func TestCascadeValidate(t *testing.T) {
	t.Run("should accept plain snake_case identifiers", func(t *testing.T) {
		c := config.Cascade{Tables: []string{"events", "billing_plans", "sms_settings"}}

		assert.NoError(t, c.Validate())
	})

	t.Run("should accept an empty list", func(t *testing.T) {
		c := config.Cascade{}

		assert.NoError(t, c.Validate())
	})

	t.Run("should reject malformed identifiers", func(t *testing.T) {
		for _, table := range []string{
			"Events",
			"events; DROP TABLE tenants",
			`events"`,
			"1events",
			"",
		} {
			c := config.Cascade{Tables: []string{table}}

			assert.ErrorIs(t, c.Validate(), config.ErrInvalidTableName, table)
		}
	})

	t.Run("should reject a repeated table", func(t *testing.T) {
		c := config.Cascade{Tables: []string{"events", "events"}}

		assert.ErrorIs(t, c.Validate(), config.ErrRepeatedTableName)
	})
}
