package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDue(t *testing.T) {
	ref := date(2025, 1, 1)
	tests := []struct {
		kind  string
		value int
		ref   time.Time
		want  time.Time
	}{
		{FrequencyDays, 7, ref, date(2025, 1, 8)},
		{FrequencyWeeks, 2, ref, date(2025, 1, 15)},
		{FrequencyMonths, 1, ref, date(2025, 2, 1)},
		{FrequencyMonths, 12, ref, date(2026, 1, 1)},
		{FrequencyMonths, 1, date(2025, 1, 31), date(2025, 3, 3)},
		{FrequencyHours, 36, ref, time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := NextDue(tt.ref, tt.kind, tt.value)
		require.NoError(t, err, "%s %d", tt.kind, tt.value)
		assert.True(t, tt.want.Equal(got), "NextDue(%s, %s, %d) = %s, want %s", tt.ref, tt.kind, tt.value, got, tt.want)
	}
}

func TestNextDueWeeksEqualsDays(t *testing.T) {
	ref := date(2024, 2, 20)
	weeks, err := NextDue(ref, FrequencyWeeks, 3)
	require.NoError(t, err)
	days, err := NextDue(ref, FrequencyDays, 21)
	require.NoError(t, err)
	assert.Equal(t, days, weeks)
}

func TestNextDueRejects(t *testing.T) {
	ref := date(2025, 1, 1)

	_, err := NextDue(ref, FrequencyKilometers, 1000)
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NextDue(ref, "fortnights", 1)
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)

	_, err = NextDue(ref, FrequencyDays, 0)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, errors.Is(err, ErrUnsupportedFrequency))
}

func TestPlanInputValidate(t *testing.T) {
	seven := 7
	zero := 0

	ok := PlanInput{EquipmentNodeID: "n1", FrequencyType: FrequencyDays, FrequencyValue: &seven}
	assert.NoError(t, ok.Validate())

	missing := PlanInput{EquipmentNodeID: "n1", FrequencyType: FrequencyDays}
	assert.ErrorIs(t, missing.Validate(), ErrInvalid)

	nonPositive := PlanInput{EquipmentNodeID: "n1", FrequencyType: FrequencyDays, FrequencyValue: &zero}
	assert.ErrorIs(t, nonPositive.Validate(), ErrInvalid)
}

func TestPlanPatchApply(t *testing.T) {
	created := date(2025, 1, 1)
	newPlan := func() *MaintenancePlan {
		return &MaintenancePlan{
			FrequencyType:  FrequencyDays,
			FrequencyValue: 10,
			NextDueDate:    date(2025, 1, 11),
			IsActive:       true,
			CreatedAt:      created,
		}
	}

	t.Run("description only keeps due date", func(t *testing.T) {
		p := newPlan()
		desc := "grease"
		require.NoError(t, (&PlanPatch{Description: &desc}).Apply(p))
		assert.Equal(t, "grease", p.Description)
		assert.Equal(t, date(2025, 1, 11), p.NextDueDate)
	})

	t.Run("frequency change recomputes from created_at", func(t *testing.T) {
		p := newPlan()
		weeks := FrequencyWeeks
		one := 1
		require.NoError(t, (&PlanPatch{FrequencyType: &weeks, FrequencyValue: &one}).Apply(p))
		assert.Equal(t, date(2025, 1, 8), p.NextDueDate)
	})

	t.Run("last date recomputes from it", func(t *testing.T) {
		p := newPlan()
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-01"`), &ts))
		require.NoError(t, (&PlanPatch{LastMaintenanceDate: &ts}).Apply(p))
		require.NotNil(t, p.LastMaintenanceDate)
		assert.Equal(t, date(2025, 3, 1), *p.LastMaintenanceDate)
		assert.Equal(t, date(2025, 3, 11), p.NextDueDate)
	})

	t.Run("unsupported frequency", func(t *testing.T) {
		p := newPlan()
		km := FrequencyKilometers
		assert.ErrorIs(t, (&PlanPatch{FrequencyType: &km}).Apply(p), ErrUnsupportedFrequency)
	})
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`"2025-03-01"`, date(2025, 3, 1), false},
		{`"2025-03-01T10:30:00"`, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), false},
		{`"2025-03-01T10:30:00+02:00"`, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), false},
		{`"yesterday"`, time.Time{}, true},
		{`42`, time.Time{}, true},
	}

	for _, tt := range tests {
		var ts Timestamp
		err := json.Unmarshal([]byte(tt.in), &ts)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(ts.Time), "%s parsed as %s", tt.in, ts.Time)
	}
}
