package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleTrivialFeasibleCase(t *testing.T) {
	courses := []Course{{
		ID:            "c1",
		RequiredSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)},
		EligibleTAIDs: []string{"ta1"},
	}}
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)},
	}}

	result, err := Schedule(courses, tas, Policies{Independence: true}, false, 1)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.UnassignedSlots)
	assert.Len(t, result.Schedule.Assignments, 1)
	assert.Equal(t, "ta1", result.Schedule.Assignments[0].TAID)
}

func TestScheduleSaturdayPremastersRestriction(t *testing.T) {
	courses := []Course{{
		ID:            "c1",
		RequiredSlots: []TimeSlot{NewTimeSlot(Saturday, 4, Tutorial)},
		EligibleTAIDs: []string{"ta1"},
	}}
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		Premasters:     true,
		AvailableSlots: []TimeSlot{NewTimeSlot(Saturday, 4, Tutorial)},
	}}

	result, err := Schedule(courses, tas, Policies{Independence: true}, false, 1)
	require.NoError(t, err)
	assert.False(t, result.Success, "a premasters TA can never legally take slot 4 on Saturday")
	assert.Len(t, result.UnassignedSlots, 1)
}

func TestScheduleEqualCountPolicyHonored(t *testing.T) {
	courses := []Course{{
		ID: "c1",
		RequiredSlots: []TimeSlot{
			NewTimeSlot(Sunday, 1, Tutorial),
			NewTimeSlot(Monday, 1, Tutorial),
			NewTimeSlot(Tuesday, 1, Lab),
		},
		EligibleTAIDs: []string{"ta1"},
	}}
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{
			NewTimeSlot(Sunday, 1, Tutorial),
			NewTimeSlot(Monday, 1, Tutorial),
			NewTimeSlot(Tuesday, 1, Lab),
		},
	}}

	result, err := Schedule(courses, tas, Policies{EqualCount: true}, false, 1)
	require.NoError(t, err)

	tutorials, labs := 0, 0
	for _, a := range result.Schedule.Assignments {
		if a.TAID != "ta1" {
			continue
		}
		if a.Slot.SlotType == Tutorial {
			tutorials++
		} else {
			labs++
		}
	}
	assert.Equal(t, tutorials, labs, "ta1's own assignments must keep tutorial and lab counts equal")
}

func TestScheduleNumberMatchingPolicyHonored(t *testing.T) {
	courses := []Course{{
		ID: "c1",
		RequiredSlots: []TimeSlot{
			NewTimeSlot(Sunday, 1, Tutorial),
			NewTimeSlot(Monday, 1, Lab),
			NewTimeSlot(Tuesday, 2, Tutorial),
		},
		EligibleTAIDs: []string{"ta1"},
	}}
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{
			NewTimeSlot(Sunday, 1, Tutorial),
			NewTimeSlot(Monday, 1, Lab),
			NewTimeSlot(Tuesday, 2, Tutorial),
		},
	}}

	result, err := Schedule(courses, tas, Policies{NumberMatching: true}, false, 1)
	require.NoError(t, err)

	// Slot number 2 has no matching lab, so a combination containing
	// it alone is never policy-legal; it should stay unassigned.
	for _, u := range result.UnassignedSlots {
		if u.Slot.SlotNumber == 2 {
			assert.Equal(t, Tutorial, u.Slot.SlotType)
		}
	}
}

func TestScheduleResolvesCrossCourseDoubleBooking(t *testing.T) {
	slot := NewTimeSlot(Sunday, 1, Tutorial)
	courses := []Course{
		{ID: "courseA", RequiredSlots: []TimeSlot{slot}, EligibleTAIDs: []string{"ta1", "ta2"}},
		{ID: "courseB", RequiredSlots: []TimeSlot{slot}, EligibleTAIDs: []string{"ta1", "ta2"}},
	}
	tas := []TA{
		{ID: "ta1", MaxWeeklyHours: 4, AvailableSlots: []TimeSlot{slot}},
		{ID: "ta2", MaxWeeklyHours: 4, AvailableSlots: []TimeSlot{slot}},
	}

	result, err := Schedule(courses, tas, Policies{Independence: true}, false, 1)
	require.NoError(t, err)

	seen := map[DaySlot]map[string]bool{}
	for _, a := range result.Schedule.Assignments {
		ds := a.Slot.DaySlot()
		if seen[ds] == nil {
			seen[ds] = map[string]bool{}
		}
		assert.False(t, seen[ds][a.TAID], "no TA should end up with two assignments at the same (day, slot_number) after resolution")
		seen[ds][a.TAID] = true
	}
}

func TestScheduleFairnessBalancesWorkload(t *testing.T) {
	all := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
		NewTimeSlot(Wednesday, 1, Tutorial),
	}
	courses := []Course{{
		ID:            "c1",
		RequiredSlots: all,
		EligibleTAIDs: []string{"ta1", "ta2"},
	}}
	tas := []TA{
		{ID: "ta1", MaxWeeklyHours: 8, AvailableSlots: all},
		{ID: "ta2", MaxWeeklyHours: 8, AvailableSlots: all},
	}

	result, err := Schedule(courses, tas, Policies{Independence: true, FairnessMode: true}, true, 1)
	require.NoError(t, err)
	assert.True(t, result.Success)

	hours := map[string]int{}
	for _, a := range result.Schedule.Assignments {
		hours[a.TAID] += a.Slot.duration()
	}
	assert.Equal(t, hours["ta1"], hours["ta2"], "an even four-slot course split across two equally available TAs should land evenly")
}

func TestScheduleIsDeterministicForTheSameSeed(t *testing.T) {
	all := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
	}
	courses := []Course{{ID: "c1", RequiredSlots: all, EligibleTAIDs: []string{"ta1", "ta2"}}}
	tas := []TA{
		{ID: "ta1", MaxWeeklyHours: 2, AvailableSlots: all},
		{ID: "ta2", MaxWeeklyHours: 4, AvailableSlots: all},
	}

	r1, err := Schedule(courses, tas, Policies{Independence: true}, true, 42)
	require.NoError(t, err)
	r2, err := Schedule(courses, tas, Policies{Independence: true}, true, 42)
	require.NoError(t, err)
	assert.Equal(t, r1.Schedule.Assignments, r2.Schedule.Assignments)
}

func TestScheduleSeedZeroIsDeterministicAcrossRuns(t *testing.T) {
	all := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
	}
	courses := []Course{{ID: "c1", RequiredSlots: all, EligibleTAIDs: []string{"ta1", "ta2", "ta3"}}}
	tas := []TA{
		{ID: "ta1", MaxWeeklyHours: 2, AvailableSlots: all},
		{ID: "ta2", MaxWeeklyHours: 2, AvailableSlots: all},
		{ID: "ta3", MaxWeeklyHours: 2, AvailableSlots: all},
	}

	r1, err := Schedule(courses, tas, Policies{Independence: true}, true, 0)
	require.NoError(t, err)
	r2, err := Schedule(courses, tas, Policies{Independence: true}, true, 0)
	require.NoError(t, err)
	assert.Equal(t, r1.Schedule.Assignments, r2.Schedule.Assignments, "seed 0 must not shuffle candidates")
}

func TestScheduleRejectsDuplicateCourseIDs(t *testing.T) {
	slot := NewTimeSlot(Sunday, 1, Tutorial)
	courses := []Course{
		{ID: "dup", RequiredSlots: []TimeSlot{slot}, EligibleTAIDs: []string{"ta1"}},
		{ID: "dup", RequiredSlots: []TimeSlot{slot}, EligibleTAIDs: []string{"ta1"}},
	}
	tas := []TA{{ID: "ta1", MaxWeeklyHours: 10, AvailableSlots: []TimeSlot{slot}}}

	_, err := Schedule(courses, tas, Policies{Independence: true}, false, 1)
	assert.Error(t, err)
}

func TestValidateSwapRejectsConflictWithOwnOtherCourse(t *testing.T) {
	slot := NewTimeSlot(Sunday, 1, Tutorial)
	other := NewTimeSlot(Monday, 1, Tutorial)
	existing := []Assignment{{TAID: "ta1", CourseID: "other", Slot: slot}}
	tas := []TA{{ID: "ta1", MaxWeeklyHours: 10, AvailableSlots: []TimeSlot{slot, other}}}

	ok, violations := ValidateSwap(existing, tas, "courseA", "ta1", []TimeSlot{slot}, Policies{Independence: true})
	assert.False(t, ok)
	assert.NotEmpty(t, violations)

	ok, violations = ValidateSwap(existing, tas, "courseA", "ta1", []TimeSlot{other}, Policies{Independence: true})
	assert.True(t, ok)
	assert.Empty(t, violations)
}
