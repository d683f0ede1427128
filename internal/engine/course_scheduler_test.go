package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleCourseGreedyAssignsWithinCapacity(t *testing.T) {
	course := Course{
		ID:            "c1",
		RequiredSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)},
		EligibleTAIDs: []string{"ta1"},
	}
	ta := TA{
		ID:             "ta1",
		MaxWeeklyHours: 2,
		AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)},
	}
	ws := newWorkspace([]TA{ta})
	res := scheduleCourseGreedy(ws, course, Policies{Independence: true})

	assert.Len(t, res.assignments, 1, "only 2 hours of capacity means only one 2-hour slot can be taken")
	assert.Len(t, res.unassigned, 1)
}

func TestScheduleCourseGreedyPrefersHigherScoringCombination(t *testing.T) {
	course := Course{
		ID:            "c1",
		RequiredSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)},
		EligibleTAIDs: []string{"ta1"},
	}
	ta := TA{
		ID:             "ta1",
		MaxWeeklyHours: 4,
		AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)},
		PreferenceRank: map[SlotKey]int{
			NewTimeSlot(Sunday, 1, Tutorial).Key(): 1,
			NewTimeSlot(Monday, 1, Tutorial).Key(): 1,
		},
	}
	ws := newWorkspace([]TA{ta})
	res := scheduleCourseGreedy(ws, course, Policies{Independence: true})

	assert.Len(t, res.assignments, 2)
	assert.Empty(t, res.unassigned)
}

func TestScheduleCourseFairnessSpreadsAcrossEligibleTAs(t *testing.T) {
	course := Course{
		ID: "c1",
		RequiredSlots: []TimeSlot{
			NewTimeSlot(Sunday, 1, Tutorial),
			NewTimeSlot(Monday, 1, Tutorial),
			NewTimeSlot(Tuesday, 1, Tutorial),
			NewTimeSlot(Wednesday, 1, Tutorial),
		},
		EligibleTAIDs: []string{"ta1", "ta2"},
	}
	all := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
		NewTimeSlot(Wednesday, 1, Tutorial),
	}
	tas := []TA{
		{ID: "ta1", MaxWeeklyHours: 8, AvailableSlots: all},
		{ID: "ta2", MaxWeeklyHours: 8, AvailableSlots: all},
	}
	ws := newWorkspace(tas)
	res := scheduleCourseFairness(ws, course, Policies{Independence: true, FairnessMode: true})

	assert.Len(t, res.assignments, 4)
	hoursByTA := map[string]int{}
	for _, a := range res.assignments {
		hoursByTA[a.TAID] += a.Slot.duration()
	}
	assert.Equal(t, 4, hoursByTA["ta1"])
	assert.Equal(t, 4, hoursByTA["ta2"])
}
