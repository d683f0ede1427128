package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectConflictsFindsDoubleBookingAndOverCapacity(t *testing.T) {
	slot := NewTimeSlot(Sunday, 1, Tutorial)
	tas := map[string]*TA{
		"ta1": {ID: "ta1", MaxWeeklyHours: 2},
	}
	assignments := []Assignment{
		{TAID: "ta1", CourseID: "courseA", Slot: slot},
		{TAID: "ta1", CourseID: "courseB", Slot: slot},
		{TAID: "ta1", CourseID: "courseC", Slot: NewTimeSlot(Monday, 1, Tutorial)},
	}

	conflicts := detectConflicts(assignments, tas)
	require := assert.New(t)
	require.NotEmpty(conflicts)

	var sawDouble, sawOverCapacity bool
	for _, c := range conflicts {
		if c.Type == DoubleBooking {
			sawDouble = true
			require.Equal(SeverityDoubleBooking, c.Severity)
		}
		if c.Type == OverCapacity {
			sawOverCapacity = true
			require.Equal(SeverityOverCapacity, c.Severity)
		}
	}
	require.True(sawDouble)
	require.True(sawOverCapacity)
	// Double booking outranks over-capacity in the reported order.
	require.Equal(DoubleBooking, conflicts[0].Type)
}

func TestResolveConflictsKeepsHigherScoringSide(t *testing.T) {
	slot := NewTimeSlot(Sunday, 1, Tutorial)
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{slot},
		PreferenceRank: map[SlotKey]int{slot.Key(): 9},
	}}
	ws := newWorkspace(tas)
	ws.assign("ta1", "courseA", slot)
	ws.assign("ta1", "courseB", slot)

	assignments := []Assignment{
		{TAID: "ta1", CourseID: "courseA", Slot: slot},
		{TAID: "ta1", CourseID: "courseB", Slot: slot},
	}
	coursesByID := map[string]Course{
		"courseA": {ID: "courseA", RequiredSlots: []TimeSlot{slot}},
		"courseB": {ID: "courseB", RequiredSlots: []TimeSlot{slot}},
	}
	resolved, freed, messages := resolveConflicts(ws, assignments, coursesByID)

	assert.Len(t, resolved, 1)
	assert.Len(t, freed, 1)
	assert.NotEmpty(t, messages)
}

func TestResolveConflictsRepairsOverCapacity(t *testing.T) {
	slotLiked := NewTimeSlot(Sunday, 1, Tutorial)
	slotOther := NewTimeSlot(Monday, 1, Tutorial)
	tas := []TA{{
		ID:             "ta1",
		MaxWeeklyHours: 2,
		AvailableSlots: []TimeSlot{slotLiked, slotOther},
		PreferenceRank: map[SlotKey]int{slotLiked.Key(): 1},
	}}
	ws := newWorkspace(tas)
	ws.assign("ta1", "courseA", slotLiked)
	ws.assign("ta1", "courseB", slotOther)

	assignments := []Assignment{
		{TAID: "ta1", CourseID: "courseA", Slot: slotLiked},
		{TAID: "ta1", CourseID: "courseB", Slot: slotOther},
	}
	coursesByID := map[string]Course{
		"courseA": {ID: "courseA", RequiredSlots: []TimeSlot{slotLiked}},
		"courseB": {ID: "courseB", RequiredSlots: []TimeSlot{slotOther, slotOther}},
	}
	resolved, freed, messages := resolveConflicts(ws, assignments, coursesByID)

	assert.Len(t, resolved, 1)
	assert.Equal(t, "courseA", resolved[0].CourseID)
	assert.Len(t, freed, 1)
	assert.Equal(t, "courseB", freed[0].CourseID)
	assert.NotEmpty(t, messages)
	assert.Equal(t, 2, ws.work("ta1").totalHours)
}

func TestSuggestResolutionsCoversEveryConflict(t *testing.T) {
	conflicts := []Conflict{
		{Type: DoubleBooking, TAID: "ta1", Description: "d1", Severity: SeverityDoubleBooking, Involved: []Assignment{
			{TAID: "ta1", CourseID: "c1", Slot: NewTimeSlot(Sunday, 1, Tutorial)},
		}},
		{Type: OverCapacity, TAID: "ta2", Description: "d2", Severity: SeverityOverCapacity},
	}
	suggestions := SuggestResolutions(conflicts)
	assert.Len(t, suggestions, 2)
	for _, v := range suggestions {
		assert.NotEmpty(t, v)
	}
}
