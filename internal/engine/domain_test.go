package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSlotKeyIgnoresDuration(t *testing.T) {
	a := TimeSlot{Day: Sunday, SlotNumber: 1, SlotType: Tutorial, Duration: 2}
	b := TimeSlot{Day: Sunday, SlotNumber: 1, SlotType: Tutorial, Duration: 3}
	assert.Equal(t, a.Key(), b.Key())
}

func TestTimeSlotDaySlotIgnoresType(t *testing.T) {
	tut := NewTimeSlot(Sunday, 1, Tutorial)
	lab := NewTimeSlot(Sunday, 1, Lab)
	assert.Equal(t, tut.DaySlot(), lab.DaySlot())
	assert.NotEqual(t, tut.Key(), lab.Key())
}

func TestIsAvailableRequiresDeclaredAvailability(t *testing.T) {
	ta := &TA{ID: "ta1", MaxWeeklyHours: 10, AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)}}
	assert.True(t, IsAvailable(ta, NewTimeSlot(Sunday, 1, Tutorial), nil))
	assert.False(t, IsAvailable(ta, NewTimeSlot(Monday, 1, Tutorial), nil))
}

func TestHasConflictIgnoresSlotType(t *testing.T) {
	ta := &TA{ID: "ta1", MaxWeeklyHours: 10}
	assigned := []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)}
	assert.True(t, HasConflict(ta, NewTimeSlot(Sunday, 1, Lab), assigned))
	assert.False(t, HasConflict(ta, NewTimeSlot(Sunday, 2, Lab), assigned))
}

func TestIsAvailableRespectsDayOff(t *testing.T) {
	sunday := Sunday
	ta := &TA{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)},
		DayOff:         &sunday,
	}
	assert.False(t, IsAvailable(ta, NewTimeSlot(Sunday, 1, Tutorial), nil))
	assert.True(t, IsAvailableRelaxed(ta, NewTimeSlot(Sunday, 1, Tutorial), nil))
}

func TestIsAvailableRespectsBlockedSlots(t *testing.T) {
	ta := &TA{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		AvailableSlots: []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial)},
		BlockedSlots:   []DaySlot{{Day: Sunday, SlotNumber: 1}},
	}
	assert.False(t, IsAvailable(ta, NewTimeSlot(Sunday, 1, Tutorial), nil))
	assert.True(t, IsAvailableRelaxed(ta, NewTimeSlot(Sunday, 1, Tutorial), nil))
}

func TestPremastersSaturdayRule(t *testing.T) {
	ta := &TA{
		ID:             "ta1",
		MaxWeeklyHours: 10,
		Premasters:     true,
		AvailableSlots: []TimeSlot{NewTimeSlot(Saturday, 1, Tutorial), NewTimeSlot(Saturday, 3, Tutorial)},
	}
	assert.True(t, IsAvailable(ta, NewTimeSlot(Saturday, 1, Tutorial), nil))
	assert.False(t, IsAvailable(ta, NewTimeSlot(Saturday, 3, Tutorial), nil))
	// Premasters is never relaxed, even under the relaxed variant.
	assert.False(t, IsAvailableRelaxed(ta, NewTimeSlot(Saturday, 3, Tutorial), nil))
}

func TestRemainingCapacityNeverNegative(t *testing.T) {
	ta := &TA{ID: "ta1", MaxWeeklyHours: 2}
	assigned := []TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)}
	assert.Equal(t, 0, RemainingCapacity(ta, assigned))
}
