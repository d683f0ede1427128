package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TeacherUnavailableSlot describes a blocked teaching window.
type TeacherUnavailableSlot struct {
	DayOfWeek string `json:"day_of_week"`
	TimeRange string `json:"time_range"`
}

// TeacherPreference stores capacity and availability rules for a teacher.
type TeacherPreference struct {
	ID             string         `db:"id" json:"id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	MaxLoadPerDay  int            `db:"max_load_per_day" json:"max_load_per_day"`
	MaxLoadPerWeek int            `db:"max_load_per_week" json:"max_load_per_week"`
	Unavailable    types.JSONText `db:"unavailable" json:"unavailable"`

	// Premasters restricts this teacher (a teaching assistant, in the
	// scheduler's domain) to slot numbers 1 and 2 on Saturday.
	Premasters bool `db:"premasters" json:"premasters"`
	// DayOff names a weekday this teacher is never assigned, independent
	// of AvailableSlots/BlockedSlots.
	DayOff *string `db:"day_off" json:"day_off,omitempty"`
	// BlockedSlots is a JSON array of {day, slot_number, slot_type}
	// objects this teacher is not assigned to under strict availability
	// checks; the backtracking driver's relaxed retry lifts this rule.
	BlockedSlots types.JSONText `db:"blocked_slots" json:"blocked_slots,omitempty"`
	// AvailableSlots is a JSON array of {day, slot_number, slot_type}
	// objects this teacher can be assigned to. Empty/null means every
	// slot not otherwise blocked is available.
	AvailableSlots types.JSONText `db:"available_slots" json:"available_slots,omitempty"`
	// PreferenceRanks is a JSON object mapping a slot key to a 1-based
	// rank, lower meaning more preferred.
	PreferenceRanks types.JSONText `db:"preference_ranks" json:"preference_ranks,omitempty"`
	// PerCourseAllocationHours is a JSON object mapping a subject ID to
	// the maximum weekly hours this teacher may take on that subject; a
	// missing or zero entry means unlimited.
	PerCourseAllocationHours types.JSONText `db:"per_course_allocation_hours" json:"per_course_allocation_hours,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
