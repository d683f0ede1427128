package dto

// TimeSlotDTO is the wire shape of a schedulable window: a weekday, a
// slot number, and whether the slot is a tutorial or a lab.
type TimeSlotDTO struct {
	Day        string `json:"day" validate:"required,oneof=SATURDAY SUNDAY MONDAY TUESDAY WEDNESDAY THURSDAY"`
	SlotNumber int    `json:"slotNumber" validate:"required,min=1"`
	SlotType   string `json:"slotType" validate:"required,oneof=TUTORIAL LAB"`
}

// PoliciesDTO selects which composite scheduling policy applies to a
// generation request. The flags combine; independence is turned on
// when none of Independence, EqualCount or NumberMatching is set.
// FairnessMode only picks the course scheduling strategy.
type PoliciesDTO struct {
	Independence   bool `json:"independence"`
	EqualCount     bool `json:"equalCount"`
	NumberMatching bool `json:"numberMatching"`
	FairnessMode   bool `json:"fairnessMode"`
}

// CourseDTO describes one course's weekly slot demand and the TAs
// eligible to cover it, in priority order.
type CourseDTO struct {
	ID            string        `json:"id" validate:"required"`
	Name          string        `json:"name"`
	RequiredSlots []TimeSlotDTO `json:"requiredSlots" validate:"required,min=1,dive"`
	EligibleTAIDs []string      `json:"eligibleTaIds" validate:"required,min=1,dive,required"`
}

// TADTO describes one teaching assistant's capacity and constraints.
type TADTO struct {
	ID                       string         `json:"id" validate:"required"`
	Name                     string         `json:"name"`
	MaxWeeklyHours           int            `json:"maxWeeklyHours" validate:"min=0"`
	AvailableSlots           []TimeSlotDTO  `json:"availableSlots"`
	BlockedSlots             []TimeSlotDTO  `json:"blockedSlots"`
	DayOff                   *string        `json:"dayOff,omitempty"`
	Premasters               bool           `json:"premasters"`
	PreferenceRanks          map[string]int `json:"preferenceRanks"`
	PerCourseAllocationHours map[string]int `json:"perCourseAllocationHours"`
}

// GenerateScheduleRequest instructs the generator to build a proposal
// for a term/class using an explicit course and TA roster. When TAs is
// empty the generator builds the TAs from the teacher preferences on
// file for the IDs listed in each course's EligibleTAIDs.
type GenerateScheduleRequest struct {
	TermID   string      `json:"termId" validate:"required"`
	ClassID  string      `json:"classId" validate:"required"`
	Courses  []CourseDTO `json:"courses" validate:"required,min=1,dive"`
	TAs      []TADTO     `json:"tas" validate:"omitempty,dive"`
	Policies PoliciesDTO `json:"policies"`
	Optimize bool        `json:"optimize"`
	Seed     int64       `json:"seed"`
}

// AssignmentDTO is one TA-to-slot assignment within a generated or
// persisted schedule.
type AssignmentDTO struct {
	TAID     string      `json:"taId"`
	CourseID string      `json:"courseId"`
	Slot     TimeSlotDTO `json:"slot"`
}

// UnassignedSlotDTO names a required slot the generator could not
// cover, along with why.
type UnassignedSlotDTO struct {
	CourseID string      `json:"courseId"`
	Slot     TimeSlotDTO `json:"slot"`
	Reason   string      `json:"reason"`
}

// ConflictDTO is one detected scheduling conflict.
type ConflictDTO struct {
	Type        string          `json:"type"`
	TAID        string          `json:"taId"`
	Description string          `json:"description"`
	Severity    int             `json:"severity"`
	Involved    []AssignmentDTO `json:"involved,omitempty"`
}

// WorkloadStatDTO reports one TA's hours against its weekly cap.
type WorkloadStatDTO struct {
	TAID            string  `json:"taId"`
	TAName          string  `json:"taName,omitempty"`
	CurrentHours    int     `json:"currentHours"`
	MaxHours        int     `json:"maxHours"`
	UtilizationRate float64 `json:"utilizationRate"`
}

// ScheduleStatsDTO summarizes a generated schedule's quality.
type ScheduleStatsDTO struct {
	TotalAssignments      int               `json:"totalAssignments"`
	TotalTAs              int               `json:"totalTAs"`
	TotalCourses          int               `json:"totalCourses"`
	AverageTAWorkload     float64           `json:"averageTaWorkload"`
	WorkloadVariance      float64           `json:"workloadVariance"`
	AverageCourseCoverage float64           `json:"averageCourseCoverage"`
	FullyCoveredCourses   int               `json:"fullyCoveredCourses"`
	ConflictsDetected     int               `json:"conflictsDetected"`
	PolicyViolations      int               `json:"policyViolations"`
	SuccessRate           float64           `json:"successRate"`
	TAWorkloads           []WorkloadStatDTO `json:"taWorkloads"`
}

// GenerateScheduleResponse returns the built timetable proposal.
type GenerateScheduleResponse struct {
	ProposalID       string              `json:"proposalId"`
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	Relaxed          bool                `json:"relaxed"`
	Assignments      []AssignmentDTO     `json:"assignments"`
	UnassignedSlots  []UnassignedSlotDTO `json:"unassignedSlots"`
	PolicyViolations []string            `json:"policyViolations"`
	Conflicts        []ConflictDTO       `json:"conflicts"`
	Notes            []string            `json:"notes,omitempty"`
	Stats            ScheduleStatsDTO    `json:"stats"`
}

// SaveScheduleRequest persists a proposal into semester schedules.
type SaveScheduleRequest struct {
	ProposalID    string `json:"proposalId" validate:"required"`
	CommitToDaily bool   `json:"commitToDaily"`
}

// SemesterScheduleQuery filters schedule summaries by class and term.
type SemesterScheduleQuery struct {
	TermID  string `form:"termId" json:"termId"`
	ClassID string `form:"classId" json:"classId"`
}

// ValidateSwapRequest checks whether moving one TA's assignment for a
// single course to a different set of slots would stay legal.
type ValidateSwapRequest struct {
	ProposalID string        `json:"proposalId" validate:"required"`
	CourseID   string        `json:"courseId" validate:"required"`
	TAID       string        `json:"taId" validate:"required"`
	Proposed   []TimeSlotDTO `json:"proposed" validate:"required,min=1,dive"`
}

// ValidateSwapResponse reports whether the proposed swap is legal, and
// why not when it is not.
type ValidateSwapResponse struct {
	Legal      bool     `json:"legal"`
	Violations []string `json:"violations,omitempty"`
}

// ConflictsResponse lists the conflicts still present in a stored
// proposal.
type ConflictsResponse struct {
	ProposalID string        `json:"proposalId"`
	Conflicts  []ConflictDTO `json:"conflicts"`
}

// SuggestionsResponse lists human-readable improvement suggestions for
// a stored proposal.
type SuggestionsResponse struct {
	ProposalID  string   `json:"proposalId"`
	Suggestions []string `json:"suggestions"`
}
