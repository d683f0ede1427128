package engine

import (
	"fmt"
	"time"
)

// Options overrides the backtracking driver's defaults. A zero or
// negative BacktrackDepthGuard or BacktrackTimeout falls back to
// DefaultBacktrackDepthGuard or DefaultBacktrackTimeout.
type Options struct {
	Optimize            bool
	Seed                int64
	BacktrackDepthGuard int
	BacktrackTimeout    time.Duration
}

// Schedule is the engine's single entry point: a pure function of its
// inputs that assigns TAs to every course's required slots, subject
// to policies, and reports whatever it could not resolve. It never
// mutates courses or tas, retains no state between calls, and never
// spawns goroutines — callers needing concurrency run independent
// calls in parallel themselves.
func Schedule(courses []Course, tas []TA, policies Policies, optimize bool, seed int64) (*Result, error) {
	return ScheduleWithOptions(courses, tas, policies, Options{
		Optimize:            optimize,
		Seed:                seed,
		BacktrackDepthGuard: DefaultBacktrackDepthGuard,
		BacktrackTimeout:    DefaultBacktrackTimeout,
	})
}

// ScheduleWithOptions is Schedule with the backtracking driver's depth
// guard and timeout made explicit, for callers (the service layer)
// that source them from configuration instead of accepting defaults.
func ScheduleWithOptions(courses []Course, tas []TA, policies Policies, opts Options) (*Result, error) {
	if err := validateInput(courses, tas); err != nil {
		return nil, err
	}

	tasByID := make(map[string]*TA, len(tas))
	for i := range tas {
		tasByID[tas[i].ID] = &tas[i]
	}
	coursesByID := make(map[string]Course, len(courses))
	for _, c := range courses {
		coursesByID[c.ID] = c
	}

	ws := newWorkspace(tas)

	assignments, unassigned, violations := scheduleAllCourses(ws, courses, policies)

	relaxed := false
	if opts.Optimize && len(unassigned) > 0 {
		depthGuard := opts.BacktrackDepthGuard
		if depthGuard <= 0 {
			depthGuard = DefaultBacktrackDepthGuard
		}
		timeout := opts.BacktrackTimeout
		if timeout <= 0 {
			timeout = DefaultBacktrackTimeout
		}
		deadline := time.Now().Add(timeout)

		filled, stillUnassigned, usedRelaxation := backtrackFill(ws, unassigned, coursesByID, policies, opts.Seed, depthGuard, deadline)
		assignments = append(assignments, filled...)
		unassigned = stillUnassigned
		relaxed = usedRelaxation

		var freed []UnassignedSlot
		var resolutions []string
		assignments, freed, resolutions = resolveConflicts(ws, assignments, coursesByID)
		unassigned = append(unassigned, freed...)
		violations = append(violations, resolutions...)
	}

	var balanceMessages []string
	if opts.Optimize {
		assignments, balanceMessages = balanceWorkloads(ws, assignments, policies, tasByID)
	}

	conflicts := detectConflicts(assignments, tasByID)
	stats := computeStats(assignments, courses, tas, unassigned, conflicts, violations)

	success := len(unassigned) == 0 && len(conflicts) == 0
	message := buildMessage(success, unassigned, conflicts, violations)

	return &Result{
		Schedule:         Schedule{Assignments: assignments, Courses: courses},
		Success:          success,
		Message:          message,
		UnassignedSlots:  unassigned,
		PolicyViolations: violations,
		Conflicts:        conflicts,
		Stats:            stats,
		Relaxed:          relaxed,
		Notes:            balanceMessages,
	}, nil
}

func buildMessage(success bool, unassigned []UnassignedSlot, conflicts []Conflict, violations []string) string {
	if success && len(violations) == 0 {
		return "schedule generated with every required slot covered"
	}
	if success {
		return fmt.Sprintf("schedule generated with %d policy violation(s) recorded", len(violations))
	}
	return fmt.Sprintf("schedule incomplete: %d slot(s) unassigned, %d conflict(s) detected", len(unassigned), len(conflicts))
}

func validateInput(courses []Course, tas []TA) error {
	seenTA := make(map[string]bool, len(tas))
	for _, t := range tas {
		if t.ID == "" {
			return fmt.Errorf("engine: TA with empty ID")
		}
		if seenTA[t.ID] {
			return fmt.Errorf("engine: duplicate TA id %q", t.ID)
		}
		seenTA[t.ID] = true
		if t.MaxWeeklyHours < 0 {
			return fmt.Errorf("engine: TA %q has a negative max weekly hours", t.ID)
		}
	}
	seenCourse := make(map[string]bool, len(courses))
	for _, c := range courses {
		if c.ID == "" {
			return fmt.Errorf("engine: course with empty ID")
		}
		if seenCourse[c.ID] {
			return fmt.Errorf("engine: duplicate course id %q", c.ID)
		}
		seenCourse[c.ID] = true
		if len(c.RequiredSlots) == 0 {
			return fmt.Errorf("engine: course %q has no required slots", c.ID)
		}
	}
	return nil
}

func computeStats(assignments []Assignment, courses []Course, tas []TA, unassigned []UnassignedSlot, conflicts []Conflict, violations []string) Stats {
	tasByID := make(map[string]*TA, len(tas))
	for i := range tas {
		tasByID[tas[i].ID] = &tas[i]
	}
	workloads := calculateWorkloadStats(assignments, tasByID)

	var sumUtil float64
	for _, w := range workloads {
		sumUtil += w.UtilizationRate
	}
	avgWorkload := 0.0
	if len(workloads) > 0 {
		avgWorkload = sumUtil / float64(len(workloads))
	}
	var variance float64
	for _, w := range workloads {
		d := w.UtilizationRate - avgWorkload
		variance += d * d
	}
	if len(workloads) > 0 {
		variance /= float64(len(workloads))
	}

	assignedByCourse := make(map[string]map[SlotKey]bool, len(courses))
	for _, a := range assignments {
		if assignedByCourse[a.CourseID] == nil {
			assignedByCourse[a.CourseID] = make(map[SlotKey]bool)
		}
		assignedByCourse[a.CourseID][a.Slot.Key()] = true
	}

	totalRequired := 0
	coveredCourses := 0
	var coverageSum float64
	for _, c := range courses {
		totalRequired += len(c.RequiredSlots)
		covered := len(assignedByCourse[c.ID])
		if len(c.RequiredSlots) > 0 {
			coverageSum += float64(covered) / float64(len(c.RequiredSlots))
			if covered == len(c.RequiredSlots) {
				coveredCourses++
			}
		}
	}
	avgCoverage := 0.0
	if len(courses) > 0 {
		avgCoverage = coverageSum / float64(len(courses))
	}

	successRate := 0.0
	if totalRequired > 0 {
		successRate = float64(len(assignments)) / float64(totalRequired)
	}

	return Stats{
		TotalAssignments:      len(assignments),
		TotalTAs:              len(tas),
		TotalCourses:          len(courses),
		AverageTAWorkload:     avgWorkload,
		WorkloadVariance:      variance,
		AverageCourseCoverage: avgCoverage,
		FullyCoveredCourses:   coveredCourses,
		ConflictsDetected:     len(conflicts),
		PolicyViolations:      len(violations),
		SuccessRate:           successRate,
		TAWorkloads:           workloads,
	}
}

// ValidateSwap checks whether replacing taID's assigned slots for
// courseID within an already-built schedule with proposed would be
// legal: available, conflict-free against the TA's other courses,
// within capacity and per-course caps, and policy-legal on its own.
// It does not mutate existing or re-run the engine — it is the
// interactive single-edit check described separately from the batch
// engine.
func ValidateSwap(existing []Assignment, tas []TA, courseID, taID string, proposed []TimeSlot, policies Policies) (bool, []string) {
	var target *TA
	for i := range tas {
		if tas[i].ID == taID {
			target = &tas[i]
			break
		}
	}
	if target == nil {
		return false, []string{fmt.Sprintf("unknown TA %q", taID)}
	}

	var otherSlots []TimeSlot
	for _, a := range existing {
		if a.TAID != taID || a.CourseID == courseID {
			continue
		}
		otherSlots = append(otherSlots, a.Slot)
	}

	var violations []string
	for _, slot := range proposed {
		if !IsAvailable(target, slot, otherSlots) {
			violations = append(violations, fmt.Sprintf("%s is not available for %s", taID, slot))
		}
	}
	if hasParallelConflict(proposed) {
		violations = append(violations, "proposed slots conflict with each other")
	}

	proposedHours := 0
	for _, s := range proposed {
		proposedHours += s.duration()
	}
	otherHours := 0
	for _, s := range otherSlots {
		otherHours += s.duration()
	}
	if otherHours+proposedHours > target.MaxWeeklyHours {
		violations = append(violations, fmt.Sprintf("%s would exceed its %dh weekly cap", taID, target.MaxWeeklyHours))
	}
	if cap, ok := target.PerCourseHoursCap[courseID]; ok && cap > 0 && proposedHours > cap {
		violations = append(violations, fmt.Sprintf("%s would exceed its %dh cap for course %s", taID, cap, courseID))
	}

	validator := NewPolicyValidator(policies)
	if ok, polViolations := validator.Validate(proposed); !ok {
		violations = append(violations, polViolations...)
	}

	return len(violations) == 0, violations
}

// SuggestImprovements derives human-readable suggestions from a
// finished Result — purely a view over Stats/UnassignedSlots/
// Conflicts, never re-running any part of the engine.
func SuggestImprovements(result *Result) []string {
	var suggestions []string
	if len(result.UnassignedSlots) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"%d required slot(s) remain unassigned; consider widening TA availability or relaxing policies", len(result.UnassignedSlots)))
	}
	for _, c := range result.Conflicts {
		suggestions = append(suggestions, fmt.Sprintf("unresolved %s conflict for %s: %s", c.Type, c.TAID, c.Description))
	}
	suggestions = append(suggestions, suggestWorkloadImprovements(result.Stats.TAWorkloads)...)
	return suggestions
}
