package engine

import "sort"

// orderCourses sorts courses by descending difficulty, so the hardest
// to staff are scheduled first while TAs still have the most
// capacity: (difficulty ratio, total required hours, number of
// eligible TAs), all descending, ties broken by input order.
func orderCourses(ws *workspace, courses []Course) []Course {
	ordered := append([]Course(nil), courses...)
	difficulty := make([]float64, len(ordered))
	for i, c := range ordered {
		denom := countWithCapacity(ws, c)
		if denom == 0 {
			denom = 1
		}
		difficulty[i] = float64(len(c.RequiredSlots)) / float64(denom)
	}
	idx := make([]int, len(ordered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if difficulty[i] != difficulty[j] {
			return difficulty[i] > difficulty[j]
		}
		if ordered[i].TotalHours() != ordered[j].TotalHours() {
			return ordered[i].TotalHours() > ordered[j].TotalHours()
		}
		return len(ordered[i].EligibleTAIDs) > len(ordered[j].EligibleTAIDs)
	})
	out := make([]Course, len(ordered))
	for i, j := range idx {
		out[i] = ordered[j]
	}
	return out
}

// countWithCapacity is the number of TAs eligible for c that still
// have at least one slot's worth of weekly capacity left, used as the
// denominator of its difficulty ratio — a course with few eligible
// TAs relative to its slot count is harder to staff and goes first.
func countWithCapacity(ws *workspace, c Course) int {
	count := 0
	for _, taID := range c.EligibleTAIDs {
		if ws.remainingCapacity(taID) >= DefaultSlotDuration {
			count++
		}
	}
	return count
}

// scheduleAllCourses runs the course scheduler over every course in
// priority order against a shared workspace, then merges the results
// and resolves any cross-course conflicts that the merge surfaces.
func scheduleAllCourses(ws *workspace, courses []Course, policies Policies) ([]Assignment, []UnassignedSlot, []string) {
	ordered := orderCourses(ws, courses)

	var assignments []Assignment
	var unassigned []UnassignedSlot
	var violations []string

	for _, course := range ordered {
		res := scheduleCourse(ws, course, policies)
		assignments = append(assignments, res.assignments...)
		violations = append(violations, res.violations...)
		for _, slot := range res.unassigned {
			unassigned = append(unassigned, UnassignedSlot{CourseID: course.ID, Slot: slot})
		}
	}

	coursesByID := make(map[string]Course, len(courses))
	for _, c := range courses {
		coursesByID[c.ID] = c
	}
	resolved, freed, resolutions := resolveConflicts(ws, assignments, coursesByID)
	violations = append(violations, resolutions...)
	for _, f := range freed {
		unassigned = append(unassigned, f)
	}

	return resolved, unassigned, violations
}
