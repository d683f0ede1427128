package engine

import (
	"fmt"
	"math"
	"sort"
)

// ConflictType names the three kinds of conflict the resolver knows
// about. Policy-violation conflicts are detected by the policy
// validator during scheduling and surfaced as plain strings in
// Result.PolicyViolations rather than as Conflict values — carried
// over from the original resolver, whose own policy-violation
// detector was a stub that never populated anything.
type ConflictType string

const (
	DoubleBooking ConflictType = "double_booking"
	OverCapacity  ConflictType = "over_capacity"
)

// Severity weights used to rank which conflicts matter most when
// reporting them; double booking is the most serious because it
// breaks a hard invariant outright, over-capacity is next, and a
// policy violation (reported separately) is the least severe.
const (
	SeverityDoubleBooking = 10
	SeverityOverCapacity  = 8
	SeverityPolicy        = 5
)

// Conflict describes one detected problem in a finished schedule.
type Conflict struct {
	Type        ConflictType
	TAID        string
	Description string
	Severity    int
	Involved    []Assignment
}

// detectConflicts re-examines a finished assignment list for double
// bookings and over-capacity TAs. Called after resolution mainly as a
// reporting pass — a successful Result should always come back empty.
func detectConflicts(assignments []Assignment, tas map[string]*TA) []Conflict {
	var conflicts []Conflict

	groups := groupByTADaySlot(assignments)
	for _, key := range groups.order {
		g := groups.byKey[key]
		if len(g) <= 1 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:        DoubleBooking,
			TAID:        g[0].TAID,
			Severity:    SeverityDoubleBooking,
			Involved:    g,
			Description: fmt.Sprintf("%s double-booked at %s", g[0].TAID, g[0].Slot),
		})
	}

	hours := map[string]int{}
	byTA := map[string][]Assignment{}
	var order []string
	for _, a := range assignments {
		if _, ok := byTA[a.TAID]; !ok {
			order = append(order, a.TAID)
		}
		hours[a.TAID] += a.Slot.duration()
		byTA[a.TAID] = append(byTA[a.TAID], a)
	}
	for _, taID := range order {
		ta := tas[taID]
		if ta == nil || hours[taID] <= ta.MaxWeeklyHours {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:        OverCapacity,
			TAID:        taID,
			Severity:    SeverityOverCapacity,
			Involved:    byTA[taID],
			Description: fmt.Sprintf("%s assigned %dh, exceeding its %dh weekly cap", taID, hours[taID], ta.MaxWeeklyHours),
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity > conflicts[j].Severity
	})
	return conflicts
}

type taDaySlotGroups struct {
	byKey map[daySlotKey][]Assignment
	order []daySlotKey
}

type daySlotKey struct {
	taID string
	ds   DaySlot
}

func groupByTADaySlot(assignments []Assignment) taDaySlotGroups {
	g := taDaySlotGroups{byKey: map[daySlotKey][]Assignment{}}
	for _, a := range assignments {
		key := daySlotKey{taID: a.TAID, ds: a.Slot.DaySlot()}
		if _, ok := g.byKey[key]; !ok {
			g.order = append(g.order, key)
		}
		g.byKey[key] = append(g.byKey[key], a)
	}
	return g
}

// resolveConflicts removes double bookings from assignments, keeping
// the higher-scoring assignment in each conflicting group and
// reverting the rest in ws so capacity bookkeeping stays accurate.
// Once double bookings are settled it repairs any TA left over its
// weekly cap by dropping a flexible suffix of that TA's assignments.
func resolveConflicts(ws *workspace, assignments []Assignment, coursesByID map[string]Course) ([]Assignment, []UnassignedSlot, []string) {
	groups := groupByTADaySlot(assignments)

	var resolved []Assignment
	var freed []UnassignedSlot
	var messages []string

	assignedCounts := assignedTACountsByCourse(assignments)

	for _, key := range groups.order {
		g := groups.byKey[key]
		if len(g) == 1 {
			resolved = append(resolved, g[0])
			continue
		}
		best := g[0]
		bestScore := assignmentScore(ws, coursesByID, assignedCounts, best)
		for _, a := range g[1:] {
			if s := assignmentScore(ws, coursesByID, assignedCounts, a); s > bestScore {
				bestScore = s
				best = a
			}
		}
		resolved = append(resolved, best)
		for _, a := range g {
			if a == best {
				continue
			}
			ws.unassign(a.TAID, a.CourseID, a.Slot)
			freed = append(freed, UnassignedSlot{CourseID: a.CourseID, Slot: a.Slot})
			messages = append(messages, fmt.Sprintf(
				"conflict: %s was double-booked at %s between course %s and course %s; kept course %s",
				a.TAID, a.Slot, a.CourseID, best.CourseID, best.CourseID))
		}
	}

	resolved, overCapFreed, overCapMessages := resolveOverCapacity(ws, resolved, coursesByID)
	freed = append(freed, overCapFreed...)
	messages = append(messages, overCapMessages...)

	return resolved, freed, messages
}

// assignmentScore combines the TA's preference rank for the slot with
// how urgently the course needs coverage (required slots per TA
// already assigned to it) and a small bonus for TAs still under 80%
// utilised, so a conflict is broken in favor of whichever assignment
// serves the harder-to-staff course and the less-loaded TA, not just
// the TA's own preference.
func assignmentScore(ws *workspace, coursesByID map[string]Course, assignedCounts map[string]int, a Assignment) float64 {
	ta := ws.ta(a.TAID)
	if ta == nil {
		return 0
	}
	score := 0.0
	if rank, ok := ta.PreferenceRank[a.Slot.Key()]; ok {
		score += math.Max(0, 10-float64(rank))
	}

	course := coursesByID[a.CourseID]
	denom := math.Max(float64(assignedCounts[a.CourseID]), 1)
	score += float64(len(course.RequiredSlots)) / denom

	if tw := ws.work(a.TAID); tw != nil && ta.MaxWeeklyHours > 0 {
		if float64(tw.totalHours)/float64(ta.MaxWeeklyHours) < 0.8 {
			score += 2
		}
	}

	return score
}

// assignmentRemovalPriority is the mirror of assignmentScore used to
// pick which of an over-capacity TA's assignments to drop first: TAs
// keep the slots they prefer and drop assignments to courses that
// already have assignment coverage relative to their slot count (the
// ones easiest to backfill with another TA).
func assignmentRemovalPriority(ws *workspace, coursesByID map[string]Course, assignedCounts map[string]int, a Assignment) float64 {
	priority := 0.0
	if ta := ws.ta(a.TAID); ta != nil {
		if rank, ok := ta.PreferenceRank[a.Slot.Key()]; ok {
			priority -= math.Max(0, 10-float64(rank))
		}
	}
	course := coursesByID[a.CourseID]
	denom := math.Max(float64(len(course.RequiredSlots)), 1)
	priority += float64(assignedCounts[a.CourseID]) / denom
	return priority
}

// assignedTACountsByCourse counts the distinct TAs currently assigned
// to each course, used as the course_urgency/course_flexibility
// denominator term.
func assignedTACountsByCourse(assignments []Assignment) map[string]int {
	seen := map[string]map[string]bool{}
	for _, a := range assignments {
		if seen[a.CourseID] == nil {
			seen[a.CourseID] = map[string]bool{}
		}
		seen[a.CourseID][a.TAID] = true
	}
	counts := make(map[string]int, len(seen))
	for courseID, tas := range seen {
		counts[courseID] = len(tas)
	}
	return counts
}

// resolveOverCapacity drops assignments from any TA left over its
// weekly cap, keeping a legal prefix: assignments are ranked by
// assignmentRemovalPriority (ascending, least flexible/most preferred
// first) and kept while the running total stays within the TA's cap,
// mirroring the original resolver's repair rather than only reporting
// the violation.
func resolveOverCapacity(ws *workspace, assignments []Assignment, coursesByID map[string]Course) ([]Assignment, []UnassignedSlot, []string) {
	hours := map[string]int{}
	byTA := map[string][]Assignment{}
	var order []string
	for _, a := range assignments {
		if _, ok := byTA[a.TAID]; !ok {
			order = append(order, a.TAID)
		}
		hours[a.TAID] += a.Slot.duration()
		byTA[a.TAID] = append(byTA[a.TAID], a)
	}

	assignedCounts := assignedTACountsByCourse(assignments)

	overCapacity := map[string]bool{}
	for _, taID := range order {
		ta := ws.ta(taID)
		if ta != nil && hours[taID] > ta.MaxWeeklyHours {
			overCapacity[taID] = true
		}
	}
	if len(overCapacity) == 0 {
		return assignments, nil, nil
	}

	var resolved []Assignment
	var freed []UnassignedSlot
	var messages []string

	for _, a := range assignments {
		if !overCapacity[a.TAID] {
			resolved = append(resolved, a)
		}
	}

	for _, taID := range order {
		if !overCapacity[taID] {
			continue
		}
		ta := ws.ta(taID)
		group := append([]Assignment(nil), byTA[taID]...)
		sort.SliceStable(group, func(i, j int) bool {
			return assignmentRemovalPriority(ws, coursesByID, assignedCounts, group[i]) <
				assignmentRemovalPriority(ws, coursesByID, assignedCounts, group[j])
		})

		kept := 0
		kepth := 0
		for _, a := range group {
			if kepth+a.Slot.duration() > ta.MaxWeeklyHours {
				break
			}
			kepth += a.Slot.duration()
			kept++
		}

		resolved = append(resolved, group[:kept]...)
		for _, a := range group[kept:] {
			ws.unassign(a.TAID, a.CourseID, a.Slot)
			freed = append(freed, UnassignedSlot{CourseID: a.CourseID, Slot: a.Slot})
		}
		if removed := len(group) - kept; removed > 0 {
			messages = append(messages, fmt.Sprintf(
				"conflict: %s was over its %dh weekly cap; removed %d assignment(s)",
				taID, ta.MaxWeeklyHours, removed))
		}
	}

	return resolved, freed, messages
}

// SuggestResolutions proposes, per conflict, a short list of manual
// fixes a scheduler operator could apply instead of (or in addition
// to) automatic resolution. Keyed by a human-readable conflict label
// so callers can match suggestions back to a specific Conflict.
func SuggestResolutions(conflicts []Conflict) map[string][]string {
	out := make(map[string][]string, len(conflicts))
	for _, c := range conflicts {
		label := fmt.Sprintf("%s:%s", c.Type, c.Description)
		var suggestions []string
		switch c.Type {
		case DoubleBooking:
			for _, a := range c.Involved {
				suggestions = append(suggestions, fmt.Sprintf(
					"reassign %s's course %s slot %s to another eligible TA", a.TAID, a.CourseID, a.Slot))
			}
		case OverCapacity:
			suggestions = append(suggestions, fmt.Sprintf(
				"reduce %s's load by transferring one of its assignments to an under-utilized TA", c.TAID))
		}
		out[label] = suggestions
	}
	return out
}
