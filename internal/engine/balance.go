package engine

import (
	"fmt"
	"math"
	"sort"
)

// Imbalance and utilization thresholds. An imbalance score above
// imbalanceThreshold triggers rebalancing; a TA above
// overloadedThreshold utilization is a transfer source, one below
// underloadedThreshold is a transfer target.
const (
	imbalanceThreshold   = 2.0
	overloadedThreshold  = 0.85
	underloadedThreshold = 0.65
	maxBalanceIterations = 200
)

// calculateWorkloadStats summarizes, per TA, the hours and course
// count the assignment list gives them.
func calculateWorkloadStats(assignments []Assignment, tas map[string]*TA) []WorkloadStat {
	hours := map[string]int{}
	courses := map[string]map[string]bool{}
	for _, a := range assignments {
		hours[a.TAID] += a.Slot.duration()
		if courses[a.TAID] == nil {
			courses[a.TAID] = map[string]bool{}
		}
		courses[a.TAID][a.CourseID] = true
	}

	ids := make([]string, 0, len(tas))
	for id := range tas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stats := make([]WorkloadStat, 0, len(ids))
	for _, id := range ids {
		ta := tas[id]
		h := hours[id]
		util := 0.0
		if ta.MaxWeeklyHours > 0 {
			util = float64(h) / float64(ta.MaxWeeklyHours)
		}
		stats = append(stats, WorkloadStat{
			TAID:            id,
			TAName:          ta.Name,
			CurrentHours:    h,
			MaxHours:        ta.MaxWeeklyHours,
			UtilizationRate: util,
			CourseCount:     len(courses[id]),
		})
	}
	return stats
}

// calculateImbalanceScore is the coefficient of variation of
// utilization rates across all TAs, scaled by 10 so the threshold
// reads as a small, human-sized number.
func calculateImbalanceScore(stats []WorkloadStat) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stats {
		sum += s.UtilizationRate
	}
	mean := sum / float64(len(stats))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, s := range stats {
		d := s.UtilizationRate - mean
		variance += d * d
	}
	variance /= float64(len(stats))
	stdDev := math.Sqrt(variance)
	return (stdDev / mean) * 10
}

func classifyWorkloads(stats []WorkloadStat) (overloaded, underloaded []WorkloadStat) {
	for _, s := range stats {
		switch {
		case s.UtilizationRate > overloadedThreshold:
			overloaded = append(overloaded, s)
		case s.UtilizationRate < underloadedThreshold:
			underloaded = append(underloaded, s)
		}
	}
	sort.SliceStable(overloaded, func(i, j int) bool {
		return overloaded[i].UtilizationRate > overloaded[j].UtilizationRate
	})
	sort.SliceStable(underloaded, func(i, j int) bool {
		return underloaded[i].UtilizationRate < underloaded[j].UtilizationRate
	})
	return overloaded, underloaded
}

// balanceWorkloads moves assignments from overloaded TAs to
// underloaded ones, one transfer at a time, until the imbalance score
// drops to the threshold or no further transferable assignment can be
// found. It mutates ws to keep capacity bookkeeping correct and
// returns the rewritten assignment list alongside a log of the moves
// it made.
func balanceWorkloads(ws *workspace, assignments []Assignment, policies Policies, tas map[string]*TA) ([]Assignment, []string) {
	validator := NewPolicyValidator(policies)
	current := append([]Assignment(nil), assignments...)
	var messages []string

	for iter := 0; iter < maxBalanceIterations; iter++ {
		stats := calculateWorkloadStats(current, tas)
		if calculateImbalanceScore(stats) <= imbalanceThreshold {
			break
		}
		overloaded, underloaded := classifyWorkloads(stats)
		if len(overloaded) == 0 || len(underloaded) == 0 {
			break
		}

		transferred := false
		for _, ov := range overloaded {
			for idx := range current {
				a := current[idx]
				if a.TAID != ov.TAID {
					continue
				}
				for _, un := range underloaded {
					if !canTransfer(ws, validator, a, un.TAID) {
						continue
					}
					ws.unassign(a.TAID, a.CourseID, a.Slot)
					ws.assign(un.TAID, a.CourseID, a.Slot)
					current[idx].TAID = un.TAID
					messages = append(messages, fmt.Sprintf(
						"rebalanced: moved %s's %s assignment for course %s to %s",
						a.TAID, a.Slot, a.CourseID, un.TAID))
					transferred = true
					break
				}
				if transferred {
					break
				}
			}
			if transferred {
				break
			}
		}
		if !transferred {
			break
		}
	}
	return current, messages
}

// canTransfer reports whether moving a to targetID would keep
// targetID within capacity and its per-course cap, leave it
// conflict-free, and keep the resulting slot set policy-legal.
func canTransfer(ws *workspace, validator *PolicyValidator, a Assignment, targetID string) bool {
	if targetID == a.TAID {
		return false
	}
	target := ws.ta(targetID)
	if target == nil {
		return false
	}
	if ws.remainingCapacity(targetID) < a.Slot.duration() {
		return false
	}
	if !ws.withinPerCourseCap(targetID, a.CourseID, a.Slot.duration()) {
		return false
	}
	if !ws.isAvailableGlobal(targetID, a.Slot, false) {
		return false
	}
	existing := ws.courseSlots(targetID, a.CourseID)
	proposed := append(append([]TimeSlot{}, existing...), a.Slot)
	ok, _ := validator.Validate(proposed)
	return ok
}

// getWorkloadReport renders the per-TA workload stats as one
// human-readable line each, sorted by descending utilization so the
// busiest TAs appear first.
func getWorkloadReport(stats []WorkloadStat) []string {
	sorted := append([]WorkloadStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UtilizationRate > sorted[j].UtilizationRate
	})
	report := make([]string, 0, len(sorted))
	for _, s := range sorted {
		report = append(report, fmt.Sprintf(
			"%s: %dh / %dh (%.0f%% utilization) across %d course(s)",
			s.TAName, s.CurrentHours, s.MaxHours, s.UtilizationRate*100, s.CourseCount))
	}
	return report
}

// suggestWorkloadImprovements names specific TAs worth rebalancing
// without actually moving anything — the manual-suggestions
// counterpart to balanceWorkloads.
func suggestWorkloadImprovements(stats []WorkloadStat) []string {
	overloaded, underloaded := classifyWorkloads(stats)
	var suggestions []string
	for _, s := range overloaded {
		suggestions = append(suggestions, fmt.Sprintf(
			"%s is at %.0f%% utilization; consider moving one of its assignments to a less-loaded TA", s.TAName, s.UtilizationRate*100))
	}
	for _, s := range underloaded {
		suggestions = append(suggestions, fmt.Sprintf(
			"%s is at %.0f%% utilization and has room for more assignments", s.TAName, s.UtilizationRate*100))
	}
	return suggestions
}
