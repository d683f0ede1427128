package engine

import (
	"math"
	"sort"
)

// courseResult is what scheduling a single course against the shared
// workspace produces.
type courseResult struct {
	assignments []Assignment
	violations  []string
	unassigned  []TimeSlot
}

// scheduleCourse assigns course's required slots to its eligible TAs,
// using the fairness strategy when policies.FairnessMode is set and
// the plain greedy strategy otherwise.
func scheduleCourse(ws *workspace, course Course, policies Policies) courseResult {
	if policies.FairnessMode {
		return scheduleCourseFairness(ws, course, policies)
	}
	return scheduleCourseGreedy(ws, course, policies)
}

// scheduleCourseGreedy walks course.EligibleTAIDs in order; each TA
// takes the highest-scoring legal combination of the slots still
// unassigned that it can reach, until the pool of required slots is
// exhausted or every eligible TA has been tried once.
func scheduleCourseGreedy(ws *workspace, course Course, policies Policies) courseResult {
	validator := NewPolicyValidator(policies)
	unassigned := make(map[SlotKey]bool, len(course.RequiredSlots))
	for _, s := range course.RequiredSlots {
		unassigned[s.Key()] = true
	}

	var result courseResult
	for _, taID := range course.EligibleTAIDs {
		ta := ws.ta(taID)
		if ta == nil {
			continue
		}
		remaining := ws.remainingCapacity(taID)
		if remaining < DefaultSlotDuration {
			continue
		}
		maxSlots := remaining / DefaultSlotDuration
		if maxSlots < 1 {
			continue
		}

		var pending []TimeSlot
		for _, s := range course.RequiredSlots {
			if unassigned[s.Key()] {
				pending = append(pending, s)
			}
		}
		available := filterAvailableForCourse(ws, taID, course.ID, pending, false)
		if len(available) == 0 {
			continue
		}
		combos := validator.LegalCombinations(available, maxSlots)
		if len(combos) == 0 {
			continue
		}
		best := selectBestCombination(ta, combos)

		var taken []TimeSlot
		for _, slot := range best {
			if !unassigned[slot.Key()] {
				continue
			}
			if !ws.withinPerCourseCap(taID, course.ID, slot.duration()) {
				continue
			}
			taken = append(taken, slot)
			delete(unassigned, slot.Key())
		}
		if len(taken) == 0 {
			continue
		}

		ok, violations := validator.Validate(taken)
		if !ok {
			result.violations = append(result.violations, violations...)
		}
		for _, slot := range taken {
			ws.assign(taID, course.ID, slot)
			result.assignments = append(result.assignments, Assignment{TAID: taID, CourseID: course.ID, Slot: slot})
		}
	}

	for _, s := range course.RequiredSlots {
		if unassigned[s.Key()] {
			result.unassigned = append(result.unassigned, s)
		}
	}
	return result
}

// scheduleCourseFairness distributes course's required slots across
// its eligible TAs so each one ends up as close as possible to an
// equal share, preferring slots with fewer willing TAs first so the
// hardest-to-fill slots are not left for last.
func scheduleCourseFairness(ws *workspace, course Course, policies Policies) courseResult {
	validator := NewPolicyValidator(policies)

	var eligible []string
	for _, taID := range course.EligibleTAIDs {
		if ws.ta(taID) == nil {
			continue
		}
		if ws.remainingCapacity(taID) >= DefaultSlotDuration {
			eligible = append(eligible, taID)
		}
	}
	if len(eligible) == 0 {
		return courseResult{unassigned: append([]TimeSlot(nil), course.RequiredSlots...)}
	}

	targetHours := course.TotalHours() / len(eligible)

	slots := sortSlotsByDifficulty(ws, course, eligible)
	perTA := make(map[string][]TimeSlot, len(eligible))

	var result courseResult
	for _, slot := range slots {
		var pool []string
		for _, taID := range eligible {
			if !ws.isAvailableForCourse(taID, course.ID, slot, false) {
				continue
			}
			if !ws.withinPerCourseCap(taID, course.ID, slot.duration()) {
				continue
			}
			if ws.remainingCapacity(taID) < slot.duration() {
				continue
			}
			currentHours := hoursOf(perTA[taID])
			if currentHours < targetHours+slot.duration() {
				pool = append(pool, taID)
			}
		}
		if len(pool) == 0 {
			for _, taID := range eligible {
				if ws.isAvailableForCourse(taID, course.ID, slot, false) &&
					ws.withinPerCourseCap(taID, course.ID, slot.duration()) &&
					ws.remainingCapacity(taID) >= slot.duration() {
					pool = append(pool, taID)
				}
			}
		}
		if len(pool) == 0 {
			result.unassigned = append(result.unassigned, slot)
			continue
		}

		sort.SliceStable(pool, func(i, j int) bool {
			gi := hoursOf(perTA[pool[i]]) - targetHours
			gj := hoursOf(perTA[pool[j]]) - targetHours
			if gi != gj {
				return gi < gj
			}
			return len(perTA[pool[i]]) < len(perTA[pool[j]])
		})
		chosen := pool[0]
		perTA[chosen] = append(perTA[chosen], slot)
	}

	for _, taID := range eligible {
		slots := perTA[taID]
		if len(slots) == 0 {
			continue
		}
		ok, violations := validator.Validate(slots)
		if !ok {
			result.violations = append(result.violations, violations...)
		}
		for _, slot := range slots {
			ws.assign(taID, course.ID, slot)
			result.assignments = append(result.assignments, Assignment{TAID: taID, CourseID: course.ID, Slot: slot})
		}
	}
	return result
}

func hoursOf(slots []TimeSlot) int {
	total := 0
	for _, s := range slots {
		total += s.duration()
	}
	return total
}

// sortSlotsByDifficulty orders course's required slots by ascending
// number of eligible TAs that could take them, so the hardest slots
// to fill are considered first.
func sortSlotsByDifficulty(ws *workspace, course Course, eligible []string) []TimeSlot {
	slots := append([]TimeSlot(nil), course.RequiredSlots...)
	difficulty := make(map[SlotKey]int, len(slots))
	for _, slot := range slots {
		count := 0
		for _, taID := range eligible {
			if ws.isAvailableForCourse(taID, course.ID, slot, false) {
				count++
			}
		}
		difficulty[slot.Key()] = count
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return difficulty[slots[i].Key()] < difficulty[slots[j].Key()]
	})
	return slots
}

// filterAvailableForCourse returns the subset of slots that taID is
// available for within the scope of courseID.
func filterAvailableForCourse(ws *workspace, taID, courseID string, slots []TimeSlot, relaxed bool) []TimeSlot {
	var out []TimeSlot
	for _, s := range slots {
		if ws.isAvailableForCourse(taID, courseID, s, relaxed) {
			out = append(out, s)
		}
	}
	return out
}

// selectBestCombination picks the highest-scoring combination for ta,
// breaking ties toward the first combination produced (legal
// combinations are generated in a fixed order, so this is
// deterministic).
func selectBestCombination(ta *TA, combos [][]TimeSlot) []TimeSlot {
	best := combos[0]
	bestScore := scoreCombination(ta, best)
	for _, c := range combos[1:] {
		if s := scoreCombination(ta, c); s > bestScore {
			bestScore = s
			best = c
		}
	}
	return best
}

// scoreCombination sums, per slot, max(0, 10 - preference_rank) when
// ta ranked the slot, or a neutral 5 when it didn't, plus a 0.5-per-
// slot bonus that favors combinations covering more slots.
func scoreCombination(ta *TA, combo []TimeSlot) float64 {
	score := 0.0
	for _, slot := range combo {
		if rank, ok := ta.PreferenceRank[slot.Key()]; ok {
			score += math.Max(0, 10-float64(rank))
		} else {
			score += 5
		}
	}
	score += float64(len(combo)) * 0.5
	return score
}
