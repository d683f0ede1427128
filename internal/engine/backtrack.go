package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// DefaultBacktrackDepthGuard and DefaultBacktrackTimeout bound the
// backtracking driver's search when a caller doesn't override them.
const (
	DefaultBacktrackDepthGuard = 50
	DefaultBacktrackTimeout    = 30 * time.Second
)

// backtrackFrame is one level of the explicit search stack: the slot
// it's trying to fill, the scored (and, with a non-zero seed,
// shuffled) candidate TAs for that slot, and how far through them it
// has gotten.
type backtrackFrame struct {
	candidates []string
	candIdx    int
}

// backtrackFill attempts to place every slot in unassigned by
// backtracking search. It mutates ws as it commits and reverts trial
// assignments, using an explicit stack rather than recursion so the
// depth guard can cap the stack directly instead of relying on Go's
// call stack.
//
// A slot whose strict candidate list is empty is retried with
// day-off and blocked-slot checks relaxed — the only two rules this
// driver relaxes; capacity, the per-course cap and the premasters
// rule are never relaxed. Candidates are not checked against the
// active policies: a slot placed here can leave a TA's per-course
// slot-set outside what the policies allow.
//
// seed == 0 keeps the search fully deterministic: candidates are
// tried in scored order with no shuffling. A non-zero seed activates
// variation mode — the scored candidate list at each depth is
// shuffled with its own rng(seed + depth), so two runs of the same
// input with different seeds explore different feasible solutions
// without one depth's draws perturbing another's.
func backtrackFill(
	ws *workspace,
	unassigned []UnassignedSlot,
	courses map[string]Course,
	policies Policies,
	seed int64,
	depthGuard int,
	deadline time.Time,
) (assignments []Assignment, stillUnassigned []UnassignedSlot, relaxedUsed bool) {
	if len(unassigned) == 0 {
		return nil, nil, false
	}

	stack := make([]*backtrackFrame, 0, len(unassigned))
	results := make([]*Assignment, len(unassigned))

	i := 0
	for i >= 0 && i < len(unassigned) {
		if time.Now().After(deadline) {
			break
		}

		var f *backtrackFrame
		if i < len(stack) {
			f = stack[i]
		} else {
			if i >= depthGuard {
				break
			}
			slot := unassigned[i]
			course := courses[slot.CourseID]
			candidates := candidateTAs(ws, course, slot.Slot, policies, false)
			relaxed := false
			if len(candidates) == 0 {
				candidates = candidateTAs(ws, course, slot.Slot, policies, true)
				relaxed = len(candidates) > 0
			}
			if seed != 0 {
				depthRNG := rand.New(rand.NewSource(seed + int64(i)))
				depthRNG.Shuffle(len(candidates), func(a, b int) {
					candidates[a], candidates[b] = candidates[b], candidates[a]
				})
			}
			f = &backtrackFrame{candidates: candidates}
			stack = append(stack, f)
			if relaxed {
				relaxedUsed = true
			}
		}

		slot := unassigned[i]
		if f.candIdx > 0 {
			prevTA := f.candidates[f.candIdx-1]
			ws.unassign(prevTA, slot.CourseID, slot.Slot)
			results[i] = nil
		}

		if f.candIdx >= len(f.candidates) {
			stack = stack[:i]
			i--
			continue
		}

		taID := f.candidates[f.candIdx]
		f.candIdx++
		ws.assign(taID, slot.CourseID, slot.Slot)
		results[i] = &Assignment{TAID: taID, CourseID: slot.CourseID, Slot: slot.Slot}
		i++
	}

	filled := i
	if filled < 0 {
		filled = 0
	}
	if filled > len(unassigned) {
		filled = len(unassigned)
	}

	for idx := 0; idx < filled; idx++ {
		if results[idx] != nil {
			assignments = append(assignments, *results[idx])
		}
	}
	for idx := filled; idx < len(unassigned); idx++ {
		stillUnassigned = append(stillUnassigned, unassigned[idx])
	}
	return assignments, stillUnassigned, relaxedUsed
}

// candidateTAs lists the TAs who could legally take slot right now
// (enough remaining capacity, room under their per-course cap, and
// available — optionally with day-off and blocked-slot checks
// relaxed), sorted by the scoring tuple (workload-so-far ascending,
// tutorial/lab balance penalty ascending when EqualCount is active,
// preference rank ascending) so the first candidate tried is the one
// the backtracking driver most wants to place here, ties broken by
// EligibleTAIDs order.
func candidateTAs(ws *workspace, course Course, slot TimeSlot, policies Policies, relaxed bool) []string {
	var out []string
	for _, taID := range course.EligibleTAIDs {
		if ws.ta(taID) == nil {
			continue
		}
		if ws.remainingCapacity(taID) < slot.duration() {
			continue
		}
		if !ws.withinPerCourseCap(taID, course.ID, slot.duration()) {
			continue
		}
		if !ws.isAvailableForCourse(taID, course.ID, slot, relaxed) {
			continue
		}
		out = append(out, taID)
	}

	workload := make(map[string]int, len(out))
	balance := make(map[string]float64, len(out))
	preference := make(map[string]int, len(out))
	for _, taID := range out {
		tw := ws.work(taID)
		workload[taID] = tw.totalHours
		balance[taID] = tutorialLabBalancePenalty(tw, slot.SlotType, policies)
		if rank, ok := tw.ta.PreferenceRank[slot.Key()]; ok {
			preference[taID] = rank
		} else {
			preference[taID] = math.MaxInt32
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		i, j := out[a], out[b]
		if workload[i] != workload[j] {
			return workload[i] < workload[j]
		}
		if balance[i] != balance[j] {
			return balance[i] < balance[j]
		}
		return preference[i] < preference[j]
	})

	return out
}

// tutorialLabBalancePenalty scores how far assigning a tutorial (or
// lab) slot would skew a TA's tutorial/lab split, used only when
// policies.EqualCount is active. A TA who already has more of the
// other slot type is preferred, so the penalty grows with however
// many more of slotType it already holds relative to the other.
func tutorialLabBalancePenalty(tw *taWork, slotType SlotType, policies Policies) float64 {
	if !policies.EqualCount {
		return 0
	}
	var tutorials, labs int
	for _, s := range tw.allSlots() {
		switch s.SlotType {
		case Tutorial:
			tutorials++
		case Lab:
			labs++
		}
	}
	if slotType == Tutorial {
		if d := tutorials - labs; d > 0 {
			return float64(d) * 2.0
		}
		return 0
	}
	if d := labs - tutorials; d > 0 {
		return float64(d) * 2.0
	}
	return 0
}
