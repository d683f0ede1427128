package engine

import (
	"fmt"
	"sort"
)

// PolicyValidator evaluates a fixed set of Policies against proposed
// slot sets and enumerates the legal combinations a TA could be given
// for a course.
type PolicyValidator struct {
	policies Policies
}

// NewPolicyValidator builds a validator bound to p.
func NewPolicyValidator(p Policies) *PolicyValidator {
	return &PolicyValidator{policies: p}
}

// Validate reports whether slots satisfy every active policy. An
// empty slot set always satisfies equal_count and number_matching
// trivially — zero tutorials equals zero labs, and there is nothing
// left unmatched.
func (v *PolicyValidator) Validate(slots []TimeSlot) (bool, []string) {
	if v.policies.Independence || len(slots) == 0 {
		return true, nil
	}
	var violations []string
	if v.policies.EqualCount {
		violations = append(violations, checkEqualCount(slots)...)
	}
	if v.policies.NumberMatching {
		violations = append(violations, checkNumberMatching(slots)...)
	}
	return len(violations) == 0, violations
}

func checkEqualCount(slots []TimeSlot) []string {
	tutorials, labs := 0, 0
	for _, s := range slots {
		switch s.SlotType {
		case Tutorial:
			tutorials++
		case Lab:
			labs++
		}
	}
	if tutorials != labs {
		return []string{fmt.Sprintf("equal count policy violation: %d tutorials vs %d labs", tutorials, labs)}
	}
	return nil
}

func checkNumberMatching(slots []TimeSlot) []string {
	tutNums := map[int]bool{}
	labNums := map[int]bool{}
	for _, s := range slots {
		switch s.SlotType {
		case Tutorial:
			tutNums[s.SlotNumber] = true
		case Lab:
			labNums[s.SlotNumber] = true
		}
	}
	var unmatchedTut, unmatchedLab []int
	for n := range tutNums {
		if !labNums[n] {
			unmatchedTut = append(unmatchedTut, n)
		}
	}
	for n := range labNums {
		if !tutNums[n] {
			unmatchedLab = append(unmatchedLab, n)
		}
	}
	sort.Ints(unmatchedTut)
	sort.Ints(unmatchedLab)

	var violations []string
	if len(unmatchedTut) > 0 {
		violations = append(violations, fmt.Sprintf("number matching policy violation: tutorial slots %v have no matching lab", unmatchedTut))
	}
	if len(unmatchedLab) > 0 {
		violations = append(violations, fmt.Sprintf("number matching policy violation: lab slots %v have no matching tutorial", unmatchedLab))
	}
	return violations
}

func hasParallelConflict(slots []TimeSlot) bool {
	seen := make(map[DaySlot]bool, len(slots))
	for _, s := range slots {
		ds := s.DaySlot()
		if seen[ds] {
			return true
		}
		seen[ds] = true
	}
	return false
}

// LegalCombinations enumerates every subset of available (size 1
// through maxSlots) that the active policies permit, with no two
// slots in the same combination sharing a (day, slot_number). When
// both equal_count and number_matching are active, combinations are
// generated under equal_count and then filtered by number_matching,
// not unioned — a combination that balances tutorial/lab counts but
// pairs the wrong slot numbers together is rejected.
func (v *PolicyValidator) LegalCombinations(available []TimeSlot, maxSlots int) [][]TimeSlot {
	if len(available) == 0 || maxSlots < 1 {
		return nil
	}
	switch {
	case v.policies.Independence:
		return independentCombinations(available, maxSlots)
	case v.policies.EqualCount && v.policies.NumberMatching:
		combos := equalCountCombinations(available, maxSlots)
		out := combos[:0]
		for _, c := range combos {
			if len(checkNumberMatching(c)) == 0 {
				out = append(out, c)
			}
		}
		return out
	case v.policies.EqualCount:
		return equalCountCombinations(available, maxSlots)
	case v.policies.NumberMatching:
		return numberMatchingCombinations(available, maxSlots)
	default:
		return independentCombinations(available, maxSlots)
	}
}

func independentCombinations(available []TimeSlot, maxSlots int) [][]TimeSlot {
	limit := maxSlots
	if limit > len(available) {
		limit = len(available)
	}
	var out [][]TimeSlot
	for r := 1; r <= limit; r++ {
		for _, idx := range combinationIndices(len(available), r) {
			combo := pick(available, idx)
			if !hasParallelConflict(combo) {
				out = append(out, combo)
			}
		}
	}
	return out
}

func equalCountCombinations(available []TimeSlot, maxSlots int) [][]TimeSlot {
	var tutorials, labs []TimeSlot
	for _, s := range available {
		switch s.SlotType {
		case Tutorial:
			tutorials = append(tutorials, s)
		case Lab:
			labs = append(labs, s)
		}
	}
	maxPairs := min3(len(tutorials), len(labs), maxSlots/2)
	var out [][]TimeSlot
	for pairCount := 1; pairCount <= maxPairs; pairCount++ {
		tCombos := combinationIndices(len(tutorials), pairCount)
		lCombos := combinationIndices(len(labs), pairCount)
		for _, tIdx := range tCombos {
			tPick := pick(tutorials, tIdx)
			for _, lIdx := range lCombos {
				lPick := pick(labs, lIdx)
				combo := make([]TimeSlot, 0, len(tPick)+len(lPick))
				combo = append(combo, tPick...)
				combo = append(combo, lPick...)
				if len(combo) <= maxSlots && !hasParallelConflict(combo) {
					out = append(out, combo)
				}
			}
		}
	}
	return out
}

func numberMatchingCombinations(available []TimeSlot, maxSlots int) [][]TimeSlot {
	tutByNum := map[int]TimeSlot{}
	labByNum := map[int]TimeSlot{}
	for _, s := range available {
		switch s.SlotType {
		case Tutorial:
			tutByNum[s.SlotNumber] = s
		case Lab:
			labByNum[s.SlotNumber] = s
		}
	}
	var matching []int
	for n := range tutByNum {
		if _, ok := labByNum[n]; ok {
			matching = append(matching, n)
		}
	}
	sort.Ints(matching)

	maxPairs := min3(len(matching), len(matching), maxSlots/2)
	var out [][]TimeSlot
	for pairCount := 1; pairCount <= maxPairs; pairCount++ {
		for _, idx := range combinationIndices(len(matching), pairCount) {
			combo := make([]TimeSlot, 0, pairCount*2)
			for _, i := range idx {
				n := matching[i]
				combo = append(combo, tutByNum[n], labByNum[n])
			}
			if len(combo) <= maxSlots && !hasParallelConflict(combo) {
				out = append(out, combo)
			}
		}
	}
	return out
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func pick(slots []TimeSlot, idx []int) []TimeSlot {
	out := make([]TimeSlot, len(idx))
	for i, j := range idx {
		out[i] = slots[j]
	}
	return out
}

// combinationIndices returns every r-sized subset of {0,...,n-1}, in
// lexicographic order.
func combinationIndices(n, r int) [][]int {
	if r <= 0 || r > n {
		return nil
	}
	var out [][]int
	combo := make([]int, r)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == r {
			snapshot := make([]int, r)
			copy(snapshot, combo)
			out = append(out, snapshot)
			return
		}
		for i := start; i < n; i++ {
			combo[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return out
}
