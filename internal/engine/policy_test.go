package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIndependencePolicyAcceptsAnything(t *testing.T) {
	v := NewPolicyValidator(Policies{Independence: true})
	ok, violations := v.Validate([]TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)})
	assert.True(t, ok)
	assert.Empty(t, violations)
}

func TestValidateEqualCountRequiresBalancedCounts(t *testing.T) {
	v := NewPolicyValidator(Policies{EqualCount: true})
	ok, violations := v.Validate([]TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Lab)})
	assert.True(t, ok)
	assert.Empty(t, violations)

	ok, violations = v.Validate([]TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Tutorial)})
	assert.False(t, ok)
	assert.NotEmpty(t, violations)
}

func TestValidateEmptySlotSetIsAlwaysLegal(t *testing.T) {
	v := NewPolicyValidator(Policies{EqualCount: true, NumberMatching: true})
	ok, violations := v.Validate(nil)
	assert.True(t, ok)
	assert.Empty(t, violations)
}

func TestValidateNumberMatchingRequiresMatchingSlotNumbers(t *testing.T) {
	v := NewPolicyValidator(Policies{NumberMatching: true})
	ok, _ := v.Validate([]TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 1, Lab)})
	assert.True(t, ok)

	ok, violations := v.Validate([]TimeSlot{NewTimeSlot(Sunday, 1, Tutorial), NewTimeSlot(Monday, 2, Lab)})
	assert.False(t, ok)
	assert.NotEmpty(t, violations)
}

func TestLegalCombinationsEqualCountAndNumberMatchingFiltersNotUnions(t *testing.T) {
	v := NewPolicyValidator(Policies{EqualCount: true, NumberMatching: true})
	available := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Lab),
		NewTimeSlot(Tuesday, 2, Tutorial),
		NewTimeSlot(Wednesday, 3, Lab),
	}
	combos := v.LegalCombinations(available, 4)
	for _, combo := range combos {
		ok, _ := NewPolicyValidator(Policies{NumberMatching: true}).Validate(combo)
		assert.True(t, ok, "every combo produced under equal_count+number_matching must itself satisfy number_matching: %v", combo)
		okEq, _ := NewPolicyValidator(Policies{EqualCount: true}).Validate(combo)
		assert.True(t, okEq)
	}
	// Slot 2 (tutorial only) and slot 3 (lab only) never have a partner,
	// so no combination should ever include them.
	for _, combo := range combos {
		for _, s := range combo {
			assert.NotEqual(t, 2, s.SlotNumber)
			assert.NotEqual(t, 3, s.SlotNumber)
		}
	}
}

func TestLegalCombinationsRejectsParallelConflicts(t *testing.T) {
	v := NewPolicyValidator(Policies{Independence: true})
	available := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Sunday, 1, Lab),
	}
	combos := v.LegalCombinations(available, 2)
	for _, combo := range combos {
		assert.Len(t, combo, 1, "a tutorial and a lab at the same (day, slot_number) can never appear together in one combination")
	}
}

func TestLegalCombinationsRespectsMaxSlots(t *testing.T) {
	v := NewPolicyValidator(Policies{Independence: true})
	available := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
	}
	combos := v.LegalCombinations(available, 1)
	for _, combo := range combos {
		assert.LessOrEqual(t, len(combo), 1)
	}
}
