package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateImbalanceScoreZeroWhenEven(t *testing.T) {
	stats := []WorkloadStat{
		{TAID: "ta1", UtilizationRate: 0.5},
		{TAID: "ta2", UtilizationRate: 0.5},
	}
	assert.Equal(t, 0.0, calculateImbalanceScore(stats))
}

func TestCalculateImbalanceScorePositiveWhenUneven(t *testing.T) {
	stats := []WorkloadStat{
		{TAID: "ta1", UtilizationRate: 1.0},
		{TAID: "ta2", UtilizationRate: 0.1},
	}
	assert.Greater(t, calculateImbalanceScore(stats), imbalanceThreshold)
}

func TestClassifyWorkloadsSeparatesOverAndUnderloaded(t *testing.T) {
	stats := []WorkloadStat{
		{TAID: "busy", UtilizationRate: 0.9},
		{TAID: "idle", UtilizationRate: 0.2},
		{TAID: "mid", UtilizationRate: 0.7},
	}
	overloaded, underloaded := classifyWorkloads(stats)
	assert.Len(t, overloaded, 1)
	assert.Equal(t, "busy", overloaded[0].TAID)
	assert.Len(t, underloaded, 1)
	assert.Equal(t, "idle", underloaded[0].TAID)
}

func TestBalanceWorkloadsTransfersFromOverloadedToUnderloaded(t *testing.T) {
	all := []TimeSlot{
		NewTimeSlot(Sunday, 1, Tutorial),
		NewTimeSlot(Monday, 1, Tutorial),
		NewTimeSlot(Tuesday, 1, Tutorial),
		NewTimeSlot(Wednesday, 1, Tutorial),
	}
	tas := []TA{
		{ID: "busy", MaxWeeklyHours: 8, AvailableSlots: all},
		{ID: "idle", MaxWeeklyHours: 8, AvailableSlots: all},
	}
	tasByID := map[string]*TA{"busy": &tas[0], "idle": &tas[1]}
	ws := newWorkspace(tas)
	assignments := make([]Assignment, 0, 4)
	for _, s := range all {
		ws.assign("busy", "c1", s)
		assignments = append(assignments, Assignment{TAID: "busy", CourseID: "c1", Slot: s})
	}

	rebalanced, messages := balanceWorkloads(ws, assignments, Policies{Independence: true}, tasByID)

	hours := map[string]int{}
	for _, a := range rebalanced {
		hours[a.TAID] += a.Slot.duration()
	}
	assert.Greater(t, hours["idle"], 0, "at least one assignment should move to the idle TA")
	assert.NotEmpty(t, messages)
}

func TestGetWorkloadReportOrdersByUtilization(t *testing.T) {
	stats := []WorkloadStat{
		{TAID: "ta1", TAName: "Low", UtilizationRate: 0.2, CurrentHours: 2, MaxHours: 10},
		{TAID: "ta2", TAName: "High", UtilizationRate: 0.8, CurrentHours: 8, MaxHours: 10},
	}
	report := getWorkloadReport(stats)
	assert.Len(t, report, 2)
	assert.Contains(t, report[0], "High")
}
