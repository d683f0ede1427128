package service

import (
	"encoding/json"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
)

// defaultTAWeeklyHours is used when neither the request nor a stored
// teacher preference names a weekly-hours cap, so a TA with no
// configured cap is generous rather than unschedulable.
const defaultTAWeeklyHours = 40

func toEngineSlot(s dto.TimeSlotDTO) engine.TimeSlot {
	return engine.NewTimeSlot(engine.Day(s.Day), s.SlotNumber, engine.SlotType(s.SlotType))
}

func toEngineSlots(slots []dto.TimeSlotDTO) []engine.TimeSlot {
	out := make([]engine.TimeSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, toEngineSlot(s))
	}
	return out
}

func fromEngineSlot(s engine.TimeSlot) dto.TimeSlotDTO {
	return dto.TimeSlotDTO{Day: string(s.Day), SlotNumber: s.SlotNumber, SlotType: string(s.SlotType)}
}

func toEngineCourses(courses []dto.CourseDTO) []engine.Course {
	out := make([]engine.Course, 0, len(courses))
	for _, c := range courses {
		out = append(out, engine.Course{
			ID:            c.ID,
			Name:          c.Name,
			RequiredSlots: toEngineSlots(c.RequiredSlots),
			EligibleTAIDs: c.EligibleTAIDs,
		})
	}
	return out
}

func toEnginePolicies(p dto.PoliciesDTO) engine.Policies {
	policies := engine.Policies{
		Independence:   p.Independence,
		EqualCount:     p.EqualCount,
		NumberMatching: p.NumberMatching,
		FairnessMode:   p.FairnessMode,
	}
	if !policies.Independence && !policies.EqualCount && !policies.NumberMatching {
		policies.Independence = true
	}
	return policies
}

func toEngineTA(t dto.TADTO) engine.TA {
	ta := engine.TA{
		ID:                t.ID,
		Name:              t.Name,
		MaxWeeklyHours:    t.MaxWeeklyHours,
		AvailableSlots:    toEngineSlots(t.AvailableSlots),
		Premasters:        t.Premasters,
		PerCourseHoursCap: t.PerCourseAllocationHours,
	}
	if t.DayOff != nil {
		d := engine.Day(*t.DayOff)
		ta.DayOff = &d
	}
	for _, b := range t.BlockedSlots {
		ta.BlockedSlots = append(ta.BlockedSlots, toEngineSlot(b).DaySlot())
	}
	if len(t.PreferenceRanks) > 0 {
		ta.PreferenceRank = make(map[engine.SlotKey]int, len(t.PreferenceRanks))
		for key, rank := range t.PreferenceRanks {
			slot, ok := parseSlotKey(key)
			if !ok {
				continue
			}
			ta.PreferenceRank[slot] = rank
		}
	}
	if ta.MaxWeeklyHours <= 0 {
		ta.MaxWeeklyHours = defaultTAWeeklyHours
	}
	return ta
}

func toEngineTAs(tas []dto.TADTO) []engine.TA {
	out := make([]engine.TA, 0, len(tas))
	for _, t := range tas {
		out = append(out, toEngineTA(t))
	}
	return out
}

// parseSlotKey decodes a "DAY:slotNumber:TYPE" preference-rank key.
func parseSlotKey(raw string) (engine.SlotKey, bool) {
	day, rest, ok := cutOnce(raw, ':')
	if !ok {
		return engine.SlotKey{}, false
	}
	numStr, typ, ok := cutOnce(rest, ':')
	if !ok {
		return engine.SlotKey{}, false
	}
	num := 0
	for _, r := range numStr {
		if r < '0' || r > '9' {
			return engine.SlotKey{}, false
		}
		num = num*10 + int(r-'0')
	}
	if num == 0 {
		return engine.SlotKey{}, false
	}
	return engine.SlotKey{Day: engine.Day(day), SlotNumber: num, SlotType: engine.SlotType(typ)}, true
}

func cutOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func assignmentsToDTO(assignments []engine.Assignment) []dto.AssignmentDTO {
	out := make([]dto.AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, dto.AssignmentDTO{TAID: a.TAID, CourseID: a.CourseID, Slot: fromEngineSlot(a.Slot)})
	}
	return out
}

func unassignedToDTO(unassigned []engine.UnassignedSlot) []dto.UnassignedSlotDTO {
	out := make([]dto.UnassignedSlotDTO, 0, len(unassigned))
	for _, u := range unassigned {
		out = append(out, dto.UnassignedSlotDTO{
			CourseID: u.CourseID,
			Slot:     fromEngineSlot(u.Slot),
			Reason:   "no eligible TA had remaining capacity and availability for this slot",
		})
	}
	return out
}

func conflictsToDTO(conflicts []engine.Conflict) []dto.ConflictDTO {
	out := make([]dto.ConflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, dto.ConflictDTO{
			Type:        string(c.Type),
			TAID:        c.TAID,
			Description: c.Description,
			Severity:    c.Severity,
			Involved:    assignmentsToDTO(c.Involved),
		})
	}
	return out
}

func workloadsToDTO(workloads []engine.WorkloadStat) []dto.WorkloadStatDTO {
	out := make([]dto.WorkloadStatDTO, 0, len(workloads))
	for _, w := range workloads {
		out = append(out, dto.WorkloadStatDTO{
			TAID:            w.TAID,
			TAName:          w.TAName,
			CurrentHours:    w.CurrentHours,
			MaxHours:        w.MaxHours,
			UtilizationRate: w.UtilizationRate,
		})
	}
	return out
}

func statsToDTO(stats engine.Stats) dto.ScheduleStatsDTO {
	return dto.ScheduleStatsDTO{
		TotalAssignments:      stats.TotalAssignments,
		TotalTAs:              stats.TotalTAs,
		TotalCourses:          stats.TotalCourses,
		AverageTAWorkload:     stats.AverageTAWorkload,
		WorkloadVariance:      stats.WorkloadVariance,
		AverageCourseCoverage: stats.AverageCourseCoverage,
		FullyCoveredCourses:   stats.FullyCoveredCourses,
		ConflictsDetected:     stats.ConflictsDetected,
		PolicyViolations:      stats.PolicyViolations,
		SuccessRate:           stats.SuccessRate,
		TAWorkloads:           workloadsToDTO(stats.TAWorkloads),
	}
}

func resultToResponse(proposalID string, result *engine.Result) *dto.GenerateScheduleResponse {
	return &dto.GenerateScheduleResponse{
		ProposalID:       proposalID,
		Success:          result.Success,
		Message:          result.Message,
		Relaxed:          result.Relaxed,
		Assignments:      assignmentsToDTO(result.Schedule.Assignments),
		UnassignedSlots:  unassignedToDTO(result.UnassignedSlots),
		PolicyViolations: result.PolicyViolations,
		Conflicts:        conflictsToDTO(result.Conflicts),
		Notes:            result.Notes,
		Stats:            statsToDTO(result.Stats),
	}
}

// taFromPreference builds an engine.TA for teacherID from a stored
// preference row, falling back to blanket availability over
// fallbackSlots (the union of slots required by courses this teacher
// is eligible for) when the preference names none of its own.
func taFromPreference(teacherID string, pref *models.TeacherPreference, fallbackSlots []engine.TimeSlot) engine.TA {
	ta := engine.TA{
		ID:             teacherID,
		MaxWeeklyHours: defaultTAWeeklyHours,
		AvailableSlots: fallbackSlots,
	}
	if pref == nil {
		return ta
	}
	if pref.MaxLoadPerWeek > 0 {
		ta.MaxWeeklyHours = pref.MaxLoadPerWeek
	}
	ta.Premasters = pref.Premasters
	if pref.DayOff != nil {
		d := engine.Day(*pref.DayOff)
		ta.DayOff = &d
	}
	if len(pref.AvailableSlots) > 0 {
		var raw []dto.TimeSlotDTO
		if err := json.Unmarshal(pref.AvailableSlots, &raw); err == nil && len(raw) > 0 {
			ta.AvailableSlots = toEngineSlots(raw)
		}
	}
	if len(pref.BlockedSlots) > 0 {
		var raw []dto.TimeSlotDTO
		if err := json.Unmarshal(pref.BlockedSlots, &raw); err == nil {
			for _, s := range raw {
				ta.BlockedSlots = append(ta.BlockedSlots, toEngineSlot(s).DaySlot())
			}
		}
	}
	if len(pref.PreferenceRanks) > 0 {
		var raw map[string]int
		if err := json.Unmarshal(pref.PreferenceRanks, &raw); err == nil {
			ta.PreferenceRank = make(map[engine.SlotKey]int, len(raw))
			for key, rank := range raw {
				if slot, ok := parseSlotKey(key); ok {
					ta.PreferenceRank[slot] = rank
				}
			}
		}
	}
	if len(pref.PerCourseAllocationHours) > 0 {
		var raw map[string]int
		if err := json.Unmarshal(pref.PerCourseAllocationHours, &raw); err == nil {
			ta.PerCourseHoursCap = raw
		}
	}
	return ta
}
