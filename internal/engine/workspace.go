package engine

// workspace is the engine's per-call scratch state: the mutable
// working set the spec's design notes call out as distinct from the
// TA/Course values themselves, which callers must be able to reuse
// across calls unmodified. A fresh workspace is built at the top of
// every Schedule call and discarded at the end of it — nothing here
// survives between calls.
//
// Two different notions of "conflict" are tracked on purpose. Hours
// used accumulate globally across every course processed so far,
// because a TA's weekly cap is a whole-week budget. Slot occupancy,
// by contrast, is tracked per course during the course-scheduler pass
// (component C only checks a TA against slots it has already committed
// for the course currently being scheduled) and only reconciled
// globally when the global scheduler merges every course's results —
// that merge step is what actually detects and resolves cross-course
// double bookings.
type workspace struct {
	tas map[string]*TA
	ws  map[string]*taWork
}

type taWork struct {
	ta           *TA
	availableSet map[SlotKey]bool
	blockedSet   map[DaySlot]bool
	byCourse     map[string][]TimeSlot
	totalHours   int
}

func newWorkspace(tas []TA) *workspace {
	w := &workspace{
		tas: make(map[string]*TA, len(tas)),
		ws:  make(map[string]*taWork, len(tas)),
	}
	for i := range tas {
		ta := &tas[i]
		w.tas[ta.ID] = ta
		w.ws[ta.ID] = newTAWork(ta)
	}
	return w
}

func newTAWork(ta *TA) *taWork {
	available := make(map[SlotKey]bool, len(ta.AvailableSlots))
	for _, s := range ta.AvailableSlots {
		available[s.Key()] = true
	}
	blocked := make(map[DaySlot]bool, len(ta.BlockedSlots))
	for _, b := range ta.BlockedSlots {
		blocked[b] = true
	}
	return &taWork{
		ta:           ta,
		availableSet: available,
		blockedSet:   blocked,
		byCourse:     make(map[string][]TimeSlot),
	}
}

func (w *workspace) ta(id string) *TA {
	return w.tas[id]
}

func (w *workspace) work(id string) *taWork {
	return w.ws[id]
}

// remainingCapacity returns the TA's weekly-hours budget left after
// every course scheduled so far in this run.
func (w *workspace) remainingCapacity(taID string) int {
	tw := w.ws[taID]
	if tw == nil {
		return 0
	}
	remaining := tw.ta.MaxWeeklyHours - tw.totalHours
	if remaining < 0 {
		return 0
	}
	return remaining
}

// courseHours returns the hours already committed to the TA for one
// course.
func (w *workspace) courseHours(taID, courseID string) int {
	tw := w.ws[taID]
	if tw == nil {
		return 0
	}
	total := 0
	for _, s := range tw.byCourse[courseID] {
		total += s.duration()
	}
	return total
}

// withinPerCourseCap reports whether adding addHours more to courseID
// would keep the TA within its declared per-course allocation cap. A
// missing entry or a cap of 0 means unlimited.
func (w *workspace) withinPerCourseCap(taID, courseID string, addHours int) bool {
	tw := w.ws[taID]
	if tw == nil {
		return false
	}
	cap, ok := tw.ta.PerCourseHoursCap[courseID]
	if !ok || cap <= 0 {
		return true
	}
	return w.courseHours(taID, courseID)+addHours <= cap
}

// isAvailableForCourse checks slot against the TA's declared
// availability, premasters rule, day-off/blocked rules (unless
// relaxed), and conflicts with what has already been committed to
// this one course — not the whole schedule.
func (w *workspace) isAvailableForCourse(taID, courseID string, slot TimeSlot, relaxed bool) bool {
	tw := w.ws[taID]
	if tw == nil {
		return false
	}
	if !tw.availableSet[slot.Key()] {
		return false
	}
	if tw.hasConflictIn(tw.byCourse[courseID], slot) {
		return false
	}
	if !relaxed {
		if tw.ta.DayOff != nil && *tw.ta.DayOff == slot.Day {
			return false
		}
		if tw.blockedSet[slot.DaySlot()] {
			return false
		}
	}
	if violatesPremasters(tw.ta, slot) {
		return false
	}
	return true
}

// isAvailableGlobal is isAvailableForCourse but checks conflicts
// against every course the TA has been assigned in this run, not just
// one. The workload balancer uses it to keep transfers from
// double-booking a TA across the whole schedule.
func (w *workspace) isAvailableGlobal(taID string, slot TimeSlot, relaxed bool) bool {
	tw := w.ws[taID]
	if tw == nil {
		return false
	}
	if !tw.availableSet[slot.Key()] {
		return false
	}
	if tw.hasConflictIn(tw.allSlots(), slot) {
		return false
	}
	if !relaxed {
		if tw.ta.DayOff != nil && *tw.ta.DayOff == slot.Day {
			return false
		}
		if tw.blockedSet[slot.DaySlot()] {
			return false
		}
	}
	if violatesPremasters(tw.ta, slot) {
		return false
	}
	return true
}

func (tw *taWork) hasConflictIn(slots []TimeSlot, slot TimeSlot) bool {
	ds := slot.DaySlot()
	for _, s := range slots {
		if s.DaySlot() == ds {
			return true
		}
	}
	return false
}

func (tw *taWork) allSlots() []TimeSlot {
	var all []TimeSlot
	for _, slots := range tw.byCourse {
		all = append(all, slots...)
	}
	return all
}

// assign commits slot to taID under courseID, accumulating hours
// globally.
func (w *workspace) assign(taID, courseID string, slot TimeSlot) {
	tw := w.ws[taID]
	if tw == nil {
		return
	}
	tw.byCourse[courseID] = append(tw.byCourse[courseID], slot)
	tw.totalHours += slot.duration()
}

// unassign reverts a previously committed assignment, used by the
// backtracking driver's undo step and the workload balancer's
// transfers.
func (w *workspace) unassign(taID, courseID string, slot TimeSlot) bool {
	tw := w.ws[taID]
	if tw == nil {
		return false
	}
	slots := tw.byCourse[courseID]
	for i, s := range slots {
		if s.Key() == slot.Key() {
			tw.byCourse[courseID] = append(slots[:i], slots[i+1:]...)
			tw.totalHours -= slot.duration()
			return true
		}
	}
	return false
}

// courseSlots returns the slots currently committed to taID for
// courseID.
func (w *workspace) courseSlots(taID, courseID string) []TimeSlot {
	tw := w.ws[taID]
	if tw == nil {
		return nil
	}
	return tw.byCourse[courseID]
}
