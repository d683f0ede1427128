package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/export"
)

type scheduleGridRenderer interface {
	Render(result *engine.Result, title string) ([]byte, error)
}

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type teacherAssignmentFetcher interface {
	ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.TeacherAssignment, error)
}

type teacherPreferenceFetcher interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
}

type scheduleFeeder interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error)
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
	FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlot string) ([]models.Schedule, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error
}

type schedulerClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schedulerSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scheduleConflictChecker interface {
	Check(ctx context.Context, termID, classID string, assignments []dto.AssignmentDTO) ([]models.ScheduleConflict, error)
}

// ScheduleGeneratorService builds TA-scheduling proposals with
// internal/engine and persists accepted ones into semester schedules.
type ScheduleGeneratorService struct {
	terms       schedulerTermReader
	classes     schedulerClassReader
	subjects    schedulerSubjectReader
	assignments teacherAssignmentFetcher
	prefs       teacherPreferenceFetcher
	schedules   scheduleFeeder
	semesters   semesterScheduleRepository
	slots       semesterScheduleSlotRepository
	conflicts   scheduleConflictChecker
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	cache       *proposalCache
	engineOpts  engine.Options
	grid        scheduleGridRenderer
	metrics     *MetricsService
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL         time.Duration
	BacktrackDepthGuard int
	BacktrackTimeout    time.Duration
	DefaultSeed         int64
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	classes schedulerClassReader,
	subjects schedulerSubjectReader,
	assignments teacherAssignmentFetcher,
	prefs teacherPreferenceFetcher,
	schedules scheduleFeeder,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	conflictChecker scheduleConflictChecker,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cache *CacheService,
	metrics *MetricsService,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.BacktrackDepthGuard <= 0 {
		cfg.BacktrackDepthGuard = engine.DefaultBacktrackDepthGuard
	}
	if cfg.BacktrackTimeout <= 0 {
		cfg.BacktrackTimeout = engine.DefaultBacktrackTimeout
	}
	if conflictChecker == nil && schedules != nil {
		conflictChecker = &defaultScheduleConflictChecker{repo: schedules}
	}
	return &ScheduleGeneratorService{
		terms:       terms,
		classes:     classes,
		subjects:    subjects,
		assignments: assignments,
		prefs:       prefs,
		schedules:   schedules,
		semesters:   semesters,
		slots:       slots,
		conflicts:   conflictChecker,
		tx:          tx,
		validator:   validate,
		logger:      logger,
		cache:       newProposalCache(cache, cfg.ProposalTTL, logger),
		engineOpts: engine.Options{
			BacktrackDepthGuard: cfg.BacktrackDepthGuard,
			BacktrackTimeout:    cfg.BacktrackTimeout,
			Seed:                cfg.DefaultSeed,
		},
		grid:    export.NewScheduleGridExporter(),
		metrics: metrics,
	}
}

// Generate orchestrates the engine-based scheduling pipeline: build a
// TA/course roster from the request (falling back to the teacher
// preferences on file for each course's eligible TAs when the request
// omits TAs),
// call internal/engine.Schedule, and cache the proposal for Save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	if err := s.ensureTermAndClass(ctx, req.TermID, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.ensureSubjectsExist(ctx, req.Courses); err != nil {
		return nil, err
	}

	courses := toEngineCourses(req.Courses)
	tas, err := s.resolveTAs(ctx, req)
	if err != nil {
		return nil, err
	}
	policies := toEnginePolicies(req.Policies)

	opts := s.engineOpts
	opts.Optimize = req.Optimize
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}

	strategy := "greedy"
	if policies.FairnessMode {
		strategy = "fairness"
	}
	started := time.Now()
	result, err := engine.ScheduleWithOptions(courses, tas, policies, opts)
	if s.metrics != nil {
		// The backtracking driver doesn't currently surface how deep it
		// recursed; 0 until internal/engine exports that.
		s.metrics.ObserveSchedulerRun(strategy, err == nil && result != nil && result.Success, time.Since(started), 0)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduling request could not be processed")
	}

	proposalID := uuid.NewString()
	proposal := scheduleProposal{
		ProposalID:  proposalID,
		TermID:      req.TermID,
		ClassID:     req.ClassID,
		Result:      *result,
		TAs:         tas,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.cache.Save(ctx, proposal); err != nil {
		s.logger.Warn("failed to cache schedule proposal", zap.Error(err))
	}

	return resultToResponse(proposalID, result), nil
}

// ValidateSwap checks whether reassigning one TA's slots for a course
// within a cached proposal would stay legal, without mutating the
// cached proposal or re-running the engine.
func (s *ScheduleGeneratorService) ValidateSwap(ctx context.Context, req dto.ValidateSwapRequest) (*dto.ValidateSwapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate-swap payload")
	}
	proposal, ok := s.cache.Get(ctx, req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	proposed := toEngineSlots(req.Proposed)
	legal, violations := engine.ValidateSwap(proposal.Result.Schedule.Assignments, proposal.TAs, req.CourseID, req.TAID, proposed, toEnginePolicies(dto.PoliciesDTO{Independence: true}))
	return &dto.ValidateSwapResponse{Legal: legal, Violations: violations}, nil
}

// Conflicts reports the conflicts still present in a cached proposal.
func (s *ScheduleGeneratorService) Conflicts(ctx context.Context, proposalID string) (*dto.ConflictsResponse, error) {
	proposal, ok := s.cache.Get(ctx, proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &dto.ConflictsResponse{ProposalID: proposalID, Conflicts: conflictsToDTO(proposal.Result.Conflicts)}, nil
}

// Suggestions returns human-readable improvement suggestions for a
// cached proposal.
func (s *ScheduleGeneratorService) Suggestions(ctx context.Context, proposalID string) (*dto.SuggestionsResponse, error) {
	proposal, ok := s.cache.Get(ctx, proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &dto.SuggestionsResponse{ProposalID: proposalID, Suggestions: engine.SuggestImprovements(&proposal.Result)}, nil
}

// ExportGrid renders a cached proposal as a weekly day-by-slot PDF.
func (s *ScheduleGeneratorService) ExportGrid(ctx context.Context, proposalID string) ([]byte, error) {
	proposal, ok := s.cache.Get(ctx, proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	payload, err := s.grid.Render(&proposal.Result, fmt.Sprintf("Schedule %s / %s", proposal.TermID, proposal.ClassID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule grid")
	}
	return payload, nil
}

// Save persists a cached proposal as a semester schedule and
// optionally commits it to the daily schedule table.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.cache.Get(ctx, req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if len(proposal.Result.Conflicts) > 0 {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved conflicts")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	assignments := assignmentsToDTO(proposal.Result.Schedule.Assignments)
	metaPayload := map[string]any{
		"stats":     statsToDTO(proposal.Result.Stats),
		"generated": proposal.RequestedAt,
		"algorithm": "engine_v1",
		"relaxed":   proposal.Result.Relaxed,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
		return "", err
	}

	record := &models.SemesterSchedule{
		TermID:  proposal.TermID,
		ClassID: proposal.ClassID,
		Status:  models.SemesterScheduleStatusDraft,
		Meta:    types.JSONText(metaBytes),
	}

	if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
		return "", err
	}

	slotModels := make([]models.SemesterScheduleSlot, 0, len(assignments))
	for _, a := range assignments {
		slotModels = append(slotModels, models.SemesterScheduleSlot{
			SemesterScheduleID: record.ID,
			DayOfWeek:          dayStringToIndex(a.Slot.Day),
			TimeSlot:           a.Slot.SlotNumber,
			SlotType:           a.Slot.SlotType,
			SubjectID:          a.CourseID,
			TeacherID:          a.TAID,
		})
	}

	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
		return "", err
	}

	if req.CommitToDaily {
		if s.conflicts == nil {
			err = appErrors.Clone(appErrors.ErrInternal, "schedule conflict checker unavailable")
			return "", err
		}
		existingConflicts, conflictErr := s.conflicts.Check(ctx, proposal.TermID, proposal.ClassID, assignments)
		if conflictErr != nil {
			err = conflictErr
			return "", err
		}
		if len(existingConflicts) > 0 {
			err = appErrors.Wrap(&models.ScheduleConflictError{Type: "CONFLICT", Message: "detected conflicts when committing to daily schedules", Errors: existingConflicts}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "conflict detected")
			return "", err
		}

		daily := make([]models.Schedule, 0, len(assignments))
		for _, a := range assignments {
			daily = append(daily, models.Schedule{
				TermID:    proposal.TermID,
				ClassID:   proposal.ClassID,
				SubjectID: a.CourseID,
				TeacherID: a.TAID,
				DayOfWeek: a.Slot.Day,
				TimeSlot:  strconv.Itoa(a.Slot.SlotNumber),
				SlotType:  a.Slot.SlotType,
			})
		}
		if err = s.schedules.BulkCreateWithTx(ctx, tx, daily); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit daily schedules")
			return "", err
		}
		if err = s.semesters.UpdateStatus(ctx, tx, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}

	s.cache.Delete(ctx, req.ProposalID)
	return record.ID, nil
}

// List returns semester schedules for a class-term tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and classId are required")
	}
	list, err := s.semesters.ListByTermClass(ctx, query.TermID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureTermAndClass(ctx context.Context, termID, classID string) error {
	if s.terms != nil {
		if _, err := s.terms.FindByID(ctx, termID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
	}
	if s.classes != nil {
		if _, err := s.classes.FindByID(ctx, classID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureSubjectsExist(ctx context.Context, courses []dto.CourseDTO) error {
	if s.subjects == nil {
		return nil
	}
	checked := make(map[string]bool, len(courses))
	for _, c := range courses {
		if checked[c.ID] {
			continue
		}
		if _, err := s.subjects.FindByID(ctx, c.ID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", c.ID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		checked[c.ID] = true
	}
	return nil
}

// resolveTAs returns req.TAs translated to engine.TA when the request
// names any, otherwise builds one engine.TA per distinct teacher ID
// referenced by req.Courses' EligibleTAIDs from stored teacher
// preferences.
func (s *ScheduleGeneratorService) resolveTAs(ctx context.Context, req dto.GenerateScheduleRequest) ([]engine.TA, error) {
	if len(req.TAs) > 0 {
		return toEngineTAs(req.TAs), nil
	}
	if s.prefs == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request named no TAs and no teacher preference source is configured")
	}

	fallbackSlots := map[string][]engine.TimeSlot{}
	for _, c := range req.Courses {
		slots := toEngineSlots(c.RequiredSlots)
		for _, taID := range c.EligibleTAIDs {
			fallbackSlots[taID] = append(fallbackSlots[taID], slots...)
		}
	}

	teacherIDs := make([]string, 0, len(fallbackSlots))
	for id := range fallbackSlots {
		teacherIDs = append(teacherIDs, id)
	}

	tas := make([]engine.TA, 0, len(teacherIDs))
	for _, teacherID := range teacherIDs {
		pref, err := s.prefs.GetByTeacher(ctx, teacherID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
		}
		tas = append(tas, taFromPreference(teacherID, pref, fallbackSlots[teacherID]))
	}
	return tas, nil
}

var dayNameIndex = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

func dayStringToIndex(name string) int {
	return dayNameIndex[name]
}

// --- Conflict checker ---

type defaultScheduleConflictChecker struct {
	repo scheduleFeeder
}

func (d *defaultScheduleConflictChecker) Check(ctx context.Context, termID, classID string, assignments []dto.AssignmentDTO) ([]models.ScheduleConflict, error) {
	var conflicts []models.ScheduleConflict
	for _, a := range assignments {
		existing, err := d.repo.FindConflicts(ctx, termID, a.Slot.Day, strconv.Itoa(a.Slot.SlotNumber))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
		}
		for _, sched := range existing {
			if sched.ClassID == classID {
				conflicts = append(conflicts, models.ScheduleConflict{
					ScheduleID: sched.ID,
					TermID:     sched.TermID,
					ClassID:    sched.ClassID,
					SubjectID:  sched.SubjectID,
					TeacherID:  sched.TeacherID,
					DayOfWeek:  sched.DayOfWeek,
					TimeSlot:   sched.TimeSlot,
					SlotType:   sched.SlotType,
					Room:       sched.Room,
					Dimension:  "CLASS",
				})
			}
			if sched.TeacherID == a.TAID {
				conflicts = append(conflicts, models.ScheduleConflict{
					ScheduleID: sched.ID,
					TermID:     sched.TermID,
					ClassID:    sched.ClassID,
					SubjectID:  sched.SubjectID,
					TeacherID:  sched.TeacherID,
					DayOfWeek:  sched.DayOfWeek,
					TimeSlot:   sched.TimeSlot,
					SlotType:   sched.SlotType,
					Room:       sched.Room,
					Dimension:  "TEACHER",
				})
			}
		}
	}
	return conflicts, nil
}
