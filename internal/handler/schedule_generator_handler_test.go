package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
)

type scheduleGeneratorMock struct {
	captured    dto.GenerateScheduleRequest
	swapReq     dto.ValidateSwapRequest
	conflictsID string
	suggestID   string
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	return &dto.GenerateScheduleResponse{ProposalID: "proposal-1"}, nil
}

func (m *scheduleGeneratorMock) ValidateSwap(ctx context.Context, req dto.ValidateSwapRequest) (*dto.ValidateSwapResponse, error) {
	m.swapReq = req
	return &dto.ValidateSwapResponse{Legal: true}, nil
}

func (m *scheduleGeneratorMock) Conflicts(ctx context.Context, proposalID string) (*dto.ConflictsResponse, error) {
	m.conflictsID = proposalID
	return &dto.ConflictsResponse{ProposalID: proposalID}, nil
}

func (m *scheduleGeneratorMock) Suggestions(ctx context.Context, proposalID string) (*dto.SuggestionsResponse, error) {
	m.suggestID = proposalID
	return &dto.SuggestionsResponse{ProposalID: proposalID}, nil
}

func (m *scheduleGeneratorMock) ExportGrid(ctx context.Context, proposalID string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func (m *scheduleGeneratorMock) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	return "", nil
}

func (m *scheduleGeneratorMock) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	return nil, nil
}

func (m *scheduleGeneratorMock) GetSlots(ctx context.Context, id string) ([]models.SemesterScheduleSlot, error) {
	return nil, nil
}

func (m *scheduleGeneratorMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestScheduleGeneratorAliasSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mockSvc}
	payload := []byte(`{
		"termId":"2025",
		"classId":"10A",
		"courses":[{"id":"math","requiredSlots":[{"day":"SATURDAY","slotNumber":1,"slotType":"TUTORIAL"}],"eligibleTaIds":["t1"]}]
	}`)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generator", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GenerateAlias(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "2025", mockSvc.captured.TermID)
	require.Equal(t, "10A", mockSvc.captured.ClassID)
}

func TestScheduleGeneratorAliasValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleGeneratorHandler{service: &scheduleGeneratorMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generator", bytes.NewReader([]byte(`{"termId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GenerateAlias(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorValidateSwap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mockSvc}
	payload := []byte(`{
		"proposalId":"proposal-1",
		"courseId":"math",
		"taId":"t1",
		"proposed":[{"day":"SUNDAY","slotNumber":1,"slotType":"TUTORIAL"}]
	}`)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/validate-swap", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.ValidateSwap(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "proposal-1", mockSvc.swapReq.ProposalID)
}

func TestScheduleGeneratorConflictsAndSuggestions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mockSvc}

	req, _ := http.NewRequest(http.MethodGet, "/schedule/conflicts?proposalId=proposal-1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handler.Conflicts(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "proposal-1", mockSvc.conflictsID)

	req2, _ := http.NewRequest(http.MethodGet, "/schedule/suggestions?proposalId=proposal-1", nil)
	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = req2
	handler.Suggestions(c2)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, "proposal-1", mockSvc.suggestID)
}
