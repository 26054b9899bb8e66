package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"goldsignal/internal/api/v1/dto"
	"goldsignal/internal/middleware"
	"goldsignal/internal/model"
	"goldsignal/internal/repository"
	"goldsignal/internal/service"
	"goldsignal/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSignalService struct {
	signal *model.Signal
	err    error
}

func (s *stubSignalService) RequestSignal(ctx context.Context, img service.ChartImage, params service.TradingParameters) (*model.Signal, error) {
	return s.signal, s.err
}

func (s *stubSignalService) RequestMarketSummary(ctx context.Context) (*model.MarketSummaryData, error) {
	return nil, s.err
}

func newTestSignalHandler(t *testing.T, stub *stubSignalService) (*SignalHandler, repository.UserRepository) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	users, err := repository.NewUserRepo(ctx, mem, zerolog.Nop())
	require.NoError(t, err)
	analyses, err := repository.NewAnalysisRepo(ctx, mem, zerolog.Nop())
	require.NoError(t, err)
	gateSvc := service.NewGateService(users, zerolog.Nop())
	analysisSvc := service.NewAnalysisService(users, analyses, nil, "", zerolog.Nop())
	v := validator.New(validator.WithRequiredStructEnabled())
	return NewSignalHandler(gateSvc, stub, analysisSvc, v, zerolog.Nop()), users
}

func analyzeRequest(userID string) *http.Request {
	body := `{"image":{"mimeType":"image/png","data":"aGVsbG8="},"balance":"10000","lotSize":"0.1","risk":"1","leverage":"1:100"}`
	req := httptest.NewRequest(http.MethodPost, "/signals/analyze", strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, userID))
}

func TestAnalyzeUpstreamFailureDoesNotConsumeQuota(t *testing.T) {
	h, users := newTestSignalHandler(t, &stubSignalService{err: service.ErrUpstream})

	before, err := users.GetByID(context.Background(), "1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.analyze(rec, analyzeRequest("1"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	after, err := users.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, before.AnalysisCount, after.AnalysisCount)
	assert.True(t, before.LastAnalysisAt.Equal(after.LastAnalysisAt))
}

func TestAnalyzeGateRejectionReturnsDecisionBody(t *testing.T) {
	h, users := newTestSignalHandler(t, &stubSignalService{err: service.ErrUpstream})
	ctx := context.Background()

	// Free user already at today's limit: the gate blocks before the
	// upstream call, so the stub's failure is never reached.
	users.Insert(ctx, model.User{
		ID:             "2",
		Name:           "alice",
		Email:          "alice@example.com",
		Plan:           model.PlanFree,
		AnalysisCount:  1,
		LastAnalysisAt: time.Now().UTC(),
	})

	rec := httptest.NewRecorder()
	h.analyze(rec, analyzeRequest("2"))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var d dto.GateDecisionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.False(t, d.CanAnalyze)
	assert.Equal(t, "limit", d.Reason)
	assert.Equal(t, 1, d.DailyCount)
	assert.Equal(t, 1, d.DailyLimit)

	u, err := users.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, u.AnalysisCount)
}

func TestAnalyzeSuccessRecordsAndConsumesQuota(t *testing.T) {
	sig := model.Signal{
		Signal:       model.SignalBuy,
		Confidence:   82,
		CurrentPrice: 2411.5,
		Timeframe:    model.TimeframeIntraday,
		Summary:      "Bullish break of structure",
		Entry:        2410,
		StopLoss:     2398,
		TakeProfit1:  2425,
		TakeProfit2:  2440,
	}
	h, users := newTestSignalHandler(t, &stubSignalService{signal: &sig})

	rec := httptest.NewRecorder()
	h.analyze(rec, analyzeRequest("1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.AnalysisResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.UserID)
	assert.Equal(t, model.SignalBuy, resp.Signal)
	assert.Regexp(t, `^anl_[0-9a-f]{12}$`, resp.ID)

	u, err := users.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.AnalysisCount)
}

func TestAnalyzeUnknownUser(t *testing.T) {
	h, _ := newTestSignalHandler(t, &stubSignalService{err: service.ErrUpstream})

	rec := httptest.NewRecorder()
	h.analyze(rec, analyzeRequest("404"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
