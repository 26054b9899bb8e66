package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"goldsignal/internal/api/v1/dto"
	"goldsignal/internal/middleware"
	"goldsignal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type SignalHandler struct {
	gateService     service.GateService
	signalService   service.SignalService
	analysisService service.AnalysisService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewSignalHandler(gateService service.GateService, signalService service.SignalService, analysisService service.AnalysisService, v *validator.Validate, logger zerolog.Logger) *SignalHandler {
	return &SignalHandler{
		gateService:     gateService,
		signalService:   signalService,
		analysisService: analysisService,
		validate:        v,
		logger:          logger.With().Str("handler", "SignalHandler").Logger(),
	}
}

// RegisterRoutes mounts v1 signal routes
func (h *SignalHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/signals/allowance", authMw(http.HandlerFunc(h.getAllowance)))
	mux.Handle("/signals/analyze", authMw(http.HandlerFunc(h.analyze)))
	mux.Handle("/signals/history", authMw(http.HandlerFunc(h.getHistory)))
	mux.Handle("/market/summary", authMw(http.HandlerFunc(h.getMarketSummary)))
	mux.Handle("/calculator", authMw(http.HandlerFunc(h.calculate)))
}

// getAllowance godoc
// @Summary Check whether the user may request a new analysis
// @Tags Signals
// @Produce json
// @Success 200 {object} dto.GateDecisionDTO
// @Router /signals/allowance [get]
func (h *SignalHandler) getAllowance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	decision, err := h.gateService.CanAnalyze(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewGateDecisionResponse(decision))
}

// analyze godoc
// @Summary Request an AI trading signal for a chart screenshot
// @Description Checks the usage gate, calls the AI analyst and records the result. A gate rejection returns 429 with the decision body; quota is only consumed on success.
// @Tags Signals
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeRequestDTO true "Chart image and trading parameters"
// @Success 201 {object} dto.AnalysisResponseDTO
// @Failure 429 {object} dto.GateDecisionDTO
// @Failure 502 {string} string "Analysis failed"
// @Router /signals/analyze [post]
func (h *SignalHandler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.AnalyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := h.gateService.CanAnalyze(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !decision.Allowed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(dto.NewGateDecisionResponse(decision))
		return
	}

	sig, err := h.signalService.RequestSignal(r.Context(), service.ChartImage{
		MimeType: req.Image.MimeType,
		Data:     req.Image.Data,
	}, service.TradingParameters{
		Balance:  req.Balance,
		LotSize:  req.LotSize,
		Risk:     req.Risk,
		Leverage: req.Leverage,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Upstream signal request failed")
		http.Error(w, "Analysis failed. Please try again.", http.StatusBadGateway)
		return
	}

	rec, err := h.analysisService.Record(r.Context(), userID, *sig)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to record analysis: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto.NewAnalysisResponse(*rec))
}

// getHistory godoc
// @Summary List the authenticated user's analyses, newest first
// @Tags Signals
// @Produce json
// @Success 200 {array} dto.AnalysisResponseDTO
// @Router /signals/history [get]
func (h *SignalHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	records := h.analysisService.ListForUser(r.Context(), userID)
	// The store guarantees no ordering; sort newest first here.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	out := make([]dto.AnalysisResponseDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NewAnalysisResponse(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// getMarketSummary godoc
// @Summary Get the AI market summary for XAU/USD
// @Tags Market
// @Produce json
// @Success 200 {object} model.MarketSummaryData
// @Failure 502 {string} string "Upstream failure"
// @Router /market/summary [get]
func (h *SignalHandler) getMarketSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.signalService.RequestMarketSummary(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Upstream market summary request failed")
		http.Error(w, "Market summary unavailable. Please try again.", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// calculate godoc
// @Summary Compute lot size and risk amount for a trade
// @Tags Calculator
// @Accept json
// @Produce json
// @Param request body dto.CalculatorRequestDTO true "Position sizing input"
// @Success 200 {object} dto.CalculatorResponseDTO
// @Router /calculator [post]
func (h *SignalHandler) calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.CalculatorRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := service.CalculateLotSize(service.CalculatorInput{
		Balance:      req.Balance,
		RiskPercent:  req.RiskPercent,
		StopLossPips: req.StopLossPips,
	})
	if err != nil {
		http.Error(w, "Invalid calculator input", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.CalculatorResponseDTO{
		LotSize:         result.LotSize,
		RiskAmount:      result.RiskAmount,
		PotentialProfit: result.PotentialProfit,
	})
}
