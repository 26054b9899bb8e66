package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"goldsignal/internal/api/v1/dto"
	"goldsignal/internal/model"
	"goldsignal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	userService     service.UserService
	analysisService service.AnalysisService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewAdminHandler(userService service.UserService, analysisService service.AnalysisService, v *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		analysisService: analysisService,
		validate:        v,
		logger:          logger.With().Str("handler", "AdminHandler").Logger(),
	}
}

// RegisterRoutes mounts v1 admin routes. The middleware chain must include
// both authentication and the administrator check.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/users", adminMw(http.HandlerFunc(h.listUsers)))
	mux.Handle("/admin/users/", adminMw(http.HandlerFunc(h.handleUser)))
	mux.Handle("/admin/analyses", adminMw(http.HandlerFunc(h.listAnalyses)))
	mux.Handle("/admin/analyses/", adminMw(http.HandlerFunc(h.updateAnalysis)))
}

// listUsers godoc
// @Summary List all users (secrets stripped)
// @Tags Admin
// @Produce json
// @Success 200 {array} dto.UserResponseDTO
// @Router /admin/users [get]
func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	users := h.userService.List(r.Context())
	out := make([]dto.UserResponseDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// handleUser dispatches /admin/users/{id}, /admin/users/{id}/access-key and
// /admin/users/{id}/analyses.
func (h *AdminHandler) handleUser(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodPatch:
		h.updateUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "access-key" && r.Method == http.MethodPost:
		h.regenerateAccessKey(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "analyses" && r.Method == http.MethodGet:
		h.listUserAnalyses(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// updateUser godoc
// @Summary Update any field of a user
// @Description Merges the provided fields. The administrator account can never be demoted from VIP.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.UserUpdateDTO true "Fields to update"
// @Success 200 {object} dto.UserResponseDTO
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.UserUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Update(r.Context(), id, model.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Plan:     req.Plan,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to update user: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewUserResponse(*user))
}

// regenerateAccessKey godoc
// @Summary Replace a user's access key with a fresh one
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Router /admin/users/{id}/access-key [post]
func (h *AdminHandler) regenerateAccessKey(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.userService.RegenerateAccessKey(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to regenerate access key: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info().Str("user_id", id).Msg("Regenerated access key")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewUserResponse(*user))
}

// listUserAnalyses godoc
// @Summary List one user's analysis records
// @Tags Admin
// @Produce json
// @Success 200 {array} dto.AnalysisResponseDTO
// @Router /admin/users/{id}/analyses [get]
func (h *AdminHandler) listUserAnalyses(w http.ResponseWriter, r *http.Request, id string) {
	records := h.analysisService.ListForUser(r.Context(), id)

	out := make([]dto.AnalysisResponseDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NewAnalysisResponse(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// listAnalyses godoc
// @Summary List all analysis records
// @Tags Admin
// @Produce json
// @Success 200 {array} dto.AnalysisResponseDTO
// @Router /admin/analyses [get]
func (h *AdminHandler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	records := h.analysisService.ListAll(r.Context())
	out := make([]dto.AnalysisResponseDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NewAnalysisResponse(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// updateAnalysis godoc
// @Summary Edit fields of an analysis record
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.AnalysisUpdateDTO true "Fields to update"
// @Success 200 {object} dto.AnalysisResponseDTO
// @Router /admin/analyses/{id} [patch]
func (h *AdminHandler) updateAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/admin/analyses/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	var req dto.AnalysisUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.analysisService.Update(r.Context(), id, model.AnalysisUpdate{
		Signal:       req.Signal,
		Confidence:   req.Confidence,
		CurrentPrice: req.CurrentPrice,
		Timeframe:    req.Timeframe,
		Summary:      req.Summary,
		Analysis:     req.Analysis,
		Entry:        req.Entry,
		StopLoss:     req.StopLoss,
		TakeProfit1:  req.TakeProfit1,
		TakeProfit2:  req.TakeProfit2,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAnalysisNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to update analysis: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewAnalysisResponse(*rec))
}
