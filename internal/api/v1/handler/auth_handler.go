package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"goldsignal/internal/api/v1/dto"
	"goldsignal/internal/model"
	"goldsignal/internal/service"
	"goldsignal/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	userService service.UserService
	validate    *validator.Validate
	jwtSecret   string
	jwtTTL      time.Duration
	logger      zerolog.Logger
}

func NewAuthHandler(userService service.UserService, v *validator.Validate, jwtSecret string, jwtTTL time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		validate:    v,
		jwtSecret:   jwtSecret,
		jwtTTL:      jwtTTL,
		logger:      logger.With().Str("handler", "AuthHandler").Logger(),
	}
}

// RegisterRoutes mounts v1 auth routes. They are unauthenticated by design.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/auth/login", http.HandlerFunc(h.login))
	mux.Handle("/auth/register", http.HandlerFunc(h.register))
}

// login godoc
// @Summary Log in with name and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequestDTO true "Credentials"
// @Success 200 {object} dto.AuthResponseDTO
// @Failure 401 {string} string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "Invalid name or password", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Login failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

// register godoc
// @Summary Register a new account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequestDTO true "Registration details"
// @Success 201 {object} dto.AuthResponseDTO
// @Failure 409 {string} string "Name or email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			// A conflict, not a lookup miss: the name or email is taken.
			http.Error(w, "A user with that name or email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Registration failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *model.User) {
	token, err := util.GenerateJWT(h.jwtSecret, user.ID, user.Name, user.IsAdmin(), h.jwtTTL)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		http.Error(w, "Failed to issue session token", http.StatusInternalServerError)
		return
	}

	resp := dto.AuthResponseDTO{
		Token: token,
		User:  dto.NewUserResponse(*user),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
