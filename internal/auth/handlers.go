package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthHandlers обработчики аутентификации администратора. Сервис не
// ведет таблицу пользователей: учетные данные приходят из конфигурации.
type AuthHandlers struct {
	jwtService        *JWTService
	passwordService   *PasswordService
	adminEmail        string
	adminPasswordHash string
	log               *zap.Logger
}

// NewAuthHandlers создает обработчики аутентификации
func NewAuthHandlers(jwtService *JWTService, passwordService *PasswordService, adminEmail, adminPasswordHash string, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		jwtService:        jwtService,
		passwordService:   passwordService,
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		log:               log,
	}
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse структура ответа входа
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login выдает JWT при верных учетных данных администратора
//
//	@Summary		Admin login
//	@Description	Exchange admin credentials for a JWT access token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Admin credentials"
//	@Success		200		{object}	LoginResponse	"Token issued"
//	@Failure		401		{object}	map[string]string	"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !strings.EqualFold(req.Email, h.adminEmail) ||
		h.passwordService.VerifyPassword(h.adminPasswordHash, req.Password) != nil {
		h.log.Warn("failed admin login attempt", zap.String("email", req.Email))
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtService.GenerateAccessToken(h.adminEmail)
	if err != nil {
		h.log.Error("failed to generate access token", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("admin logged in", zap.String("email", h.adminEmail))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LoginResponse{AccessToken: token}); err != nil {
		h.log.Error("failed to encode login response", zap.Error(err))
	}
}
