package http

import (
	"AffLink-Backend/internal/auth"
	"AffLink-Backend/internal/metrics"
	"AffLink-Backend/internal/repository"
	"AffLink-Backend/internal/service"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server HTTP сервер с обработчиками админского API
type Server struct {
	authHandlers     *auth.AuthHandlers
	settingsHandler  *SettingsHandler
	merchantsHandler *MerchantsHandler
	linksHandler     *LinksHandler
	redirectHandler  *RedirectHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	log              *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(
	storage repository.Storage,
	settingsService *service.SettingsService,
	merchantService *service.MerchantService,
	linkService *service.AffiliateLinkService,
	jwtService *auth.JWTService,
	authHandlers *auth.AuthHandlers,
	log *zap.Logger,
) *Server {
	return &Server{
		authHandlers:     authHandlers,
		settingsHandler:  NewSettingsHandler(settingsService, log),
		merchantsHandler: NewMerchantsHandler(merchantService, log),
		linksHandler:     NewLinksHandler(linkService, log),
		redirectHandler:  NewRedirectHandler(linkService, log),
		healthHandler:    NewHealthHandler(storage, log),
		authMiddleware:   auth.NewMiddleware(jwtService, log),
		log:              log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health checks (без аутентификации)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Prometheus метрики
	mux.Handle("/metrics", metricsHandler)

	// Swagger документация
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints (без аутентификации)
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))

	// Settings endpoints (с аутентификацией)
	mux.HandleFunc("/api/settings", s.withCORS(s.authMiddleware.RequireAuth(s.settingsHandler.Handle)))
	mux.HandleFunc("/api/settings/test", s.withCORS(s.authMiddleware.RequireAuth(s.settingsHandler.TestConnection)))

	// Merchant endpoints (с аутентификацией)
	mux.HandleFunc("/api/merchants", s.withCORS(s.authMiddleware.RequireAuth(s.merchantsHandler.HandleCollection)))
	mux.HandleFunc("/api/merchants/", s.withCORS(s.authMiddleware.RequireAuth(s.merchantsHandler.HandleItem)))

	// Link endpoints (с аутентификацией)
	mux.HandleFunc("/api/links", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.HandleCollection)))
	mux.HandleFunc("/api/links/reorder", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.Reorder)))
	mux.HandleFunc("/api/links/stats", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.Stats)))
	mux.HandleFunc("/api/links/", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.HandleItem)))

	// Redirect endpoint для отслеживания кликов (без аутентификации)
	mux.HandleFunc("/r/", s.redirectHandler.HandleRedirect)

	return s.withRequestID(s.withMetrics(mux))
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

// withRequestID проставляет X-Request-ID каждому запросу
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// withMetrics считает HTTP запросы по методу, пути и статусу
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
	})
}

// statusRecorder запоминает код ответа для метрик
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeJSON сериализует ответ в JSON
func writeJSON(w http.ResponseWriter, status int, payload interface{}, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

// writeError сериализует ошибку в JSON
func writeError(w http.ResponseWriter, status int, message string, log *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, log)
}
