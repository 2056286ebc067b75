package rest

import (
	"net/http"
	"strings"
	"voxllm/internal/cache"
	"voxllm/internal/logger"
	"voxllm/internal/service"
	"voxllm/internal/transport/rest/handler"
	"voxllm/internal/transport/rest/middleware"
	"voxllm/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	InterviewService *service.InterviewService
	AnalysisService  *service.AnalysisService
	DocumentService  *service.DocumentService
	Stats            cache.StatsCache
	WSHub            *ws.Hub
	AllowOrigins     []string
	Log              *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	log := c.Log
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	// Initialize handlers
	caseHandler := handler.NewCaseHandler(c.InterviewService, c.DocumentService, log)
	documentHandler := handler.NewDocumentHandler(c.DocumentService, log)
	systemHandler := handler.NewSystemHandler(c.AnalysisService, c.Stats)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.InterviewService, c.AllowOrigins, log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowOrigins))
	r.Use(middleware.RequestLogger(log))

	// Health check
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/cases", caseHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/documents/pdf", documentHandler.RenderPDF).Methods("POST", "OPTIONS")
	v1.HandleFunc("/llm/status", systemHandler.LLMStatus).Methods("GET", "OPTIONS")
	v1.HandleFunc("/stats", systemHandler.Stats).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/cases/{id}", wsHandler.SessionWS).Methods("GET")

	// Case routes (require a token for the same case)
	caseRoutes := v1.PathPrefix("/cases/{id}").Subrouter()
	caseRoutes.Use(authMW.RequireSession)

	caseRoutes.HandleFunc("", caseHandler.Get).Methods("GET", "OPTIONS")
	caseRoutes.HandleFunc("", caseHandler.Close).Methods("DELETE")
	caseRoutes.HandleFunc("/next", caseHandler.Next).Methods("GET", "OPTIONS")
	caseRoutes.HandleFunc("/answers", caseHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	caseRoutes.HandleFunc("/phases/{phase}", caseHandler.RunPhase).Methods("POST", "OPTIONS")
	caseRoutes.HandleFunc("/restart", caseHandler.Restart).Methods("POST", "OPTIONS")
	caseRoutes.HandleFunc("/pdf", caseHandler.PDF).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowedOrigin(allowOrigins, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if origin != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowedOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(a, origin) {
			return origin
		}
	}
	return ""
}
