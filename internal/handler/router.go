package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	chatHandler "github.com/techideas/interview/backend/internal/handler/chat"
	interviewHandler "github.com/techideas/interview/backend/internal/handler/interview"
	profileHandler "github.com/techideas/interview/backend/internal/handler/profile"
	"github.com/techideas/interview/backend/internal/handler/stream"
	"github.com/techideas/interview/backend/internal/handler/ws"
	appMetrics "github.com/techideas/interview/backend/internal/metrics"
	middlewarePkg "github.com/techideas/interview/backend/internal/middleware"
	profileModel "github.com/techideas/interview/backend/internal/model/profile"
	aiService "github.com/techideas/interview/backend/internal/service/ai"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
	"github.com/techideas/interview/backend/pkg/utils"
)

// Deps collects the services the router wires to routes. AI is optional; the
// interview flow works without a responder.
type Deps struct {
	Profiles      profileModel.Store
	ChatSvc       *chatService.Service
	InterviewSvc  *interviewService.Service
	AISvc         *aiService.Service
	Metrics       *appMetrics.Metrics
	DefaultUserID string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	var streamHandler *stream.Handler
	if deps.AISvc != nil {
		streamHandler = stream.New(deps.AISvc, deps.ChatSvc, deps.InterviewSvc, deps.Profiles, deps.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(deps.Profiles).RegisterRoutes(api)
		chatHandler.New(deps.ChatSvc, deps.Profiles, deps.InterviewSvc).RegisterRoutes(api)
		interviewHandler.New(deps.InterviewSvc, deps.DefaultUserID).RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		if deps.AISvc != nil {
			ws.New(deps.AISvc, deps.ChatSvc, deps.InterviewSvc, deps.Profiles, deps.Metrics).RegisterRoutes(api)
		}
	})

	return r
}
