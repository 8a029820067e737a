package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hscplanner-backend/internal/handlers"
	"hscplanner-backend/internal/middleware"
	"hscplanner-backend/internal/websocket"
)

func New(
	profileHandler *handlers.ProfileHandler,
	subjectHandler *handlers.SubjectHandler,
	routineHandler *handlers.RoutineHandler,
	examHandler *handlers.ExamHandler,
	questionHandler *handlers.QuestionHandler,
	newsHandler *handlers.NewsHandler,
	syncHandler *handlers.SyncHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// AI rate limiter (10 req/min per IP); local operations are unmetered.
	aiLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Profile Routes ────
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Put("/", profileHandler.Update)
		})

		// ──── Subject Routes ────
		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", subjectHandler.List)
			r.Post("/", subjectHandler.Add)
			r.Put("/{id}/progress", subjectHandler.UpdateProgress)
			r.Put("/{id}/name", subjectHandler.UpdateName)
		})

		// ──── Routine Routes ────
		r.Route("/routine", func(r chi.Router) {
			r.Get("/", routineHandler.Get)
			r.Put("/", routineHandler.Update)
			r.Get("/slots", routineHandler.Slots)
		})

		// ──── Exam Routes ────
		r.Route("/exams", func(r chi.Router) {
			r.Post("/{id}/generate", examHandler.Generate)
			r.Get("/{id}", examHandler.GetBank)
			r.Post("/{id}/answer", examHandler.SaveAnswer)
			r.Post("/{id}/grade-local", examHandler.GradeLocal)

			r.Group(func(r chi.Router) {
				r.Use(aiLimiter.Middleware)
				r.Post("/{id}/grade-ai", examHandler.GradeAI)
			})
		})

		r.Route("/exam-date", func(r chi.Router) {
			r.Get("/", examHandler.GetExamDate)
			r.Put("/", examHandler.SetExamDate)
		})

		// ──── Question Bank Routes ────
		r.Route("/questions", func(r chi.Router) {
			r.Get("/stats", questionHandler.Stats)
			r.Post("/", questionHandler.Add)

			r.Group(func(r chi.Router) {
				r.Use(aiLimiter.Middleware)
				r.Post("/generate", questionHandler.GenerateAI)
				r.Post("/quick-answer", questionHandler.QuickAnswer)
			})
		})

		// ──── News Routes ────
		r.Group(func(r chi.Router) {
			r.Use(aiLimiter.Middleware)
			r.Get("/news", newsHandler.Get)
		})

		// ──── Sync & Backup Routes ────
		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", syncHandler.Status)
			r.Get("/client-id", syncHandler.GetClientID)
			r.Put("/client-id", syncHandler.SaveClientID)
			r.Post("/connect", syncHandler.Connect)
			r.Post("/disconnect", syncHandler.Disconnect)
			r.Post("/now", syncHandler.SyncNow)
			r.Get("/backup", syncHandler.Backup)
			r.Post("/restore", syncHandler.Restore)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
