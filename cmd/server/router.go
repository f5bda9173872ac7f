package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chainforum/forum-api/internal/api"
	apiMiddleware "github.com/chainforum/forum-api/internal/api/middleware"
	"github.com/chainforum/forum-api/internal/api/shared"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	postHandler := api.NewPostHandler(app.submissions, app.reads)
	commentHandler := api.NewCommentHandler(app.submissions, app.reads)
	taskHandler := api.NewTaskHandler(app.submissions)

	r.Route("/api", func(r chi.Router) {
		r.Post("/posts", postHandler.CreatePost)
		r.Get("/posts", postHandler.ListPosts)
		r.Get("/posts/{postID}", postHandler.GetPost)

		r.Post("/posts/{postID}/comments", commentHandler.CreateComment)
		r.Get("/posts/{postID}/comments", commentHandler.ListComments)

		r.Get("/tasks/{taskID}", taskHandler.GetTask)
	})

	r.Get("/health", app.healthCheck)

	return r
}

// healthCheck reports liveness and database reachability.
func (app *application) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable"})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
