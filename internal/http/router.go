package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"founder-ai/internal/handlers"
	"founder-ai/internal/rag"
	"founder-ai/internal/storage"
	"founder-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RAGEngine      rag.Engine
	TranscriptRepo storage.TranscriptStore
	VectorStore    vectorstore.VectorStore
	CollectionName string
	DebugErrors    bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	askHandler := handlers.NewAskHandler(deps.RAGEngine, deps.DebugErrors)
	sourcesHandler := handlers.NewSourcesHandler(deps.TranscriptRepo)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/sources", sourcesHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
