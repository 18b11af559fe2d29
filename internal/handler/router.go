package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	catalogHandler "github.com/groqchat/groqchat/internal/handler/catalog"
	chatHandler "github.com/groqchat/groqchat/internal/handler/chat"
	middlewarePkg "github.com/groqchat/groqchat/internal/middleware"
	catalogModel "github.com/groqchat/groqchat/internal/model/catalog"
	chatService "github.com/groqchat/groqchat/internal/service/chat"
	"github.com/groqchat/groqchat/internal/web"
	"github.com/groqchat/groqchat/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(models catalogModel.Store, chatSvc *chatService.Service, gateway chatHandler.Completer, defaultModel string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		catalogHandler.New(models).RegisterRoutes(api)
		chatHandler.New(chatSvc, gateway, models, defaultModel).RegisterRoutes(api)
	})

	// Browser UI at the root.
	r.Handle("/*", web.Handler())

	return r
}
