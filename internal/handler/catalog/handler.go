package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groqchat/groqchat/internal/model/catalog"
	"github.com/groqchat/groqchat/pkg/utils"
)

// Handler 模型目录的HTTP处理器
type Handler struct {
	store catalog.Store
}

// New 创建模型目录处理器
func New(store catalog.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册模型目录路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"models": h.store.List()})
}
