package overview

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/service/content"
)

type Handler struct {
	base    *handler.Base
	content *content.Service
}

func NewHandler(base *handler.Base, content *content.Service) *Handler {
	return &Handler{base: base, content: content}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Overview)
}

func (h *Handler) Overview(c *gin.Context) {
	page := h.base.Page(c, "Overview", "overview")
	page.Data = h.content.Content().Overview
	c.HTML(http.StatusOK, "admin/overview.html", page)
}
