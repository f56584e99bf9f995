// Package public serves the marketing pages.
package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/auth"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/web"
)

const (
	MsgSent       = "Message sent successfully."
	MsgSendFailed = "Failed to send message."
)

type aboutView struct {
	About content.About
	Team  []model.TeamMember
}

type contactView struct {
	Form   model.ContactRequest
	Errors map[string]string
}

type Handler struct {
	base    *handler.Base
	content *content.Service
	client  *gateway.Client
}

func NewHandler(base *handler.Base, content *content.Service, client *gateway.Client) *Handler {
	return &Handler{base: base, content: content, client: client}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.About)
	r.GET("/contact", h.ContactPage)
	r.POST("/contact", h.SendContact)
}

func (h *Handler) About(c *gin.Context) {
	page := h.base.Page(c, "About Us", "about")
	page.Data = aboutView{
		About: h.content.Content().About,
		Team:  h.content.Team(c.Request.Context()),
	}
	c.HTML(http.StatusOK, "about.html", page)
}

func (h *Handler) ContactPage(c *gin.Context) {
	h.renderContact(c, http.StatusOK, contactView{}, nil)
}

func (h *Handler) renderContact(c *gin.Context, status int, view contactView, notice *web.Notice) {
	page := h.base.Page(c, "Contact Us", "contact")
	page.Notice = notice
	page.Data = view
	c.HTML(status, "contact.html", page)
}

// SendContact forwards the contact form to the backend. On success the form
// is cleared; otherwise the visitor's input is kept.
func (h *Handler) SendContact(c *gin.Context) {
	var form model.ContactRequest
	errs, err := handler.Bind(c, &form)
	if err != nil {
		handler.Abort(c, err)
		return
	}
	form = trimContact(form)
	if errs != nil {
		h.renderContact(c, http.StatusUnprocessableEntity, contactView{Form: form, Errors: errs}, web.Failure(MsgSendFailed))
		return
	}

	res, err := h.client.SendContact(c.Request.Context(), form)
	switch {
	case errors.Is(err, gateway.ErrUnreachable):
		h.renderContact(c, http.StatusBadGateway, contactView{Form: form}, web.Failure(auth.MsgUnreachable))
		return
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("contact submission failed")
		h.renderContact(c, http.StatusBadGateway, contactView{Form: form}, web.Failure(MsgSendFailed))
		return
	}

	if !res.Success {
		h.renderContact(c, http.StatusOK, contactView{Form: form}, web.Failure(orDefault(res.Message, MsgSendFailed)))
		return
	}
	h.renderContact(c, http.StatusOK, contactView{}, web.Success(orDefault(res.Message, MsgSent)))
}

func trimContact(f model.ContactRequest) model.ContactRequest {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	return f
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
