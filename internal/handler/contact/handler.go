// Package contact serves the admin contact inbox.
package contact

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/web"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
)

type contactsView struct {
	Contacts    []model.ContactSubmission
	Selected    *model.ContactSubmission
	Index       int
	Reply       bool
	Email       email.Form
	Errors      map[string]string
	MailEnabled bool
}

type Handler struct {
	base    *handler.Base
	content *content.Service
	mailer  *email.Service
}

func NewHandler(base *handler.Base, content *content.Service, mailer *email.Service) *Handler {
	return &Handler{base: base, content: content, mailer: mailer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts")
	{
		contacts.GET("", h.Inbox)
		contacts.POST("/:index/reply", h.Reply)
	}
}

func (h *Handler) render(c *gin.Context, status int, view contactsView, notice *web.Notice) {
	view.Contacts = h.content.Content().Contacts
	view.MailEnabled = h.mailer.Enabled()
	page := h.base.Page(c, "Contacts", "contacts")
	page.Notice = notice
	page.Data = view
	c.HTML(status, "admin/contacts.html", page)
}

func (h *Handler) selected(c *gin.Context, raw string) (contactsView, bool) {
	index, ok := handler.Index(raw)
	if !ok {
		return contactsView{}, false
	}
	msg, ok := h.content.Contact(index)
	if !ok {
		return contactsView{}, false
	}
	return contactsView{Selected: &msg, Index: index}, true
}

// Inbox lists the messages. ?view=N opens message N and &reply=1 the reply
// form prefilled from it.
func (h *Handler) Inbox(c *gin.Context) {
	raw, viewing := c.GetQuery("view")
	if !viewing {
		h.render(c, http.StatusOK, contactsView{}, nil)
		return
	}

	view, ok := h.selected(c, raw)
	if !ok {
		handler.Abort(c, apperrors.NotFound("Message", nil))
		return
	}
	if c.Query("reply") != "" {
		view.Reply = true
		view.Email = content.ReplyDefaults(*view.Selected)
	}
	h.render(c, http.StatusOK, view, nil)
}

func (h *Handler) Reply(c *gin.Context) {
	view, ok := h.selected(c, c.Param("index"))
	if !ok {
		handler.Abort(c, apperrors.NotFound("Message", nil))
		return
	}
	var form email.Form
	if _, err := handler.Bind(c, &form); err != nil {
		handler.Abort(c, err)
		return
	}

	errs, err := h.mailer.SendForm(c.Request.Context(), form)
	view.Reply, view.Email, view.Errors = true, form, errs
	switch {
	case errs != nil:
		h.render(c, http.StatusUnprocessableEntity, view, nil)
	case errors.Is(err, email.ErrDisabled):
		h.render(c, http.StatusServiceUnavailable, view, web.Failure("Email is not configured on this server."))
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to send reply")
		h.render(c, http.StatusBadGateway, view, web.Failure("Failed to send email."))
	default:
		view.Reply, view.Email = false, email.Form{}
		h.render(c, http.StatusOK, view, web.Success("Reply sent to "+form.To+"."))
	}
}
