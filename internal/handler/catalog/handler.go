// Package catalog serves the admin service board.
package catalog

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/handler"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/auth"
	catalogService "github.com/afresh/afresh-web/internal/service/catalog"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
	apperrors "github.com/afresh/afresh-web/pkg/errors"
)

const (
	MsgCreated    = "Service created successfully."
	MsgUpdated    = "Service updated successfully."
	MsgDeleted    = "Service deleted."
	MsgLoadFailed = "Failed to load services."
)

const boardPath = "/admin/services"

// done maps the ?done= code set after a redirect to its page message.
var done = map[string]string{
	"created": MsgCreated,
	"updated": MsgUpdated,
}

type servicesView struct {
	Board  *catalogService.Board
	Modal  string
	Target *catalogService.Card
	Form   catalogService.ServiceForm
	Errors map[string]string
}

type Handler struct {
	base *handler.Base
	svc  *catalogService.Service
}

func NewHandler(base *handler.Base, svc *catalogService.Service) *Handler {
	return &Handler{base: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.GET("", h.Board)
		services.POST("", h.Create)
		services.POST("/:id", h.Update)
		services.POST("/:id/visibility", h.Toggle)
		services.POST("/:id/delete", h.Delete)
	}
}

func token(c *gin.Context) string {
	if sess := session.FromContext(c); sess != nil {
		return sess.Token
	}
	return ""
}

func (h *Handler) render(c *gin.Context, status int, view servicesView, notice *web.Notice) {
	page := h.base.Page(c, "Services", "services")
	page.Notice = notice
	page.Data = view
	c.HTML(status, "admin/services.html", page)
}

// load fetches the board. On failure the returned notice explains why and
// the board is nil.
func (h *Handler) load(c *gin.Context) (*catalogService.Board, *web.Notice) {
	board, err := h.svc.Board(c.Request.Context(), token(c))
	if err == nil {
		return board, nil
	}
	zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to load services")
	if errors.Is(err, gateway.ErrUnreachable) {
		return nil, web.Failure(auth.MsgUnreachable)
	}
	return nil, web.Failure(MsgLoadFailed)
}

// Board shows the catalog. ?new=1 opens the add modal, ?edit=<id> the edit
// modal and ?delete=<id> the delete confirmation.
func (h *Handler) Board(c *gin.Context) {
	board, notice := h.load(c)
	if board == nil {
		h.render(c, http.StatusBadGateway, servicesView{}, notice)
		return
	}
	if msg, ok := done[c.Query("done")]; ok {
		notice = web.Success(msg)
	}

	view := servicesView{Board: board}
	switch {
	case c.Query("new") != "":
		view.Modal = "new"
		view.Form = catalogService.ServiceForm{Visible: true}
	case c.Query("edit") != "":
		if card := actionable(board, c.Query("edit")); card != nil {
			view.Modal, view.Target, view.Form = "edit", card, catalogService.FormFor(card.ServiceItem)
		}
	case c.Query("delete") != "":
		if card := actionable(board, c.Query("delete")); card != nil {
			view.Modal, view.Target = "delete", card
		}
	}
	h.render(c, http.StatusOK, view, notice)
}

func actionable(board *catalogService.Board, id string) *catalogService.Card {
	i, ok := board.Find(id)
	if !ok || !board.Cards[i].Actionable() {
		return nil
	}
	return &board.Cards[i]
}

func (h *Handler) Create(c *gin.Context) {
	h.save(c, "new", "")
}

func (h *Handler) Update(c *gin.Context) {
	h.save(c, "edit", c.Param("id"))
}

// save handles both modals. Failures reopen the modal with the submitted
// values, the backend message and any per-field errors.
func (h *Handler) save(c *gin.Context, modal, id string) {
	var form catalogService.ServiceForm
	errs, err := handler.Bind(c, &form)
	if err != nil {
		handler.Abort(c, err)
		return
	}

	var res *model.ServiceResult
	if errs == nil {
		if modal == "new" {
			res, err = h.svc.Create(c.Request.Context(), token(c), form)
		} else {
			res, err = h.svc.Update(c.Request.Context(), token(c), id, form)
		}
	}

	var notice *web.Notice
	switch {
	case errs != nil:
		notice = web.Failure("Please fix the highlighted fields")
	case errors.Is(err, gateway.ErrUnreachable):
		notice = web.Failure(auth.MsgUnreachable)
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("service_id", id).Msg("failed to save service")
		notice = web.Failure(failedSave(modal))
	case !res.Success:
		notice = web.Failure(res.Message)
		errs = model.FieldErrors(res.Errors)
	default:
		code := "created"
		if modal == "edit" {
			code = "updated"
		}
		c.Redirect(http.StatusSeeOther, boardPath+"?done="+code)
		return
	}

	board, loadNotice := h.load(c)
	if loadNotice != nil && notice == nil {
		notice = loadNotice
	}
	view := servicesView{Board: board, Modal: modal, Form: form, Errors: errs}
	if modal == "edit" {
		view.Target = &catalogService.Card{ServiceItem: model.ServiceItem{ID: id, Title: form.Title}}
		if board != nil {
			if card := actionable(board, id); card != nil {
				view.Target = card
			}
		}
	}
	h.render(c, http.StatusUnprocessableEntity, view, notice)
}

func failedSave(modal string) string {
	if modal == "new" {
		return "Failed to create service"
	}
	return "Failed to update service"
}

// Toggle flips a card's visibility. The result message is shown on the card.
func (h *Handler) Toggle(c *gin.Context) {
	id := c.Param("id")
	board, notice := h.load(c)
	if board == nil {
		h.render(c, http.StatusBadGateway, servicesView{}, notice)
		return
	}

	_, err := h.svc.Toggle(c.Request.Context(), token(c), board, id)
	switch {
	case errors.Is(err, catalogService.ErrUnknownService):
		handler.Abort(c, apperrors.NotFound("Service", err))
		return
	case errors.Is(err, gateway.ErrUnreachable):
		board.Annotate(id, auth.MsgUnreachable, true)
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("service_id", id).Msg("failed to toggle service")
		board.Annotate(id, "Failed to update visibility", true)
	}
	h.render(c, http.StatusOK, servicesView{Board: board}, nil)
}

// Delete removes a service after the confirmation step.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, boardPath+"?delete="+url.QueryEscape(id))
		return
	}

	board, notice := h.load(c)
	if board == nil {
		h.render(c, http.StatusBadGateway, servicesView{}, notice)
		return
	}

	res, err := h.svc.Delete(c.Request.Context(), token(c), board, id)
	switch {
	case errors.Is(err, catalogService.ErrUnknownService):
		handler.Abort(c, apperrors.NotFound("Service", err))
		return
	case errors.Is(err, gateway.ErrUnreachable):
		board.Annotate(id, auth.MsgUnreachable, true)
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("service_id", id).Msg("failed to delete service")
		board.Annotate(id, "Failed to delete service", true)
	case res.Success:
		notice = web.Success(orDefault(res.Message, MsgDeleted))
	}
	h.render(c, http.StatusOK, servicesView{Board: board}, notice)
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
