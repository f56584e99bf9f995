// Package catalog manages the service catalog on behalf of a signed in admin.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/pkg/validator"
)

var ErrUnknownService = errors.New("service not found on the board")

// ServiceForm is the add/edit service form.
type ServiceForm struct {
	Title      string `form:"title" binding:"required"`
	Category   string `form:"category"`
	PriceRange string `form:"priceRange"`
	Visible    bool   `form:"visible"`
}

func (f ServiceForm) trimmed() ServiceForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.PriceRange = strings.TrimSpace(f.PriceRange)
	return f
}

// FormFor prefills the edit form from item. Visibility follows the status.
func FormFor(item model.ServiceItem) ServiceForm {
	return ServiceForm{
		Title:      item.Title,
		Category:   item.Category,
		PriceRange: item.PriceRange,
		Visible:    item.Status.Visible(),
	}
}

type Service struct {
	client   *gateway.Client
	validate *validator.Validator
}

func NewService(client *gateway.Client) *Service {
	return &Service{client: client, validate: validator.New()}
}

// Board loads the current catalog.
func (s *Service) Board(ctx context.Context, token string) (*Board, error) {
	items, err := s.client.WithToken(token).FetchServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	return NewBoard(items), nil
}

// Create validates form and creates the service. Validation failures come
// back as a failed result with field errors and no backend call.
func (s *Service) Create(ctx context.Context, token string, form ServiceForm) (*model.ServiceResult, error) {
	if res := s.check(form); res != nil {
		return res, nil
	}
	visible := form.Visible
	return s.client.WithToken(token).CreateService(ctx, model.CreateServiceRequest{
		Title:      form.Title,
		Category:   form.Category,
		PriceRange: form.PriceRange,
		Visible:    &visible,
	})
}

func (s *Service) Update(ctx context.Context, token, id string, form ServiceForm) (*model.ServiceResult, error) {
	if res := s.check(form); res != nil {
		return res, nil
	}
	visible := form.Visible
	return s.client.WithToken(token).UpdateService(ctx, id, model.UpdateServiceRequest{
		Title:      &form.Title,
		Category:   &form.Category,
		PriceRange: &form.PriceRange,
		Visible:    &visible,
	})
}

// Toggle flips the visibility of id and applies the result to board.
func (s *Service) Toggle(ctx context.Context, token string, board *Board, id string) (*model.ServiceResult, error) {
	i, ok := board.Find(id)
	if !ok {
		return nil, ErrUnknownService
	}
	visible := !board.Cards[i].Status.Visible()
	res, err := s.client.WithToken(token).ToggleServiceVisibility(ctx, id, visible)
	if err != nil {
		return nil, err
	}
	board.ApplyVisibility(id, visible, res)
	return res, nil
}

// Delete removes id from the backend and, on success, from board.
func (s *Service) Delete(ctx context.Context, token string, board *Board, id string) (*model.ServiceResult, error) {
	if _, ok := board.Find(id); !ok {
		return nil, ErrUnknownService
	}
	res, err := s.client.WithToken(token).DeleteService(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Success {
		board.Remove(id)
	} else {
		board.Annotate(id, res.Message, true)
	}
	return res, nil
}

func (s *Service) check(form ServiceForm) *model.ServiceResult {
	errs := s.validate.Struct(form.trimmed())
	if errs == nil {
		return nil
	}
	res := &model.ServiceResult{Success: false, Message: "Please fix the highlighted fields"}
	for field, msg := range errs {
		res.Errors = append(res.Errors, model.FieldError{Field: field, Message: msg})
	}
	return res
}
