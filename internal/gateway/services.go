package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

func servicePath(id string, suffix string) string {
	return "/api/admin/services/" + url.PathEscape(id) + suffix
}

func (c *Client) FetchServices(ctx context.Context) ([]model.ServiceItem, error) {
	const op = "fetch_services"
	start := time.Now()

	res, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/api/admin/services"})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	if !res.ok() {
		c.observe(op, start, outcomeOf(false, nil))
		return nil, &StatusError{Op: op, Status: res.status, Message: "Failed to fetch services"}
	}

	var out []model.ServiceItem
	if err := decodeList(op, res.body, &out); err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	c.observe(op, start, outcomeOf(true, nil))
	return out, nil
}

// CreateService trims the text fields, defaults the category to "General"
// and visibility to true.
func (c *Client) CreateService(ctx context.Context, req model.CreateServiceRequest) (*model.ServiceResult, error) {
	visible := req.Visible == nil || *req.Visible
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}
	body := model.CreateServiceRequest{
		Title:      strings.TrimSpace(req.Title),
		Category:   category,
		PriceRange: strings.TrimSpace(req.PriceRange),
		Visible:    &visible,
	}
	return c.serviceCall(ctx, "create_service", http.MethodPost, "/api/admin/services", body, "Failed to create service")
}

func (c *Client) UpdateService(ctx context.Context, id string, req model.UpdateServiceRequest) (*model.ServiceResult, error) {
	body := model.UpdateServiceRequest{
		Title:      trimPtr(req.Title),
		Category:   trimPtr(req.Category),
		PriceRange: trimPtr(req.PriceRange),
		Visible:    req.Visible,
	}
	return c.serviceCall(ctx, "update_service", http.MethodPatch, servicePath(id, ""), body, "Failed to update service")
}

func (c *Client) ToggleServiceVisibility(ctx context.Context, id string, visible bool) (*model.ServiceResult, error) {
	body := struct {
		Visible bool `json:"visible"`
	}{Visible: visible}
	return c.serviceCall(ctx, "toggle_service_visibility", http.MethodPatch, servicePath(id, "/visibility"), body, "Failed to update visibility")
}

func (c *Client) DeleteService(ctx context.Context, id string) (*model.ServiceResult, error) {
	return c.serviceCall(ctx, "delete_service", http.MethodDelete, servicePath(id, ""), nil, "Failed to delete service")
}

func (c *Client) serviceCall(ctx context.Context, op, method, path string, body interface{}, fallback string) (*model.ServiceResult, error) {
	start := time.Now()

	res, err := c.do(ctx, call{op: op, method: method, path: path, body: body})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}

	if !res.ok() {
		msg, errs := failureFrom(res.body, fallback)
		c.observe(op, start, outcomeOf(false, nil))
		return &model.ServiceResult{Success: false, Message: msg, Errors: errs}, nil
	}

	out := model.ServiceResult{Success: true}
	if len(strings.TrimSpace(string(res.body))) > 0 {
		if err := decode(op, res.body, &out); err != nil {
			c.observe(op, start, outcomeOf(false, err))
			return nil, err
		}
	}
	c.observe(op, start, outcomeOf(out.Success, nil))
	return &out, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
