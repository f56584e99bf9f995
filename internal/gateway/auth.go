package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

// Login posts the admin credentials. Application failures come back as a
// LoginResult with Success false; transport failures as an error.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	const op = "login"
	start := time.Now()

	req.Email = strings.TrimSpace(req.Email)
	res, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/api/admin/login", body: req})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}

	if !res.ok() {
		msg, errs := failureFrom(res.body, "Sign in failed")
		c.observe(op, start, outcomeOf(false, nil))
		return &model.LoginResult{Success: false, Message: msg, Errors: errs}, nil
	}

	var out model.LoginResult
	if err := decode(op, res.body, &out); err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	if out.Success && (out.Session == nil || out.Session.AccessToken == "" || out.User == nil) {
		err := fmt.Errorf("%s: %w: success without session", op, ErrMalformedResponse)
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	if !out.Success && out.Message == "" {
		out.Message = "Sign in failed"
	}
	c.observe(op, start, outcomeOf(out.Success, nil))
	return &out, nil
}
