package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

func (c *Client) SendContact(ctx context.Context, req model.ContactRequest) (*model.ContactResult, error) {
	const op = "send_contact"
	start := time.Now()

	res, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/api/contact", body: req})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}

	if !res.ok() {
		msg, _ := failureFrom(res.body, "Failed to send message")
		c.observe(op, start, outcomeOf(false, nil))
		return &model.ContactResult{Success: false, Message: msg}, nil
	}

	var out model.ContactResult
	if err := decode(op, res.body, &out); err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	c.observe(op, start, outcomeOf(out.Success, nil))
	return &out, nil
}
