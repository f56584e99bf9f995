package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

func (c *Client) FetchBookings(ctx context.Context) ([]model.BookingDTO, error) {
	const op = "fetch_bookings"
	start := time.Now()

	res, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/api/bookings"})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	if !res.ok() {
		c.observe(op, start, outcomeOf(false, nil))
		return nil, &StatusError{Op: op, Status: res.status, Message: "Failed to fetch bookings"}
	}

	var out []model.BookingDTO
	if err := decodeList(op, res.body, &out); err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	c.observe(op, start, outcomeOf(true, nil))
	return out, nil
}
