package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/afresh/afresh-web/internal/model"
)

func (c *Client) FetchTeams(ctx context.Context) ([]model.TeamMemberDTO, error) {
	const op = "fetch_teams"
	start := time.Now()

	res, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/api/teams"})
	logCall(op, start, res.status, err)
	if err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	if !res.ok() {
		c.observe(op, start, outcomeOf(false, nil))
		return nil, &StatusError{Op: op, Status: res.status, Message: "Failed to fetch teams"}
	}

	var out []model.TeamMemberDTO
	if err := decodeList(op, res.body, &out); err != nil {
		c.observe(op, start, outcomeOf(false, err))
		return nil, err
	}
	c.observe(op, start, outcomeOf(true, nil))
	return out, nil
}
