package catalog

import (
	"github.com/afresh/afresh-web/internal/model"
)

// Card is a service on the board together with the message from the last
// action performed on it.
type Card struct {
	model.ServiceItem
	Message string
	Failed  bool
}

// Actionable reports whether the card can be edited, toggled or deleted.
func (c Card) Actionable() bool {
	return c.ID != ""
}

// Board is the ordered list of service cards shown on the admin page.
type Board struct {
	Cards []Card
}

func NewBoard(items []model.ServiceItem) *Board {
	b := &Board{Cards: make([]Card, 0, len(items))}
	for _, item := range items {
		b.Cards = append(b.Cards, Card{ServiceItem: item})
	}
	return b
}

// Find returns the position of the first card with id.
func (b *Board) Find(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, c := range b.Cards {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ApplyVisibility records the outcome of a visibility toggle that asked for
// visible. On success the card takes the status the backend reported, or the
// requested one when the response carries no service.
func (b *Board) ApplyVisibility(id string, visible bool, res *model.ServiceResult) bool {
	i, ok := b.Find(id)
	if !ok || res == nil {
		return false
	}
	card := &b.Cards[i]
	card.Message = res.Message
	card.Failed = !res.Success
	if !res.Success {
		return true
	}

	card.Status = model.StatusFromVisible(visible)
	if res.Service != nil && res.Service.Status != "" {
		card.Status = res.Service.Status
	}
	v := card.Status.Visible()
	card.Visible = &v
	return true
}

// Remove drops the first card with id and keeps the order of the others.
func (b *Board) Remove(id string) bool {
	i, ok := b.Find(id)
	if !ok {
		return false
	}
	b.Cards = append(b.Cards[:i:i], b.Cards[i+1:]...)
	return true
}

// Annotate attaches a result message to the card with id.
func (b *Board) Annotate(id, message string, failed bool) {
	if i, ok := b.Find(id); ok {
		b.Cards[i].Message = message
		b.Cards[i].Failed = failed
	}
}
