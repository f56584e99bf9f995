package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/content"
	"github.com/afresh/afresh-web/internal/session"
	"github.com/afresh/afresh-web/internal/web"
)

// DateLayout formats the date shown in admin page headers.
const DateLayout = "Monday, January 2, 2006"

// Base builds the data shared by every page.
type Base struct {
	Company  content.Company
	Location *time.Location
	Now      func() time.Time
}

func NewBase(company content.Company, loc *time.Location) *Base {
	if loc == nil {
		loc = time.UTC
	}
	return &Base{Company: company, Location: loc, Now: time.Now}
}

// Page returns the layout data for the current request. The signed in user
// is taken from the session the admin guard placed in c.
func (b *Base) Page(c *gin.Context, title, nav string) web.Page {
	p := web.Page{
		Title:     title,
		Nav:       nav,
		CSRFField: csrf.TemplateField(c.Request),
		Company:   b.Company,
		Today:     b.Now().In(b.Location).Format(DateLayout),
	}
	if sess := session.FromContext(c); sess != nil {
		p.User = sess.User
	}
	p.Initials = Initials(p.User)
	p.Name = DisplayName(p.User)
	return p
}

func localPart(user *model.User) string {
	if user == nil {
		return ""
	}
	return strings.SplitN(user.Email, "@", 2)[0]
}

// Initials are the first two characters of the email's local part in upper
// case, or "?" when there is nothing to show.
func Initials(user *model.User) string {
	r := []rune(localPart(user))
	if len(r) == 0 {
		return "?"
	}
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

func DisplayName(user *model.User) string {
	if name := localPart(user); name != "" {
		return name
	}
	return "—"
}
