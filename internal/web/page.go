package web

import (
	"html/template"

	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/internal/service/content"
)

// Notice is a page level status message.
type Notice struct {
	Kind    string // success, error or info
	Message string
}

func Success(msg string) *Notice { return &Notice{Kind: "success", Message: msg} }
func Failure(msg string) *Notice { return &Notice{Kind: "error", Message: msg} }
func Info(msg string) *Notice    { return &Notice{Kind: "info", Message: msg} }

// Page is the data handed to every layout. Data carries the page specific
// view model.
type Page struct {
	Title     string
	Nav       string
	CSRFField template.HTML
	User      *model.User
	Initials  string
	Name      string
	Today     string
	Company   content.Company
	Notice    *Notice
	Data      interface{}
}
