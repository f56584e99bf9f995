package handler

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"

	apperrors "github.com/afresh/afresh-web/pkg/errors"
	"github.com/afresh/afresh-web/pkg/validator"
)

var configureValidation sync.Once

// ConfigureValidation makes gin's validator report fields by their form
// names, so messages line up with their inputs, and adds the custom rules.
func ConfigureValidation() {
	configureValidation.Do(func() {
		if v, ok := binding.Validator.Engine().(*playground.Validate); ok {
			validator.UseFormNames(v)
			validator.RegisterRules(v)
		}
	})
}

// Bind decodes the posted form into obj. Validation failures come back as
// messages keyed by form field; any other decoding problem is an error.
func Bind(c *gin.Context, obj interface{}) (map[string]string, error) {
	err := c.ShouldBindWith(obj, binding.Form)
	if err == nil {
		return nil, nil
	}
	if errs := validator.FieldErrors(err); errs != nil {
		return errs, nil
	}
	return nil, apperrors.BadRequest("Invalid form submission", err)
}

// Abort hands err to the error middleware and stops the chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Index parses a list position taken from the URL.
func Index(raw string) (int, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
