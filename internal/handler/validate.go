package handler

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// validate is the shared validator instance; validator caches struct
// metadata internally, so one instance serves all handlers.
var validate = validator.New()

// bindAndValidate binds the JSON body into req and runs struct
// validation.  On failure it writes a 400 with per-field detail and
// returns false; handlers just return nil in that case.
func bindAndValidate(c echo.Context, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := echo.Map{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "fields": fields})
		return false
	}
	return true
}
