// Package handlers holds the REST and webhook surfaces. Each handler carries
// its services and registers its own routes on the echo instance.
package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON error body returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Validator adapts go-playground/validator to echo's request validation hook.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	var n int
	if err := echo.QueryParamsBinder(c).Int(name, &n).BindError(); err != nil {
		return fallback
	}
	return n
}
