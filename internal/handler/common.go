package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

var errNoPhone = errors.New("no phone in context")

// callerPhone extracts the authenticated caller's phone number placed in
// the context by the JWT middleware.
func callerPhone(c echo.Context) (string, error) {
	v := c.Get("phone")
	phone, ok := v.(string)
	if !ok || phone == "" {
		return "", errNoPhone
	}
	return phone, nil
}
