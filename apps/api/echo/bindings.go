package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// boolQueryParam parses the optional boolean query parameter `name`.
func boolQueryParam(ctx echo.Context, name string) (*bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+": must be a boolean")
	}
	return &b, nil
}
