package handler // handler defines http handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/apperr"
	"github.com/iliyamo/stagelink/internal/middleware"
	"github.com/iliyamo/stagelink/internal/repository"
	"github.com/iliyamo/stagelink/internal/service"
)

// callerFrom reads the identity JWTAuth stored on the context.
func callerFrom(c echo.Context) service.Caller {
	return service.Caller{AccountID: middleware.AccountID(c), Email: middleware.Email(c)}
}

// errorRenderer writes service errors as {"error": message}.  Outside
// production, internal failures caused by a MySQL error also carry the
// driver's code, message and SQLSTATE.
type errorRenderer struct {
	Debug bool
}

func (r errorRenderer) render(c echo.Context, scope string, err error) error {
	ae := apperr.From(err)
	status := ae.Code.HTTPStatus()
	body := echo.Map{"error": ae.Message}
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", scope, err)
		if r.Debug {
			if code, details, hint, ok := repository.DebugFields(err); ok {
				body["code"] = code
				body["details"] = details
				body["hint"] = hint
			}
		}
	}
	return c.JSON(status, body)
}
