package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lorepo/lorepo/internal/lrerror"
	"github.com/lorepo/lorepo/internal/server/serializer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler is a middleware that formats rendered errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		httperr *echo.HTTPError
		lrerr   *lrerror.LRError
	)
	switch {
	case errors.As(err, &lrerr):
		status := lrerr.HTTPCode
		if status < 500 {
			_ = c.JSON(status, lrerr)
			return
		}

		internal(err, c)
	case errors.As(err, &httperr):
		if httperr.Internal != nil {
			logrus.WithError(httperr.Internal).Debug("Error [ECHO]")
		}
		_ = c.JSON(httperr.Code, serializer.Errors(httperr.Message))
	default:
		internal(err, c)
	}
}

func internal(err error, c echo.Context) {
	id := uuid.Must(uuid.NewV4()).String()
	logrus.WithField("id", id).Errorf("Error: %+v", err)

	_ = c.JSON(http.StatusInternalServerError, serializer.Errors(fmt.Sprintf("Unexpected error (id: %s)", id)))
}
