package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var itemScheme = echo.Map{
	"id":           "number",
	"name":         "string",
	"deps":         "[item_name1, item_name2, ..., item_namen]",
	"required_by":  "[item_name1, item_name2, ..., item_namen]",
	"tags":         "[string_1, string_2, ..., string_n]",
	"image":        "string",
	"desc":         "string",
	"file":         "string",
	"service":      "string",
	"date_created": "date string, ISO format",
	"date_updated": "date string, ISO format",
}

// docs describes the exposed routes and the item scheme.
func docs(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"urls": echo.Map{
			"/": echo.Map{
				"methods": []string{http.MethodGet, http.MethodPost},
				"params": echo.Map{
					"page": "number, 0 by default",
					"tags": "comma separated tag substrings, all must match",
					"name": "name substring",
				},
				"scheme": itemScheme,
			},
			"/<name>": echo.Map{
				"methods": []string{http.MethodGet, http.MethodPost},
				"scheme":  itemScheme,
			},
		},
	})
}
