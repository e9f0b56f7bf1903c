package server

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lorepo/lorepo/internal/database"
	"github.com/lorepo/lorepo/internal/server/middlewares"
	"github.com/sirupsen/logrus"
)

// An IOC is an Iversion Of Control pattern used to init the server package.
type IOC struct {
	Version  string
	Database database.Client
	Debug    bool
	// Listing params
	PageSize int
	// Auth params
	NoAuth        bool
	FallbackToken string
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl IOC) *echo.Echo {
	engine := echo.New()
	engine.Debug = ctrl.Debug
	engine.HideBanner = true
	engine.HidePort = true

	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
		Output: logrus.StandardLogger().Writer(),
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler

	////////////
	// Router //
	////////////

	router := engine.Group("")
	restricted := router.Group("")
	restricted.Use(middlewares.Token(middlewares.TokenConfig{
		NoAuth:        ctrl.NoAuth,
		FallbackToken: ctrl.FallbackToken,
	}))

	//
	// generic handlers
	//
	router.GET("/docs", docs)
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})

	//
	// item handlers
	//
	item := &item{
		db:       ctrl.Database,
		pageSize: ctrl.PageSize,
	}
	router.GET("/", item.List)
	restricted.POST("/", item.Create)
	restricted.GET("/:name", item.Show)
	restricted.POST("/:name", item.Update)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(w io.Writer, e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Fprintln(w, "Routes:")
	for _, route := range routes {
		if ignored[route.Path] || route.Method == echo.RouteNotFound {
			continue
		}
		fmt.Fprintf(w, "%6s %s\n", route.Method, route.Path)
	}
}

func currentToken(c echo.Context) string {
	token, ok := c.Get(middlewares.CurrentTokenContextKey).(string)
	if ok {
		return token
	}
	return ""
}
