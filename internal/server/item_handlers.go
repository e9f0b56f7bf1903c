package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lorepo/lorepo/internal/database"
	"github.com/lorepo/lorepo/internal/lrerror"
	"github.com/lorepo/lorepo/internal/server/serializer"
	"github.com/lorepo/lorepo/internal/server/service"
)

// item contains all item handlers.
type item struct {
	db       database.Client
	pageSize int
}

///// List
////
//

// List lists the items, optionally filtered by tags and name.
func (h *item) List(c echo.Context) error {
	var params service.ListParams
	err := echo.QueryParamsBinder(c).
		Int("page", &params.Page).
		String("tags", &params.Tags).
		String("name", &params.Name).
		BindError()
	if err != nil {
		return lrerror.InvalidParameters("page must be a positive integer")
	}

	var render []map[string]any
	err = h.db.Transaction(c.Request().Context(), func(tx database.Session) error {
		items, err := service.NewItem(tx).List(params, h.pageSize)
		if err != nil {
			return err
		}

		render = serializer.Items(items)
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

///// Create
////
//

// Create registers a new item owned by the current key.
func (h *item) Create(c echo.Context) error {
	var params service.CreateParams
	if err := c.Bind(&params); err != nil {
		return err
	}

	var render map[string]any
	err := h.db.Transaction(c.Request().Context(), func(tx database.Session) error {
		items := service.NewItem(tx)

		key, err := items.ResolveKey(currentToken(c))
		if err != nil {
			return err
		}

		item, err := items.Create(key, params)
		if err != nil {
			return err
		}

		render = serializer.Item(item)
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

///// Show
////
//

// Show renders the item owned by the current key.
func (h *item) Show(c echo.Context) error {
	var render map[string]any
	err := h.db.Transaction(c.Request().Context(), func(tx database.Session) error {
		items := service.NewItem(tx)

		key, err := items.ResolveKey(currentToken(c))
		if err != nil {
			return err
		}

		item, err := items.Find(key, c.Param("name"))
		if err != nil {
			return err
		}

		render = serializer.Item(item)
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

///// Update
////
//

// Update partially updates the item owned by the current key.
func (h *item) Update(c echo.Context) error {
	var params service.UpdateParams
	if err := c.Bind(&params); err != nil {
		return err
	}

	var render map[string]any
	err := h.db.Transaction(c.Request().Context(), func(tx database.Session) error {
		items := service.NewItem(tx)

		key, err := items.ResolveKey(currentToken(c))
		if err != nil {
			return err
		}

		item, err := items.Find(key, c.Param("name"))
		if err != nil {
			return err
		}

		item, err = items.Update(item, params)
		if err != nil {
			return err
		}

		render = serializer.Item(item)
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}
