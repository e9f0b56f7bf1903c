package server_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/labstack/echo/v4"
	"github.com/lorepo/lorepo/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reimu  = "Bearer reimu-token"
	marisa = "Bearer marisa-token"
)

func TestRequestItemCreate(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	body := gofight.D{
		"name":    "sakuya",
		"desc":    "Chief maid of the Scarlet Devil Mansion",
		"file":    "https://files.catbox.moe/sakuya.zip",
		"image":   "https://files.catbox.moe/sakuya.png",
		"service": "catbox",
		"tags":    []string{"touhou", "maid"},
		"id":      42,
	}

	gofight.New().POST("/").SetHeader(auth(reimu)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		assert.NotEqual(t, float64(42), v["id"])
		assert.Equal(t, "sakuya", v["name"])
		assert.Equal(t, "Chief maid of the Scarlet Devil Mansion", v["desc"])
		assert.Equal(t, "https://files.catbox.moe/sakuya.zip", v["file"])
		assert.Equal(t, "https://files.catbox.moe/sakuya.png", v["image"])
		assert.Equal(t, "catbox", v["service"])
		assert.Equal(t, []any{"touhou", "maid"}, v["tags"])
		assert.Equal(t, []any{}, v["deps"])
		assert.Equal(t, []any{}, v["required_by"])
		assert.NotEmpty(t, v["date_created"])
		assert.NotEmpty(t, v["date_updated"])
	})

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, []string{"sakuya"}, namesOf(t, r.Body.Bytes()))
	})

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		assert.Equal(t, "sakuya", decode(t, r.Body.Bytes())["name"])
	})
}

func TestRequestItemCreate_Defaults(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	create(t, engine, reimu, gofight.D{"name": "cirno", "desc": "", "file": "cirno.zip"})

	gofight.New().GET("/cirno").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		assert.Equal(t, "", v["desc"])
		assert.Equal(t, "NAI", v["service"])
		assert.Nil(t, v["image"])
		assert.Equal(t, []any{}, v["tags"])
	})
}

func TestRequestItemCreate_Invalid(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	bodies := []gofight.D{
		{"desc": "no name", "file": "a.zip"},
		{"name": "", "desc": "blank name", "file": "a.zip"},
		{"name": "nodesc", "file": "a.zip"},
		{"name": "nofile", "desc": "no file"},
	}
	for _, body := range bodies {
		gofight.New().POST("/").SetHeader(auth(reimu)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
			assert.Equal(t, "invalid-parameters", decode(t, r.Body.Bytes())["tag"])
		})
	}

	gofight.New().POST("/").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"errors":"Request body can't be empty","tag":"invalid-parameters"}`, r.Body.String())
	})

	gofight.New().POST("/").SetHeader(gofight.H{
		echo.HeaderAuthorization: reimu,
		echo.HeaderContentType:   echo.MIMEApplicationJSON,
	}).SetBody(`{"name": `).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "invalid-parameters", decode(t, r.Body.Bytes())["tag"])
	})

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `[]`, r.Body.String())
	})
}

func TestRequestItemCreate_Duplicate(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	body := gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"}
	create(t, engine, reimu, body)

	gofight.New().POST("/").SetHeader(auth(reimu)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"errors":"An item named 'sakuya' already exists.","tag":"unique-constraint-violation"}`, r.Body.String())
	})

	gofight.New().POST("/").SetHeader(auth(marisa)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})
}

func TestRequestItem_MissingAuthorization(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	body := gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"}

	gofight.New().POST("/").SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.JSONEq(t, `{"errors":"Authorization token missing","tag":"missing-authorization"}`, r.Body.String())
	})

	for _, authorization := range []string{"Bearer", "Bearer ", "bearer   "} {
		gofight.New().POST("/").SetHeader(auth(authorization)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusForbidden, r.Code, authorization)
			assert.Equal(t, "missing-authorization", decode(t, r.Body.Bytes())["tag"])
		})
	}

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.JSONEq(t, `[]`, r.Body.String())
	})

	create(t, engine, reimu, body)

	gofight.New().GET("/sakuya").SetHeader(auth("Bearer ")).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "missing-authorization", decode(t, r.Body.Bytes())["tag"])
	})

	gofight.New().GET("/sakuya").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "missing-authorization", decode(t, r.Body.Bytes())["tag"])
	})

	gofight.New().POST("/sakuya").SetJSON(gofight.D{"desc": "updated"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "missing-authorization", decode(t, r.Body.Bytes())["tag"])
	})
}

func TestRequestItem_NoAuth(t *testing.T) {
	engine, _, cleanup := setup(t, func(ctrl *server.IOC) {
		ctrl.NoAuth = true
	})
	defer cleanup()

	gofight.New().POST("/").SetJSON(gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	gofight.New().GET("/sakuya").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	gofight.New().GET("/sakuya").SetHeader(auth("Bearer redarmy")).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "unauthorized", decode(t, r.Body.Bytes())["tag"])
	})
}

func TestRequestItemShow(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	create(t, engine, reimu, gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"})

	gofight.New().GET("/sakuya").SetHeader(gofight.H{echo.HeaderAuthorization: "reimu-token"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	gofight.New().GET("/sakuya").SetHeader(auth(marisa)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.JSONEq(t, `{"errors":"Unauthorized","tag":"unauthorized"}`, r.Body.String())
	})

	gofight.New().GET("/meiling").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, `{"errors":"Not found","tag":"not-found"}`, r.Body.String())
	})
}

func TestRequestItemUpdate(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	created := create(t, engine, reimu, gofight.D{
		"name":  "sakuya",
		"desc":  "maid",
		"file":  "sakuya.zip",
		"image": "sakuya.png",
		"tags":  []string{"touhou"},
	})

	gofight.New().POST("/sakuya").SetHeader(auth(reimu)).SetJSON(gofight.D{
		"name":         "izayoi",
		"date_created": "1970-01-01T00:00:00Z",
		"unknown":      true,
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		assert.Equal(t, created["id"], v["id"])
		assert.Equal(t, "izayoi", v["name"])
		assert.Equal(t, "maid", v["desc"])
		assert.Equal(t, "sakuya.png", v["image"])
		assert.Equal(t, []any{"touhou"}, v["tags"])
		assert.Equal(t, created["date_created"], v["date_created"])
	})

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	gofight.New().POST("/izayoi").SetHeader(auth(reimu)).SetJSON(gofight.D{
		"desc":    "",
		"image":   nil,
		"service": "catbox",
		"tags":    []string{"maid", "knife"},
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		assert.Equal(t, "", v["desc"])
		assert.Nil(t, v["image"])
		assert.Equal(t, "catbox", v["service"])
		assert.ElementsMatch(t, []any{"maid", "knife"}, v["tags"])
	})

	gofight.New().POST("/izayoi").SetHeader(auth(reimu)).SetJSON(gofight.D{"tags": nil}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, []any{}, decode(t, r.Body.Bytes())["tags"])
	})
}

func TestRequestItemUpdate_Invalid(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	create(t, engine, reimu, gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"})
	create(t, engine, reimu, gofight.D{"name": "remilia", "desc": "", "file": "remilia.zip"})

	gofight.New().POST("/sakuya").SetHeader(auth(reimu)).SetJSON(gofight.D{"name": "remilia"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"errors":"An item named 'remilia' already exists.","tag":"unique-constraint-violation"}`, r.Body.String())
	})

	for _, body := range []gofight.D{{"name": ""}, {"name": nil}, {"file": ""}, {"desc": nil}} {
		gofight.New().POST("/sakuya").SetHeader(auth(reimu)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
			assert.Equal(t, "invalid-parameters", decode(t, r.Body.Bytes())["tag"])
		})
	}

	gofight.New().POST("/sakuya").SetHeader(auth(marisa)).SetJSON(gofight.D{"desc": "stolen"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "unauthorized", decode(t, r.Body.Bytes())["tag"])
	})

	gofight.New().POST("/meiling").SetHeader(auth(reimu)).SetJSON(gofight.D{"desc": "gatekeeper"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "", decode(t, r.Body.Bytes())["desc"])
	})
}

func TestRequestItem_Dependencies(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	sakuya := create(t, engine, reimu, gofight.D{"name": "sakuya", "desc": "", "file": "sakuya.zip"})
	create(t, engine, reimu, gofight.D{"name": "meiling", "desc": "", "file": "meiling.zip"})
	remilia := create(t, engine, reimu, gofight.D{
		"name": "remilia",
		"desc": "",
		"file": "remilia.zip",
		"deps": []any{"sakuya", "patchouli", sakuya["id"]},
	})
	assert.Equal(t, []any{"sakuya"}, remilia["deps"])

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		assert.Equal(t, []any{}, v["deps"])
		assert.Equal(t, []any{"remilia"}, v["required_by"])
	})

	gofight.New().POST("/remilia").SetHeader(auth(reimu)).SetJSON(gofight.D{"deps": []string{"meiling", "remilia"}}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, []any{"meiling"}, decode(t, r.Body.Bytes())["deps"])
	})

	gofight.New().GET("/sakuya").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, []any{}, decode(t, r.Body.Bytes())["required_by"])
	})

	gofight.New().POST("/remilia").SetHeader(auth(reimu)).SetJSON(gofight.D{"deps": []string{}}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, []any{}, decode(t, r.Body.Bytes())["deps"])
	})
}

func TestRequestItemList(t *testing.T) {
	engine, _, cleanup := setup(t, func(ctrl *server.IOC) {
		ctrl.PageSize = 2
	})
	defer cleanup()

	create(t, engine, reimu, gofight.D{"name": "sakuya", "desc": "", "file": "a", "tags": []string{"touhou", "maid"}})
	create(t, engine, reimu, gofight.D{"name": "remilia", "desc": "", "file": "b", "tags": []string{"touhou", "vampire"}})
	create(t, engine, marisa, gofight.D{"name": "flandre", "desc": "", "file": "c", "tags": []string{"touhou", "vampire"}})
	create(t, engine, marisa, gofight.D{"name": "alucard", "desc": "", "file": "d", "tags": []string{"castlevania", "vampire"}})
	create(t, engine, marisa, gofight.D{"name": "100%_orange", "desc": "", "file": "e"})

	list := func(query gofight.H) (names []string) {
		gofight.New().GET("/").SetQuery(query).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			require.Equal(t, http.StatusOK, r.Code)
			names = namesOf(t, r.Body.Bytes())
		})
		return names
	}

	assert.Equal(t, []string{"sakuya", "remilia"}, list(gofight.H{}))
	assert.Equal(t, []string{"sakuya", "remilia"}, list(gofight.H{"page": "0"}))
	assert.Equal(t, []string{"flandre", "alucard"}, list(gofight.H{"page": "1"}))
	assert.Equal(t, []string{"100%_orange"}, list(gofight.H{"page": "2"}))
	assert.Empty(t, list(gofight.H{"page": "3"}))

	assert.Equal(t, []string{"remilia", "flandre"}, list(gofight.H{"tags": "touhou,vamp"}))
	assert.Equal(t, []string{"remilia", "flandre"}, list(gofight.H{"tags": "vamp, ouh,"}))
	assert.Equal(t, []string{"alucard"}, list(gofight.H{"tags": "vampire,castle"}))
	assert.Empty(t, list(gofight.H{"tags": "touhou,castle"}))
	assert.Equal(t, []string{"flandre"}, list(gofight.H{"name": "fl", "tags": "vampire"}))
	assert.Empty(t, list(gofight.H{"name": "FL"}))
	assert.Empty(t, list(gofight.H{"tags": "Touhou"}))
	assert.Equal(t, []string{"100%_orange"}, list(gofight.H{"name": "%_"}))
	assert.Empty(t, list(gofight.H{"name": "_%"}))

	gofight.New().GET("/").SetQuery(gofight.H{"page": "abc"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "invalid-parameters", decode(t, r.Body.Bytes())["tag"])
	})

	gofight.New().GET("/").SetQuery(gofight.H{"page": "-1"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "invalid-parameters", decode(t, r.Body.Bytes())["tag"])
	})
}

func TestRequestItem_RoundTrip(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	body := gofight.D{
		"name":    "patchouli",
		"desc":    "Unmoving great library",
		"file":    "https://files.catbox.moe/patchouli.zip",
		"image":   "https://files.catbox.moe/patchouli.png",
		"service": "catbox",
		"tags":    []string{"touhou", "magician"},
	}
	created := create(t, engine, reimu, body)

	gofight.New().GET("/patchouli").SetHeader(auth(reimu)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r.Body.Bytes())
		for _, field := range []string{"id", "name", "desc", "file", "image", "service", "tags", "date_created"} {
			assert.Equal(t, created[field], v[field], field)
		}
	})
}

//
// Helpers
//

func auth(token string) gofight.H {
	return gofight.H{echo.HeaderAuthorization: token}
}

func create(t *testing.T, engine *echo.Echo, token string, body gofight.D) (v map[string]any) {
	t.Helper()

	gofight.New().POST("/").SetHeader(auth(token)).SetJSON(body).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		require.Equal(t, http.StatusOK, r.Code, r.Body.String())
		v = decode(t, r.Body.Bytes())
	})
	return v
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func namesOf(t *testing.T, data []byte) []string {
	t.Helper()

	var items []map[string]any
	require.NoError(t, json.Unmarshal(data, &items))

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item["name"].(string))
	}
	return names
}
