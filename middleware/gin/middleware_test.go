package ginmw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/dsl"
	ginmw "github.com/reoring/polyskema/middleware/gin"
)

func TestLoadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := polyskema.MustNew(map[polyskema.TypeTag]polyskema.HandlerSpec{
		"ping": dsl.Object().Field("seq", dsl.Int()).Require("seq").MustBuild(),
	})
	r := gin.New()
	r.POST("/", ginmw.LoadJSON(s, polyskema.ParseOpt{}), func(c *gin.Context) {
		rec, ok := ginmw.GetLoaded[polyskema.Record](c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	for _, tc := range []struct {
		body string
		code int
	}{
		{`{"type":"ping","seq":1}`, http.StatusOK},
		{`{"type":"pong","seq":1}`, http.StatusBadRequest},
		{`[{"type":"ping","seq":1}]`, http.StatusInternalServerError},
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.code {
			t.Fatalf("%s: want %d, got %d (%s)", tc.body, tc.code, rec.Code, rec.Body.String())
		}
	}
}
