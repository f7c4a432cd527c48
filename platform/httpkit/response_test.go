package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cog_mailing_sync/platform/apperr"

	"github.com/gin-gonic/gin"
)

func serveError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, err)
	return w
}

func TestHandleErrorUsesKind(t *testing.T) {
	w := serveError(apperr.Conflict("review item already acknowledged"))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Kind != "conflict" || body.Error != "review item already acknowledged" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHandleErrorHidesUntypedErrors(t *testing.T) {
	w := serveError(errors.New("pq: connection reset"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != `{"error":"internal error","kind":"internal"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestHandleErrorNil(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if HandleError(c, nil) {
		t.Fatal("nil error should not be handled")
	}
}
