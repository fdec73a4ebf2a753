package loans

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbnb-backend/internal/platform/auth"
)

// asUser stands in for the JWT middleware.
func asUser(c *gin.Context) {
	if u := c.GetHeader("X-User"); u != "" {
		c.Set(auth.CtxUserIDKey, u)
	}
	c.Next()
}

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), f.svc, asUser)
	return r
}

func do(r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateLoan(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	r := newRouter(f)

	w := do(r, http.MethodPost, "/api/loans", f.borrower, map[string]any{
		"bookId":         f.book.ID,
		"startDate":      now.Add(24 * time.Hour).Format("2006-01-02"),
		"endDate":        now.Add(4 * 24 * time.Hour).Format(time.RFC3339),
		"pickupLocation": "Cafe",
		"returnLocation": "Cafe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res LoanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, f.owner, res.Lender.ID)
	assert.Equal(t, 10.0, res.TotalAmount)
	assert.Equal(t, 15.0, res.Deposit)
	assert.Equal(t, "/api/loans/"+res.ID, w.Header().Get("Location"))
}

func TestHandler_CreateLoan_Validation(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	r := newRouter(f)

	w := do(r, http.MethodPost, "/api/loans", f.borrower, map[string]any{
		"bookId":         f.book.ID,
		"startDate":      "next tuesday",
		"endDate":        "2030-07-01",
		"pickupLocation": "Cafe",
		"returnLocation": "Cafe",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Start date must be a valid date", body.Message)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "startDate", body.Errors[0].Field)
}

func TestHandler_StatusCodes(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	r := newRouter(f)
	l := f.loanIn(t, StatusPending)

	w := do(r, http.MethodPut, "/api/loans/"+l.ID+"/status", f.borrower, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Only the lender can approve or reject loans")

	w = do(r, http.MethodPut, "/api/loans/"+l.ID+"/status", f.owner, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.book.IsAvailable)

	w = do(r, http.MethodPost, "/api/loans/"+l.ID+"/rate", f.borrower, map[string]int{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Can only rate completed loans")

	w = do(r, http.MethodGet, "/api/loans/not-a-loan", f.owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListLoans(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	r := newRouter(f)
	f.loanIn(t, StatusPending)

	w := do(r, http.MethodGet, "/api/loans?role=borrower", f.borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res []LoanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res, 1)
}
