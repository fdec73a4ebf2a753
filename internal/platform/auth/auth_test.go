package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbnb-backend/internal/platform/apierr"
)

type memAccounts struct{ byID map[string]*Account }

func (m *memAccounts) GetByID(_ context.Context, id string) (*Account, error) {
	return m.byID[id], nil
}

func (m *memAccounts) GetByLogin(_ context.Context, login string) (*Account, error) {
	for _, a := range m.byID {
		if a.Email == login || a.Username == login {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	m.byID[a.ID] = a
	return nil
}

var secret = []byte("test-secret")

func newTestService() *Service {
	return &Service{
		store:  &memAccounts{byID: map[string]*Account{}},
		secret: secret,
		ttl:    time.Hour,
		now:    time.Now,
	}
}

func register(t *testing.T, s *Service) *AuthResponse {
	t.Helper()
	res, err := s.Register(context.Background(), RegisterRequest{
		Username:  "demoUser",
		Email:     "Demo@Demo.com",
		Password:  "password123",
		FirstName: "Demo",
		LastName:  "User",
	})
	require.NoError(t, err)
	return res
}

func TestRegister_IssuesToken(t *testing.T) {
	s := newTestService()
	res := register(t, s)

	assert.Equal(t, "demo@demo.com", res.User.Email)
	assert.Equal(t, 0.0, res.User.Rating)
	sub, err := ParseToken(secret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, sub)
}

func TestRegister_Duplicate(t *testing.T) {
	s := newTestService()
	register(t, s)

	_, err := s.Register(context.Background(), RegisterRequest{
		Username: "demoUser", Email: "other@demo.com", Password: "password123", FirstName: "a", LastName: "b",
	})
	assert.True(t, apierr.Is(err, apierr.CodeConflict))
}

func TestLogin(t *testing.T) {
	s := newTestService()
	u := register(t, s).User

	for _, login := range []string{"demo@demo.com", "demoUser"} {
		res, err := s.Login(context.Background(), login, "password123")
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, res.User.ID)
	}

	_, err := s.Login(context.Background(), "demoUser", "wrong")
	assert.True(t, apierr.Is(err, apierr.CodeUnauthenticated))
	_, err = s.Login(context.Background(), "nobody", "password123")
	assert.True(t, apierr.Is(err, apierr.CodeUnauthenticated))
}

func TestMe_NotFound(t *testing.T) {
	_, err := newTestService().Me(context.Background(), "missing")
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, noExp)
	assert.Error(t, err)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ParseToken(secret, other)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestService()
	token := register(t, s).Token

	r := gin.New()
	r.GET("/private", RequireAuth(secret), func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	r.GET("/public", OptionalAuth(secret), func(c *gin.Context) { c.String(http.StatusOK, "anon:"+UserID(c)) })

	get := func(path, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token")

	w = get("/private", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get("/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())

	w = get("/public", "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anon:", w.Body.String())

	w = get("/public", "bearer "+token)
	assert.Len(t, strings.TrimPrefix(w.Body.String(), "anon:"), 26)
}

func TestHandler_Register(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), newTestService())

	body := `{"username":"ab","email":"bad","password":"123","firstName":"A","lastName":"B"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = `{"username":"reader","email":"reader@example.com","password":"secret1","firstName":"A","lastName":"B"}`
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}
