package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitrank/internal/adapter/repository/memstore"
	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/infrastructure/firebase"
	"hitrank/internal/infrastructure/ratelimit"
)

type fakeVerifier map[string]*firebase.Identity

func (f fakeVerifier) VerifyIDToken(_ context.Context, token string) (*firebase.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, stderrors.New("bad token")
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, UID(c))
}

func serve(t *testing.T, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{"good": {UID: "alice"}})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec, err := serve(t, m.Authenticate(ok), req)
			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, "alice", rec.Body.String())
				return
			}
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Code)
		})
	}
}

func TestAuthenticateQuery(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{"good": {UID: "alice"}})

	rec, err := serve(t, m.AuthenticateQuery(ok), httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Body.String())

	_, err = serve(t, m.AuthenticateQuery(ok), httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Error(t, err)
}

func TestAdminOnly(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		if err := tx.PutUser(&entity.User{ID: "root", Role: entity.RoleAdmin}); err != nil {
			return err
		}
		return tx.PutUser(&entity.User{ID: "pleb"})
	}))
	admin := NewAdminMiddleware(store)

	run := func(uid string, claim bool) error {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if uid != "" {
			c.Set(ContextUID, uid)
			c.Set(ContextAdmin, claim)
		}
		return admin.AdminOnly(ok)(c)
	}

	assert.NoError(t, run("root", false), "role admin")
	assert.NoError(t, run("ghost", true), "claim admin")

	var httpErr *echo.HTTPError
	require.ErrorAs(t, run("pleb", false), &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
	require.ErrorAs(t, run("ghost", false), &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
	require.ErrorAs(t, run("", false), &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRateLimit(t *testing.T) {
	m := NewRateLimitMiddleware(ratelimit.NewRateLimiter())
	h := m.Limit(ratelimit.ActionChallenge)(ok)

	e := echo.New()
	call := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		c.Set(ContextUID, "alice")
		require.NoError(t, h(c))
		return rec
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, call().Code)
	}
	rec := call()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
