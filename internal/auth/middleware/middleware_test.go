package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-criteria/internal/rbac"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService("test-key", WithAdmin("root", string(hash)), WithDevLogin(true))
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuth(t)

	role, ok := a.Authenticate("root", "s3cret", "")
	assert.True(t, ok)
	assert.Equal(t, "admin", role)

	_, ok = a.Authenticate("root", "wrong", "")
	assert.False(t, ok)

	role, ok = a.Authenticate("prof", "prof", "instructor")
	assert.True(t, ok)
	assert.Equal(t, "instructor", role)

	_, ok = a.Authenticate("prof", "prof", "admin")
	assert.False(t, ok, "dev login never grants admin")
	_, ok = a.Authenticate("prof", "prof", "wizard")
	assert.False(t, ok)
}

func TestLoginThenMiddlewarePutsIdentityInContext(t *testing.T) {
	a := newTestAuth(t)

	rec := httptest.NewRecorder()
	LoginHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"prof","password":"prof","role":"instructor"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	start := strings.Index(body, `"access_token":"`) + len(`"access_token":"`)
	tok := body[start : start+strings.Index(body[start:], `"`)]

	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prof", gotSub)
	assert.Equal(t, "instructor", gotRole)
}

func TestMiddlewareRejectsMissingAndForeignTokens(t *testing.T) {
	a := newTestAuth(t)
	other := NewAuthService("other-key")
	tok, err := other.IssueJWT("x", "admin")
	require.NoError(t, err)

	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
