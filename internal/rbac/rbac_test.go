package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	assert.True(t, c.Has("instructor", PermCriteriaManage))
	assert.True(t, c.Has("instructor", PermCriteriaView))
	assert.True(t, c.Has("ta", PermCriteriaView))
	assert.False(t, c.Has("ta", PermCriteriaManage))
	assert.False(t, c.Has("student", PermCriteriaView))
	assert.True(t, c.Has("admin", PermEventsView))
	assert.False(t, c.Has("ghost", PermCriteriaView))
	assert.True(t, c.Any("ta", PermStatsView, PermResultsManage))
	assert.True(t, c.KnownRole("student"))
	assert.False(t, c.KnownRole("ghost"))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermCriteriaManage)(ok)

	cases := []struct {
		role string
		want int
	}{
		{"", http.StatusForbidden},
		{"ta", http.StatusForbidden},
		{"instructor", http.StatusNoContent},
		{"admin", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), tc.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
	}
}

func TestSubjectContext(t *testing.T) {
	ctx := WithSubject(context.Background(), "prof")
	assert.Equal(t, "prof", SubjectFromContext(ctx))
	assert.Equal(t, "", RoleFromContext(ctx))
}
