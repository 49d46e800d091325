package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
)

func TestMeHandler(t *testing.T) {
	t.Run("returns name and username only", func(t *testing.T) {
		sess := &domainauth.Session{ID: "s"}
		sess.Login(domainauth.Principal{
			Username:    "ansv",
			Name:        "Anna Svensson",
			Groups:      []string{"cn=sg_portal_admin"},
			Permissions: domainauth.Permissions{CanViewAdmin: true, CanEditAdmin: true},
		}, "name-id", "idx")

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(SetSessionInContext(req.Context(), sess))
		rec := httptest.NewRecorder()
		MeHandler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"name":"Anna Svensson","username":"ansv"},"message":"success"}`, rec.Body.String())
	})

	t.Run("principal without a display name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(authedContext("ansv", domainauth.Permissions{}))
		rec := httptest.NewRecorder()
		MeHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
