package httpapi

import (
	"net/http"
	"testing"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(false)

	rec := f.do(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"secret-pass"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"alice"}, f.users.registered)
	resp := decode[userResponse](t, rec)
	assert.Equal(t, "u-1", resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
		wantKind string
	}{
		{"missing password", `{"username":"alice"}`, nil, http.StatusBadRequest, KindValidation},
		{"short password", `{"username":"alice","password":"x"}`, common.ErrValidation, http.StatusBadRequest, KindValidation},
		{"taken", `{"username":"alice","password":"secret-pass"}`, common.ErrAlreadyExists, http.StatusConflict, KindAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.users.err = tt.svcErr

			rec := f.do(http.MethodPost, "/api/v1/auth/register", tt.body, nil)

			require.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, rec).Error)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(false)
	f.users.tokens = &services.TokenPair{AccessToken: "a", RefreshToken: "r"}

	rec := f.do(http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"secret-pass"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken":"a","refreshToken":"r"}`, rec.Body.String())
}

func TestLogin_Unauthorized(t *testing.T) {
	f := newFixture(false)
	f.users.err = common.ErrorUnauthorized

	rec := f.do(http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"wrong-pass"}`, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindUnauthorized, decodeError(t, rec).Error)
}

func TestRefresh(t *testing.T) {
	f := newFixture(false)
	f.users.tokens = &services.TokenPair{AccessToken: "a2", RefreshToken: "r2"}

	rec := f.do(http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"r1"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", f.users.refreshed)
	assert.Equal(t, "r2", decode[tokenResponse](t, rec).RefreshToken)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(false)
	f.users.err = common.ErrRefreshTokenExpired

	rec := f.do(http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"r1"}`, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindRefreshTokenExpired, decodeError(t, rec).Error)
}

func TestLogout(t *testing.T) {
	f := newFixture(false)

	rec := f.authed(http.MethodPost, "/api/v1/auth/logout", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", f.users.loggedOut)
}

func TestLogout_RequiresAuth(t *testing.T) {
	f := newFixture(false)

	rec := f.do(http.MethodPost, "/api/v1/auth/logout", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.users.loggedOut)
}
