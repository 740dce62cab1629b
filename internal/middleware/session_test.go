package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
)

type stubParser map[string]auth.Principal

func (s stubParser) Parse(token string) (auth.Principal, error) {
	p, ok := s[token]
	if !ok {
		return auth.Principal{}, errors.New("invalid")
	}
	return p, nil
}

var testSessions = stubParser{
	"buyer-token":  {UserID: 1, Role: model.RoleBuyer},
	"seller-token": {UserID: 2, Role: model.RoleSeller},
}

// Session→guard→ハンドラの順で1リクエスト流す
func serveWith(t *testing.T, guard echo.MiddlewareFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(Session(testSessions, "sid"))
	e.GET("/x", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int64{"user_id": PrincipalFrom(c).UserID})
	}, guard)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestSession_SetsPrincipalOrStaysAnonymous(t *testing.T) {
	rec := serveWith(t, passThrough, "buyer-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":1}`, rec.Body.String())

	rec = serveWith(t, passThrough, "garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":0}`, rec.Body.String())

	rec = serveWith(t, passThrough, "")
	assert.JSONEq(t, `{"user_id":0}`, rec.Body.String())
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		name     string
		guard    echo.MiddlewareFunc
		token    string
		wantCode int
		wantErr  string
	}{
		{"auth anonymous", RequireAuth(), "", http.StatusUnauthorized, "unauthenticated"},
		{"auth buyer", RequireAuth(), "buyer-token", http.StatusOK, ""},
		{"auth seller", RequireAuth(), "seller-token", http.StatusOK, ""},
		{"buyer anonymous", RequireBuyer(), "", http.StatusUnauthorized, "unauthenticated"},
		{"buyer ok", RequireBuyer(), "buyer-token", http.StatusOK, ""},
		{"buyer as seller", RequireBuyer(), "seller-token", http.StatusForbidden, "forbidden"},
		{"seller anonymous", RequireSeller(), "", http.StatusUnauthorized, "unauthenticated"},
		{"seller ok", RequireSeller(), "seller-token", http.StatusOK, ""},
		{"seller as buyer", RequireSeller(), "buyer-token", http.StatusForbidden, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWith(t, tt.guard, tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr == "" {
				return
			}
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantErr, body.Code)
		})
	}
}
