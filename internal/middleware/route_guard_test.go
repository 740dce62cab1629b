package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
)

func TestPageRedirect(t *testing.T) {
	guest := auth.Principal{}
	buyer := auth.Principal{UserID: 1, Role: model.RoleBuyer}
	seller := auth.Principal{UserID: 2, Role: model.RoleSeller}

	tests := []struct {
		name string
		p    auth.Principal
		path string
		want string
	}{
		{name: "guest home", p: guest, path: "/"},
		{name: "guest product", p: guest, path: "/products/3"},
		{name: "guest login", p: guest, path: "/login"},
		{name: "guest cart", p: guest, path: "/cart", want: "/login?next=%2Fcart"},
		{name: "guest orders with query", p: guest, path: "/orders?status=PAID", want: "/login?next=%2Forders%3Fstatus%3DPAID"},
		{name: "guest order detail", p: guest, path: "/orders/9", want: "/login?next=%2Forders%2F9"},
		{name: "guest seller", p: guest, path: "/seller/products", want: "/login?next=%2Fseller%2Fproducts"},
		{name: "guest profile", p: guest, path: "/profile", want: "/login?next=%2Fprofile"},
		{name: "guest addresses", p: guest, path: "/addresses", want: "/login?next=%2Faddresses"},
		{name: "guest similar prefix", p: guest, path: "/sellers"},

		{name: "buyer login", p: buyer, path: "/login", want: "/"},
		{name: "buyer register", p: buyer, path: "/register", want: "/"},
		{name: "buyer cart", p: buyer, path: "/cart"},
		{name: "buyer seller dashboard", p: buyer, path: "/seller/dashboard", want: "/"},

		{name: "seller login", p: seller, path: "/login", want: "/seller/dashboard"},
		{name: "seller home", p: seller, path: "/", want: "/seller/dashboard"},
		{name: "seller cart", p: seller, path: "/cart", want: "/seller/dashboard"},
		{name: "seller product", p: seller, path: "/products/1", want: "/seller/dashboard"},
		{name: "seller orders", p: seller, path: "/orders", want: "/seller/dashboard"},
		{name: "seller own pages", p: seller, path: "/seller/orders"},
		{name: "seller profile", p: seller, path: "/profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.path)
			require.NoError(t, err)
			got, ok := PageRedirect(tt.p, u)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteGuard_OnlyGetRequests(t *testing.T) {
	e := echo.New()
	h := RouteGuard()(func(c echo.Context) error { return c.String(http.StatusOK, "page") })

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fcart", rec.Header().Get(echo.HeaderLocation))

	req = httptest.NewRequest(http.MethodPost, "/cart", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
