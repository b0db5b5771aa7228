package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"clinicdesk/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func roleRouter(allowed ...domain.Role) *gin.Engine {
	r := gin.New()
	r.GET("/guarded",
		func(c *gin.Context) { c.Set("userRole", c.GetHeader("X-Test-Role")) },
		RequireRole(allowed...),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role string
		want int
	}{
		{"doctor allowed", "doctor", http.StatusOK},
		{"nurse allowed", "nurse", http.StatusOK},
		{"receptionist blocked", "receptionist", http.StatusForbidden},
		{"missing role blocked", "", http.StatusForbidden},
		{"unknown role blocked", "patient", http.StatusForbidden},
	}

	r := roleRouter(domain.RoleDoctor, domain.RoleNurse)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			req.Header.Set("X-Test-Role", tc.role)
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	r := gin.New()
	r.GET("/guarded", Auth(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}
