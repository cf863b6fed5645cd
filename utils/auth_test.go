package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func newAuthRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(secret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":  c.GetString(ContextUserID),
			"salon": c.GetString(ContextSalonID),
			"role":  c.GetString(ContextRole),
		})
	})
	r.GET("/me", handlers...)
	return r
}

func call(r *gin.Engine, header string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateToken(t *testing.T) {
	_, err := GenerateToken("", "u", "s", "owner", time.Hour)
	require.Error(t, err)

	tok, err := GenerateToken(secret, "user-1", "salon-1", "staff", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return []byte(secret), nil })
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "salon-1", claims["salonId"])
	assert.Equal(t, "staff", claims["role"])
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := GenerateToken(secret, "user-1", "salon-1", "owner", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(secret, "user-1", "salon-1", "owner", -time.Minute)
	require.NoError(t, err)
	foreign, err := GenerateToken("another-secret", "user-1", "salon-1", "owner", time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"salonId": "salon-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		want   int
	}{
		{name: "bearer header", header: "Bearer " + valid, want: http.StatusOK},
		{name: "raw header", header: valid, want: http.StatusOK},
		{name: "cookie", cookie: &http.Cookie{Name: "token", Value: valid}, want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + noSubject, want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer garbage", want: http.StatusUnauthorized},
	}
	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.header, tt.cookie)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user":"user-1","salon":"salon-1","role":"owner"}`, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	staff, err := GenerateToken(secret, "user-2", "salon-1", "staff", time.Hour)
	require.NoError(t, err)
	customer, err := GenerateToken(secret, "user-3", "salon-1", "customer", time.Hour)
	require.NoError(t, err)

	r := newAuthRouter("owner", "staff")
	assert.Equal(t, http.StatusOK, call(r, "Bearer "+staff, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, "Bearer "+customer, nil).Code)
}

func TestWebhookSecretMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "matching secret", configured: "s3cret", header: "s3cret", wantStatus: http.StatusOK},
		{name: "missing header", configured: "s3cret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", configured: "s3cret", header: "s3creT", wantStatus: http.StatusUnauthorized},
		{name: "longer secret", configured: "s3cret", header: "s3cret1", wantStatus: http.StatusUnauthorized},
		{name: "nothing configured", configured: "", header: "", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.POST("/hook", WebhookSecretMiddleware(tt.configured), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			if tt.header != "" {
				req.Header.Set(WebhookSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
