package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r.Group("/"))
	RegisterCallbackRoutes(r.Group("/api/v1/payment"), nil)
	RegisterWalletRoutes(r.Group("/api/v1/wallet"), nil, nil)
	RegisterAdminRoutes(r.Group("/api/v1/admin"), nil)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("GET /healthz"))
	require.True(t, contains("GET /api/v1/payment/callback/:provider"))
	require.True(t, contains("POST /api/v1/payment/callback/:provider"))
	require.True(t, contains("POST /api/v1/wallet/check_pending"))
	require.True(t, contains("POST /api/v1/admin/list_payment_references"))
	require.True(t, contains("POST /api/v1/admin/list_payments"))
	require.True(t, contains("POST /api/v1/admin/list_callback_logs"))
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r.Group("/"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}
