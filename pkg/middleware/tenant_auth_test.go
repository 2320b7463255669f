package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/ledger-service/pkg/tenant"
)

func tenantTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(RequireTenantAuth())
	api.GET("/ping", handler)
	return router
}

func TestRequireTenantAuth_RejectsMissingHeader(t *testing.T) {
	router := tenantTestRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_TENANT_CONTEXT")
}

func TestRequireTenantAuth_PropagatesTenantContext(t *testing.T) {
	var seen *tenant.Context
	router := tenantTestRouter(func(c *gin.Context) {
		tc, err := tenant.FromContext(c.Request.Context())
		require.NoError(t, err)
		seen = tc
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set(HeaderWMSTenantID, "TENANT-42")
	req.Header.Set(HeaderWMSWarehouseID, "WH-EAST")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "TENANT-42", seen.TenantID)
	assert.Equal(t, "WH-EAST", seen.WarehouseID)
}
