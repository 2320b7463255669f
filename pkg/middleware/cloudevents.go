package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/wms-platform/ledger-service/pkg/logging"
)

// CloudEvents WMS extension context keys
const (
	ContextKeyWMSCorrelationID = "wmsCorrelationId"
	ContextKeyWMSTenantID      = "wmsTenantId"
	ContextKeyWMSWarehouseID   = "wmsWarehouseId"
	ContextKeyWMSItemID        = "wmsItemId"
)

// CloudEvents WMS extension HTTP header names
const (
	HeaderWMSCorrelationID = "X-WMS-Correlation-ID"
	HeaderWMSTenantID      = "X-WMS-Tenant-ID"
	HeaderWMSWarehouseID   = "X-WMS-Warehouse-ID"
	HeaderWMSItemID        = "X-WMS-Item-ID"
)

// CloudEvents middleware extracts WMS CloudEvents extensions from HTTP headers
// and adds them to the request context for downstream logging and propagation.
// These extensions follow the CloudEvents specification and are used for
// distributed tracing and correlation across WMS services.
func CloudEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract WMS CloudEvents extensions from headers
		wmsCorrelationID := c.GetHeader(HeaderWMSCorrelationID)
		wmsTenantID := c.GetHeader(HeaderWMSTenantID)
		wmsWarehouseID := c.GetHeader(HeaderWMSWarehouseID)
		wmsItemID := c.GetHeader(HeaderWMSItemID)

		// Set in Gin context
		if wmsCorrelationID != "" {
			c.Set(ContextKeyWMSCorrelationID, wmsCorrelationID)
		}
		if wmsTenantID != "" {
			c.Set(ContextKeyWMSTenantID, wmsTenantID)
		}
		if wmsWarehouseID != "" {
			c.Set(ContextKeyWMSWarehouseID, wmsWarehouseID)
		}
		if wmsItemID != "" {
			c.Set(ContextKeyWMSItemID, wmsItemID)
		}

		// Set in Go context for logging package
		ctx := c.Request.Context()
		if wmsCorrelationID != "" {
			ctx = logging.ContextWithWMSCorrelationID(ctx, wmsCorrelationID)
		}
		if wmsTenantID != "" {
			ctx = logging.ContextWithWMSTenantID(ctx, wmsTenantID)
		}
		if wmsWarehouseID != "" {
			ctx = logging.ContextWithWMSWarehouseID(ctx, wmsWarehouseID)
		}
		if wmsItemID != "" {
			ctx = logging.ContextWithWMSItemID(ctx, wmsItemID)
		}
		c.Request = c.Request.WithContext(ctx)

		// Propagate headers in response (for tracing)
		if wmsCorrelationID != "" {
			c.Header(HeaderWMSCorrelationID, wmsCorrelationID)
		}
		if wmsTenantID != "" {
			c.Header(HeaderWMSTenantID, wmsTenantID)
		}
		if wmsWarehouseID != "" {
			c.Header(HeaderWMSWarehouseID, wmsWarehouseID)
		}
		if wmsItemID != "" {
			c.Header(HeaderWMSItemID, wmsItemID)
		}

		c.Next()
	}
}

// GetWMSCorrelationID extracts WMS correlation ID from Gin context
func GetWMSCorrelationID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyWMSCorrelationID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetWMSTenantID extracts WMS tenant ID from Gin context
func GetWMSTenantID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyWMSTenantID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetWMSWarehouseID extracts WMS warehouse ID from Gin context
func GetWMSWarehouseID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyWMSWarehouseID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetWMSItemID extracts WMS item ID from Gin context
func GetWMSItemID(c *gin.Context) string {
	if val, exists := c.Get(ContextKeyWMSItemID); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// CloudEventExtensions holds all WMS CloudEvent extension values
type CloudEventExtensions struct {
	CorrelationID string
	TenantID      string
	WarehouseID   string
	ItemID        string
}

// GetCloudEventExtensions extracts all CloudEvent extensions from Gin context
func GetCloudEventExtensions(c *gin.Context) CloudEventExtensions {
	return CloudEventExtensions{
		CorrelationID: GetWMSCorrelationID(c),
		TenantID:      GetWMSTenantID(c),
		WarehouseID:   GetWMSWarehouseID(c),
		ItemID:        GetWMSItemID(c),
	}
}

// ToLoggingContext converts CloudEventExtensions to logging.CloudEventContext
func (ce CloudEventExtensions) ToLoggingContext() logging.CloudEventContext {
	return logging.CloudEventContext{
		CorrelationID: ce.CorrelationID,
		TenantID:      ce.TenantID,
		WarehouseID:   ce.WarehouseID,
		ItemID:        ce.ItemID,
	}
}

// PropagationCloudEventHeaders returns CloudEvents WMS headers for propagation to downstream services
func PropagationCloudEventHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)

	if id := GetWMSCorrelationID(c); id != "" {
		headers[HeaderWMSCorrelationID] = id
	}
	if id := GetWMSTenantID(c); id != "" {
		headers[HeaderWMSTenantID] = id
	}
	if id := GetWMSWarehouseID(c); id != "" {
		headers[HeaderWMSWarehouseID] = id
	}
	if id := GetWMSItemID(c); id != "" {
		headers[HeaderWMSItemID] = id
	}

	return headers
}

// CloudEventsLogger middleware adds CloudEvents extensions to logs
// This is a specialized Logger middleware that includes WMS CloudEvents extensions
func CloudEventsLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get CloudEvent extensions
		ext := GetCloudEventExtensions(c)

		// Create enriched logger
		enrichedLogger := logger.WithCloudEventContext(ext.ToLoggingContext())

		// Store enriched logger in context
		c.Set("logger", enrichedLogger)

		c.Next()
	}
}

// GetEnrichedLogger retrieves the CloudEvents-enriched logger from Gin context
func GetEnrichedLogger(c *gin.Context, fallbackLogger *logging.Logger) *logging.Logger {
	if logger, exists := c.Get("logger"); exists {
		if l, ok := logger.(*logging.Logger); ok {
			return l
		}
	}
	return fallbackLogger
}
