package logging

import "context"

// CloudEvent extension context keys
const (
	WMSCorrelationIDKey contextKey = "wmsCorrelationId"
	WMSTenantIDKey      contextKey = "wmsTenantId"
	WMSWarehouseIDKey   contextKey = "wmsWarehouseId"
	WMSItemIDKey        contextKey = "wmsItemId"
)

// CloudEventContext holds the CloudEvent extension values that should
// accompany every log line emitted while handling an event or request.
type CloudEventContext struct {
	CorrelationID string
	TenantID      string
	WarehouseID   string
	ItemID        string
}

// WithCloudEventContext creates a logger enriched with CloudEvent extensions
func (l *Logger) WithCloudEventContext(ce CloudEventContext) *Logger {
	attrs := []any{}

	if ce.CorrelationID != "" {
		attrs = append(attrs, "wmsCorrelationId", ce.CorrelationID)
	}
	if ce.TenantID != "" {
		attrs = append(attrs, "wmsTenantId", ce.TenantID)
	}
	if ce.WarehouseID != "" {
		attrs = append(attrs, "wmsWarehouseId", ce.WarehouseID)
	}
	if ce.ItemID != "" {
		attrs = append(attrs, "wmsItemId", ce.ItemID)
	}

	if len(attrs) == 0 {
		return l
	}

	return &Logger{
		Logger:      l.Logger.With(attrs...),
		serviceName: l.serviceName,
		environment: l.environment,
		version:     l.version,
	}
}

// ContextWithWMSCorrelationID adds the WMS correlation ID to context
func ContextWithWMSCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, WMSCorrelationIDKey, correlationID)
}

// ContextWithWMSTenantID adds the WMS tenant ID to context
func ContextWithWMSTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, WMSTenantIDKey, tenantID)
}

// ContextWithWMSWarehouseID adds the WMS warehouse ID to context
func ContextWithWMSWarehouseID(ctx context.Context, warehouseID string) context.Context {
	return context.WithValue(ctx, WMSWarehouseIDKey, warehouseID)
}

// ContextWithWMSItemID adds the WMS item ID to context
func ContextWithWMSItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, WMSItemIDKey, itemID)
}

// extractCloudEventAttrs extracts CloudEvent extension attributes from context
func extractCloudEventAttrs(ctx context.Context) []any {
	var attrs []any

	if v := ctx.Value(WMSCorrelationIDKey); v != nil {
		attrs = append(attrs, "wmsCorrelationId", v)
	}
	if v := ctx.Value(WMSTenantIDKey); v != nil {
		attrs = append(attrs, "wmsTenantId", v)
	}
	if v := ctx.Value(WMSWarehouseIDKey); v != nil {
		attrs = append(attrs, "wmsWarehouseId", v)
	}
	if v := ctx.Value(WMSItemIDKey); v != nil {
		attrs = append(attrs, "wmsItemId", v)
	}

	return attrs
}
