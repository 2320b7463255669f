package tenant

import (
	"context"
	"errors"
)

// Context keys for tenant information
type contextKey string

const (
	tenantIDKey    contextKey = "tenantId"
	warehouseIDKey contextKey = "warehouseId"
)

// Errors for tenant context operations
var (
	ErrMissingTenantContext = errors.New("tenant context is required")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to tenant resource")
	ErrMissingTenantID      = errors.New("tenantId is required")
	ErrMissingWarehouseID   = errors.New("warehouseId is required")
)

// Context holds tenant identifiers for multi-tenant operations.
// It is used to scope database queries and to stamp ownership onto
// new ledger entries and projections.
type Context struct {
	// TenantID is the operator identifier (the company owning the stock)
	TenantID string `json:"tenantId"`

	// WarehouseID is a specific warehouse the request is scoped to,
	// when the caller pins one via headers rather than the URL
	WarehouseID string `json:"warehouseId"`
}

// FromContext extracts the tenant context from context.Context.
// Returns an error if no tenant ID is present.
func FromContext(ctx context.Context) (*Context, error) {
	tc := &Context{}

	if v := ctx.Value(tenantIDKey); v != nil {
		if id, ok := v.(string); ok {
			tc.TenantID = id
		}
	}
	if v := ctx.Value(warehouseIDKey); v != nil {
		if id, ok := v.(string); ok {
			tc.WarehouseID = id
		}
	}

	if tc.TenantID == "" {
		return nil, ErrMissingTenantContext
	}

	return tc, nil
}

// FromContextOptional extracts the tenant context from context.Context.
// Unlike FromContext, this returns an empty context if none exists.
func FromContextOptional(ctx context.Context) *Context {
	tc, _ := FromContext(ctx)
	if tc == nil {
		return &Context{}
	}
	return tc
}

// ToContext adds tenant context values to context.Context.
func ToContext(ctx context.Context, tc *Context) context.Context {
	if tc == nil {
		return ctx
	}

	if tc.TenantID != "" {
		ctx = context.WithValue(ctx, tenantIDKey, tc.TenantID)
	}
	if tc.WarehouseID != "" {
		ctx = context.WithValue(ctx, warehouseIDKey, tc.WarehouseID)
	}

	return ctx
}

// WithTenantID returns a new context with the tenant ID set
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithWarehouseID returns a new context with the warehouse ID set
func WithWarehouseID(ctx context.Context, warehouseID string) context.Context {
	return context.WithValue(ctx, warehouseIDKey, warehouseID)
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) string {
	if v := ctx.Value(tenantIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetWarehouseID extracts warehouse ID from context
func GetWarehouseID(ctx context.Context) string {
	if v := ctx.Value(warehouseIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// IsEmpty returns true if the context has no tenant identifiers set
func (tc *Context) IsEmpty() bool {
	return tc.TenantID == "" && tc.WarehouseID == ""
}

// HasTenant returns true if a tenant ID is set
func (tc *Context) HasTenant() bool {
	return tc.TenantID != ""
}

// HasWarehouse returns true if a warehouse ID is set
func (tc *Context) HasWarehouse() bool {
	return tc.WarehouseID != ""
}

// Validate checks that required tenant context fields are present.
func (tc *Context) Validate() error {
	if tc.TenantID == "" {
		return ErrMissingTenantID
	}
	return nil
}

// ValidateOwnership verifies that a resource belongs to this tenant context.
// Used to prevent cross-tenant data access.
func (tc *Context) ValidateOwnership(resourceTenantID string) error {
	if tc.TenantID != "" && resourceTenantID != "" && tc.TenantID != resourceTenantID {
		return ErrUnauthorizedAccess
	}
	return nil
}

// DefaultTenantID is used during migration for existing data without
// tenant fields.
const DefaultTenantID = "DEFAULT_TENANT"

// Default returns a default tenant context for backward compatibility
func Default() *Context {
	return &Context{
		TenantID: DefaultTenantID,
	}
}
