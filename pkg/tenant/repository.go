package tenant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// RepositoryHelper provides tenant-aware query building for MongoDB repositories.
// Embed this in your repository structs to add tenant filtering capabilities.
type RepositoryHelper struct {
	// EnforceTenant when true, returns an error if tenant context is missing
	EnforceTenant bool
}

// NewRepositoryHelper creates a new RepositoryHelper
func NewRepositoryHelper(enforceTenant bool) *RepositoryHelper {
	return &RepositoryHelper{
		EnforceTenant: enforceTenant,
	}
}

// WithTenantFilter adds tenant filtering to a MongoDB query filter.
// It extracts tenant context from the context and adds the tenantId
// condition without modifying the original filter.
func (h *RepositoryHelper) WithTenantFilter(ctx context.Context, filter bson.M) (bson.M, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		if h.EnforceTenant {
			return nil, err
		}
		return filter, nil
	}

	tenantFilter := bson.M{}
	for k, v := range filter {
		tenantFilter[k] = v
	}

	if tc.TenantID != "" {
		tenantFilter["tenantId"] = tc.TenantID
	}

	return tenantFilter, nil
}

// TenantIndexes returns standard MongoDB index definitions for tenant fields.
// Add these to your collection indexes for efficient tenant-scoped queries.
func TenantIndexes() []bson.D {
	return []bson.D{
		{{Key: "tenantId", Value: 1}},
		{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}},
	}
}
