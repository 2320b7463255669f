package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/ledger-service/pkg/cloudevents"
	"github.com/wms-platform/ledger-service/pkg/kafka"
	wmsmongo "github.com/wms-platform/ledger-service/pkg/mongodb"
	"github.com/wms-platform/ledger-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/ledger-service/pkg/outbox/mongodb"
	"github.com/wms-platform/ledger-service/pkg/tenant"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// ProjectionRepository stores one materialized row per position. All
// writes are conditional on the stored version; the unique key index
// turns racing first-writes into duplicate key errors.
type ProjectionRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
	tenantHelper *tenant.RepositoryHelper
}

func NewProjectionRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *ProjectionRepository {
	repo := &ProjectionRepository{
		collection:   db.Collection("position_projections"),
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
		tenantHelper: tenant.NewRepositoryHelper(false),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ProjectionRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "itemId", Value: 1},
				{Key: "warehouseId", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_position_key"),
		},
	}
	for i, keys := range tenant.TenantIndexes() {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetName(fmt.Sprintf("idx_tenant_%d", i)),
		})
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Get returns the stored projection, or domain.ErrPositionNotFound for a
// position that has never been written. Requests carrying tenant context
// only see their own tenant's row.
func (r *ProjectionRepository) Get(ctx context.Context, key domain.PositionKey) (domain.Projection, error) {
	filter, err := r.tenantHelper.WithTenantFilter(ctx, keyFilter(key))
	if err != nil {
		return domain.Projection{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var p domain.Projection
	err = r.collection.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return domain.Projection{}, domain.ErrPositionNotFound
	}
	if err != nil {
		return domain.Projection{}, fmt.Errorf("%w: failed to get projection: %v", domain.ErrStorageUnavailable, err)
	}
	return p, nil
}

// CompareAndSwap writes next only if the stored version still equals
// expectedVersion. expectedVersion 0 means the row must not exist yet.
func (r *ProjectionRepository) CompareAndSwap(ctx context.Context, key domain.PositionKey, expectedVersion int64, next domain.Projection) error {
	if expectedVersion == 0 {
		if _, err := r.collection.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrVersionConflict
			}
			return fmt.Errorf("%w: failed to insert projection: %v", domain.ErrStorageUnavailable, err)
		}
		return nil
	}

	filter := keyFilter(key)
	filter["version"] = expectedVersion

	result, err := r.collection.ReplaceOne(ctx, filter, next)
	if err != nil {
		return fmt.Errorf("%w: failed to update projection: %v", domain.ErrStorageUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// Overwrite replaces the stored row with next provided its version is
// still observedVersion, writing any publish events to the outbox in
// the same transaction. observedVersion 0 upserts the row.
func (r *ProjectionRepository) Overwrite(ctx context.Context, key domain.PositionKey, observedVersion int64, next domain.Projection, publish ...domain.DomainEvent) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("%w: failed to start session: %v", domain.ErrStorageUnavailable, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := keyFilter(key)
		filter["version"] = observedVersion

		if observedVersion == 0 {
			// First write may race another first write; the unique key
			// index decides the winner.
			opts := options.Replace().SetUpsert(true)
			if _, err := r.collection.ReplaceOne(sessCtx, filter, next, opts); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, domain.ErrVersionConflict
				}
				return nil, fmt.Errorf("failed to write projection: %w", err)
			}
		} else {
			result, err := r.collection.ReplaceOne(sessCtx, filter, next)
			if err != nil {
				return nil, fmt.Errorf("failed to write projection: %w", err)
			}
			if result.MatchedCount == 0 {
				return nil, domain.ErrVersionConflict
			}
		}

		if len(publish) > 0 {
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(publish))
			for _, event := range publish {
				cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), "position/"+key.String(), event)
				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
					key.String(),
					"Position",
					topicFor(event),
					cloudEvent,
				)
				if err != nil {
					return nil, fmt.Errorf("failed to create outbox event: %w", err)
				}
				outboxEvents = append(outboxEvents, outboxEvent)
			}
			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		return nil, nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("overwrite transaction failed: %w", err)
	}

	return nil
}

// ListKeys returns the key of every stored projection in item then
// warehouse order. Used by the operational reconciler to sweep the
// whole book.
func (r *ProjectionRepository) ListKeys(ctx context.Context) ([]domain.PositionKey, error) {
	opts := options.Find().
		SetProjection(bson.M{"itemId": 1, "warehouseId": 1}).
		SetSort(wmsmongo.SortMultiple(
			wmsmongo.SortField{Field: "itemId"},
			wmsmongo.SortField{Field: "warehouseId"},
		))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list projection keys: %v", domain.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ItemID      string `bson:"itemId"`
		WarehouseID string `bson:"warehouseId"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode projection keys: %w", err)
	}

	keys := make([]domain.PositionKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, domain.PositionKey{ItemID: row.ItemID, WarehouseID: row.WarehouseID})
	}
	return keys, nil
}

func keyFilter(key domain.PositionKey) bson.M {
	return bson.M{"itemId": key.ItemID, "warehouseId": key.WarehouseID}
}

// topicFor routes reconciliation events to the long-retention audit topic;
// everything else goes on the main ledger stream.
func topicFor(event domain.DomainEvent) string {
	if _, ok := event.(*domain.PositionReconciledEvent); ok {
		return kafka.Topics.ReconciliationEvents
	}
	return kafka.Topics.LedgerEvents
}
