package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/ledger-service/pkg/cloudevents"
	wmsmongo "github.com/wms-platform/ledger-service/pkg/mongodb"
	"github.com/wms-platform/ledger-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/ledger-service/pkg/outbox/mongodb"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// MovementLogRepository stores the append-only movement event streams.
// Documents are inserted exactly once and never updated; the unique
// index on (itemId, warehouseId, sequenceNumber) turns a lost append
// race into a duplicate key error.
type MovementLogRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewMovementLogRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *MovementLogRepository {
	collection := db.Collection("movement_events")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &MovementLogRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())

	_ = outboxRepo.EnsureIndexes(context.Background())

	return repo
}

func (r *MovementLogRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "itemId", Value: 1},
				{Key: "warehouseId", Value: 1},
				{Key: "sequenceNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_position_sequence"),
		},
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_eventId"),
		},
		{
			Keys: bson.D{
				{Key: "itemId", Value: 1},
				{Key: "warehouseId", Value: 1},
				{Key: "recordedAt", Value: 1},
			},
			Options: options.Index().SetName("idx_position_recordedAt"),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Append inserts the event and its published facts in one transaction.
// The event must carry sequence number expectedPrevSequence + 1; losing
// the append race surfaces as domain.ErrSequenceConflict.
func (r *MovementLogRepository) Append(ctx context.Context, event domain.MovementEvent, expectedPrevSequence int64, publish ...domain.DomainEvent) error {
	if event.SequenceNumber != expectedPrevSequence+1 {
		return fmt.Errorf("event sequence %d does not follow expected previous %d: %w",
			event.SequenceNumber, expectedPrevSequence, domain.ErrSequenceConflict)
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("%w: failed to start session: %v", domain.ErrStorageUnavailable, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.InsertOne(sessCtx, event); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrSequenceConflict
			}
			return nil, fmt.Errorf("failed to insert movement event: %w", err)
		}

		outboxEvents, err := r.toOutboxEvents(sessCtx, event.Key, publish)
		if err != nil {
			return nil, err
		}
		if len(outboxEvents) > 0 {
			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		return nil, nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrSequenceConflict) {
			return domain.ErrSequenceConflict
		}
		return fmt.Errorf("append transaction failed: %w", err)
	}

	return nil
}

// ReadAll returns the full stream for the key in ascending sequence
// order.
func (r *MovementLogRepository) ReadAll(ctx context.Context, key domain.PositionKey) ([]domain.MovementEvent, error) {
	opts := options.Find().SetSort(wmsmongo.SortAscending("sequenceNumber"))

	cursor, err := r.collection.Find(ctx, keyFilter(key), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read movement log: %v", domain.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var events []domain.MovementEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode movement events: %w", err)
	}
	return events, nil
}

func (r *MovementLogRepository) toOutboxEvents(ctx context.Context, key domain.PositionKey, publish []domain.DomainEvent) ([]*outbox.OutboxEvent, error) {
	if len(publish) == 0 {
		return nil, nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(publish))
	for _, event := range publish {
		cloudEvent := r.eventFactory.CreateEvent(ctx, event.EventType(), "position/"+key.String(), event)
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
	return outboxEvents, nil
}

// GetOutboxRepository returns the outbox repository for this service
func (r *MovementLogRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
