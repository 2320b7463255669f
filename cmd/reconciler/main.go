package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/ledger-service/internal/application"
	"github.com/wms-platform/ledger-service/internal/domain"
	mongoRepo "github.com/wms-platform/ledger-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/ledger-service/pkg/cloudevents"
	"github.com/wms-platform/ledger-service/pkg/logging"
	"github.com/wms-platform/ledger-service/pkg/metrics"
)

// Operational tool to reconcile position projections against their
// movement logs. Walks every projection, or a single position when
// -item/-warehouse are given. Drifted rows are overwritten with the
// replayed state. Exit code 1 means drift was found.

var (
	mongoURI    = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName      = flag.String("db", "wms_ledger", "Database name")
	itemID      = flag.String("item", "", "Reconcile a single item (requires -warehouse)")
	warehouseID = flag.String("warehouse", "", "Reconcile a single warehouse position (requires -item)")
	currency    = flag.String("currency", "USD", "Fallback currency for streams without receipts")
)

func main() {
	flag.Parse()

	if (*itemID == "") != (*warehouseID == "") {
		log.Fatalf("-item and -warehouse must be given together")
	}

	log.Printf("Starting ledger reconciliation...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	db := client.Database(*dbName)

	logConfig := logging.DefaultConfig("ledger-reconciler")
	logger := logging.New(logConfig)
	m := metrics.New(metrics.DefaultConfig("ledger-reconciler"))

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceLedger)
	movementLog := mongoRepo.NewMovementLogRepository(db, eventFactory)
	projections := mongoRepo.NewProjectionRepository(db, eventFactory)

	service := application.NewRebuildService(movementLog, projections, logger, m)

	keys, err := resolveKeys(context.Background(), projections)
	if err != nil {
		log.Fatalf("Failed to resolve positions: %v", err)
	}
	log.Printf("Found %d positions to reconcile", len(keys))

	var (
		matched    int
		drifted    int
		repaired   int
		errorCount int
	)

	for _, key := range keys {
		report, err := service.Reconcile(context.Background(), application.ReconcileCommand{
			ItemID:      key.ItemID,
			WarehouseID: key.WarehouseID,
			Currency:    *currency,
		})
		if err != nil {
			log.Printf("WARNING: Failed to reconcile %s/%s: %v", key.ItemID, key.WarehouseID, err)
			errorCount++
			continue
		}

		if report.Matched {
			matched++
			continue
		}

		drifted++
		log.Printf("DRIFT: %s/%s stored v%d vs replay v%d",
			key.ItemID, key.WarehouseID, report.StoredVersion, report.ReplayVersion)
		for _, diff := range report.Differences {
			log.Printf("  %s: stored=%s replayed=%s", diff.Field, diff.Stored, diff.Replayed)
		}
		if report.Repaired {
			repaired++
			log.Printf("  repaired to replayed state")
		}
	}

	fmt.Println("\n=== Reconciliation Summary ===")
	fmt.Printf("Positions checked: %d\n", len(keys))
	fmt.Printf("Matched:           %d\n", matched)
	fmt.Printf("Drifted:           %d\n", drifted)
	fmt.Printf("Repaired:          %d\n", repaired)
	fmt.Printf("Errors:            %d\n", errorCount)

	if errorCount > 0 {
		os.Exit(2)
	}
	if drifted > 0 {
		os.Exit(1)
	}
}

func resolveKeys(ctx context.Context, projections *mongoRepo.ProjectionRepository) ([]domain.PositionKey, error) {
	if *itemID != "" {
		key, err := domain.NewPositionKey(*itemID, *warehouseID)
		if err != nil {
			return nil, err
		}
		return []domain.PositionKey{key}, nil
	}
	return projections.ListKeys(ctx)
}
