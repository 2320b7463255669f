package application

import (
	"context"
	"sync"

	"github.com/wms-platform/ledger-service/pkg/logging"

	"github.com/wms-platform/ledger-service/internal/domain"
)

type fakeMovementLog struct {
	mu        sync.Mutex
	streams   map[string][]domain.MovementEvent
	published []domain.DomainEvent
	appendErr error
	readErr   error
}

func newFakeMovementLog() *fakeMovementLog {
	return &fakeMovementLog{streams: make(map[string][]domain.MovementEvent)}
}

func (f *fakeMovementLog) Append(ctx context.Context, event domain.MovementEvent, expectedPrevSequence int64, publish ...domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return f.appendErr
	}

	stream := f.streams[event.Key.String()]
	if int64(len(stream)) != expectedPrevSequence {
		return domain.ErrSequenceConflict
	}
	f.streams[event.Key.String()] = append(stream, event)
	f.published = append(f.published, publish...)
	return nil
}

func (f *fakeMovementLog) ReadAll(ctx context.Context, key domain.PositionKey) ([]domain.MovementEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return nil, f.readErr
	}
	stream := f.streams[key.String()]
	out := make([]domain.MovementEvent, len(stream))
	copy(out, stream)
	return out, nil
}

func (f *fakeMovementLog) seed(events ...domain.MovementEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
		f.streams[e.Key.String()] = append(f.streams[e.Key.String()], e)
	}
}

type fakeProjectionStore struct {
	mu           sync.Mutex
	projections  map[string]domain.Projection
	published    []domain.DomainEvent
	getErr       error
	casErr       error
	overwriteErr error
}

func newFakeProjectionStore() *fakeProjectionStore {
	return &fakeProjectionStore{projections: make(map[string]domain.Projection)}
}

func (f *fakeProjectionStore) Get(ctx context.Context, key domain.PositionKey) (domain.Projection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return domain.Projection{}, f.getErr
	}
	p, ok := f.projections[key.String()]
	if !ok {
		return domain.Projection{}, domain.ErrPositionNotFound
	}
	return p, nil
}

func (f *fakeProjectionStore) CompareAndSwap(ctx context.Context, key domain.PositionKey, expectedVersion int64, next domain.Projection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.casErr != nil {
		return f.casErr
	}
	current := f.projections[key.String()]
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	f.projections[key.String()] = next
	return nil
}

func (f *fakeProjectionStore) Overwrite(ctx context.Context, key domain.PositionKey, observedVersion int64, next domain.Projection, publish ...domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.overwriteErr != nil {
		return f.overwriteErr
	}
	current := f.projections[key.String()]
	if current.Version != observedVersion {
		return domain.ErrVersionConflict
	}
	f.projections[key.String()] = next
	f.published = append(f.published, publish...)
	return nil
}

func (f *fakeProjectionStore) put(p domain.Projection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projections[p.Key.String()] = p
}

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("test"))
}
