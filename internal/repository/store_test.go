package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/db"
	"fleet/internal/apperr"
	"fleet/internal/repository"
	"fleet/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) InsertDocument(ctx context.Context, d *db.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentStore) GetDocument(ctx context.Context, collection, id string) (*db.Document, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Document), args.Error(1)
}

func (m *MockDocumentStore) ListDocuments(ctx context.Context, q db.Query) ([]db.Document, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Document), args.Error(1)
}

func (m *MockDocumentStore) UpdateDocument(ctx context.Context, d *db.Document, expectedVersion int64) error {
	args := m.Called(ctx, d, expectedVersion)
	return args.Error(0)
}

func (m *MockDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockDocumentStore) NextSequence(ctx context.Context, companyID, name string) (int64, error) {
	args := m.Called(ctx, companyID, name)
	return args.Get(0).(int64), args.Error(1)
}

type recordedOp struct {
	operation string
	success   bool
}

type recorder struct {
	ops []recordedOp
}

func (r *recorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.ops = append(r.ops, recordedOp{operation, success})
}

var errDisk = errors.New("disk on fire")

func TestStoreFailuresSurfaceAsStoreErrors(t *testing.T) {
	store := new(MockDocumentStore)
	rec := &recorder{}
	repos := repository.New(store, repository.WithMetrics(rec))
	f := newFixture(t)
	ctx := context.Background()

	store.On("ListDocuments", mock.Anything, db.Query{Collection: "ships", CompanyID: "acme"}).Return(nil, errDisk)
	_, err := repos.Ships.List(ctx, f.viewer, repository.ShipFilter{})
	requireKind(t, apperr.KindStore, err)
	require.ErrorIs(t, err, errDisk)

	store.On("GetDocument", mock.Anything, "ships", "s1").Return(nil, errDisk)
	ship, err := repos.Ships.Get(ctx, f.viewer, "s1")
	requireKind(t, apperr.KindStore, err)
	require.Nil(t, ship)

	store.AssertExpectations(t)
	require.Equal(t, []recordedOp{{"ships.list", false}, {"ships.get", false}}, rec.ops)
}

func TestDeniedCallsNeverReachTheStore(t *testing.T) {
	store := new(MockDocumentStore)
	repos := repository.New(store)
	f := newFixture(t)
	ctx := context.Background()

	_, err := repos.Ships.Create(ctx, f.viewer, models.ShipInput{Name: "Ghost", Type: "tanker"})
	requireKind(t, apperr.KindAuthorization, err)
	_, err = repos.Requisitions.Approve(ctx, f.hr, "r1", "")
	requireKind(t, apperr.KindAuthorization, err)
	requireKind(t, apperr.KindAuthorization, repos.Vendors.Delete(ctx, f.procurement, "v1"))

	store.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertDocument", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestMintFailureBlocksCreate(t *testing.T) {
	store := new(MockDocumentStore)
	repos := repository.New(store, repository.WithClock(func() time.Time { return now }))
	f := newFixture(t)

	store.On("NextSequence", mock.Anything, "acme", "VND").Return(int64(0), errDisk)
	_, err := repos.Vendors.Create(context.Background(), f.procurement, models.VendorInput{Name: "Harbor"})
	requireKind(t, apperr.KindStore, err)
	store.AssertNotCalled(t, "InsertDocument", mock.Anything, mock.Anything)
}

func TestSuccessfulOperationsAreObserved(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t)
	repos := repository.New(f.store, repository.WithMetrics(rec), repository.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	id, err := repos.Ships.Create(ctx, f.owner, models.ShipInput{Name: "Observed", Type: "tug"})
	require.NoError(t, err)
	_, err = repos.Ships.Get(ctx, f.owner, id)
	require.NoError(t, err)

	require.Equal(t, []recordedOp{{"ships.create", true}, {"ships.get", true}}, rec.ops)
}
