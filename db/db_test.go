package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fleet/db"
	"fleet/db/dbtest"

	"github.com/stretchr/testify/require"
)

func doc(collection, id, company, parent string, created int64) *db.Document {
	return &db.Document{
		Collection: collection,
		ID:         id,
		CompanyID:  company,
		ParentID:   parent,
		Payload:    []byte(`{"name":"` + id + `"}`),
		Version:    1,
		CreatedMS:  created,
		UpdatedMS:  created,
	}
}

func TestInsertAndGetDocument(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertDocument(ctx, doc("ships", "s1", "c1", "", 100)))

	got, err := s.GetDocument(ctx, "ships", "s1")
	require.NoError(t, err)
	require.Equal(t, "c1", got.CompanyID)
	require.Equal(t, int64(1), got.Version)
	require.JSONEq(t, `{"name":"s1"}`, string(got.Payload))

	_, err = s.GetDocument(ctx, "ships", "missing")
	require.ErrorIs(t, err, db.ErrNotFound)

	err = s.InsertDocument(ctx, doc("ships", "s1", "c1", "", 101))
	require.Error(t, err, "duplicate keys must be rejected")
}

func TestListDocumentsScopesAndOrders(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertDocument(ctx, doc("crew", "a", "c1", "ship-1", 100)))
	require.NoError(t, s.InsertDocument(ctx, doc("crew", "b", "c1", "ship-1", 300)))
	require.NoError(t, s.InsertDocument(ctx, doc("crew", "c", "c1", "ship-2", 200)))
	require.NoError(t, s.InsertDocument(ctx, doc("crew", "d", "c2", "ship-9", 400)))
	require.NoError(t, s.InsertDocument(ctx, doc("ships", "ship-1", "c1", "", 50)))

	docs, err := s.ListDocuments(ctx, db.Query{Collection: "crew", CompanyID: "c1", ParentID: "ship-1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "b", docs[0].ID)
	require.Equal(t, "a", docs[1].ID)

	docs, err = s.ListDocuments(ctx, db.Query{Collection: "crew", CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	docs, err = s.ListDocuments(ctx, db.Query{Collection: "crew", CompanyID: "nobody"})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestUpdateDocumentComparesVersion(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()
	require.NoError(t, s.InsertDocument(ctx, doc("vendors", "v1", "c1", "", 100)))

	next := doc("vendors", "v1", "c1", "", 100)
	next.Payload = []byte(`{"name":"renamed"}`)
	next.Version = 2
	next.UpdatedMS = 200
	require.NoError(t, s.UpdateDocument(ctx, next, 1))

	got, err := s.GetDocument(ctx, "vendors", "v1")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, int64(200), got.UpdatedMS)
	require.Equal(t, int64(100), got.CreatedMS)
	require.JSONEq(t, `{"name":"renamed"}`, string(got.Payload))

	stale := doc("vendors", "v1", "c1", "", 100)
	stale.Version = 2
	require.ErrorIs(t, s.UpdateDocument(ctx, stale, 1), db.ErrVersionMismatch)

	missing := doc("vendors", "v404", "c1", "", 100)
	require.ErrorIs(t, s.UpdateDocument(ctx, missing, 1), db.ErrNotFound)
}

func TestDeleteDocument(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()
	require.NoError(t, s.InsertDocument(ctx, doc("ships", "s1", "c1", "", 100)))

	require.NoError(t, s.DeleteDocument(ctx, "ships", "s1"))
	require.ErrorIs(t, s.DeleteDocument(ctx, "ships", "s1"), db.ErrNotFound)

	_, err := s.GetDocument(ctx, "ships", "s1")
	require.True(t, errors.Is(err, db.ErrNotFound))
}

func TestNextSequence(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextSequence(ctx, "c1", "PR-202610")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := s.NextSequence(ctx, "c2", "PR-202610")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)

	got, err = s.NextSequence(ctx, "c1", "PO-202610")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestNextSequenceConcurrent(t *testing.T) {
	s := dbtest.NewStorage(t)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.NextSequence(ctx, "c1", "VND")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 20)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "dsn")
	require.ErrorContains(t, err, `unsupported db driver "mysql"`)
}
