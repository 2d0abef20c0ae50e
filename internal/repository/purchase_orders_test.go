package repository_test

import (
	"context"
	"testing"
	"time"

	"fleet/db"
	"fleet/internal/apperr"
	"fleet/internal/refnum"
	"fleet/internal/repository"
	"fleet/internal/workflow"
	"fleet/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (f *fixture) vendor(t *testing.T, name string, status models.VendorStatus) string {
	t.Helper()
	id, err := f.repos.Vendors.Create(context.Background(), f.admin, models.VendorInput{
		Name:       name,
		Categories: []string{"spares"},
		Contact:    models.Contact{Name: "Sales", Email: "sales@example.com"},
		Business:   models.Business{PaymentTerms: "net 30", Currency: "USD"},
		Status:     status,
	})
	require.NoError(t, err)
	return id
}

// approvedRequisition returns an approved requisition on a fresh ship.
func (f *fixture) approvedRequisition(t *testing.T) (shipID, reqID string) {
	t.Helper()
	shipID = f.ship(t, "Buyer")
	reqID = f.requisition(t, shipID)
	_, err := f.repos.Requisitions.Approve(context.Background(), f.finance, reqID, "")
	require.NoError(t, err)
	return shipID, reqID
}

// acknowledge walks a pending order up to acknowledged.
func (f *fixture) acknowledge(t *testing.T, poID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.repos.PurchaseOrders.Transition(ctx, f.finance, poID, workflow.POApproved)
	require.NoError(t, err)
	_, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, poID, workflow.POSentToVendor)
	require.NoError(t, err)
	_, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, poID, workflow.POAcknowledged)
	require.NoError(t, err)
}

func TestPurchaseOrderCreateCopiesRequisition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shipID, reqID := f.approvedRequisition(t)
	vendorID := f.vendor(t, "Marine Supply", models.VendorActive)

	id, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: vendorID}, false)
	require.NoError(t, err)

	po, err := f.repos.PurchaseOrders.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	require.NotNil(t, po)
	require.Equal(t, "PO-202610-000001", po.PONumber)
	require.True(t, refnum.Valid(refnum.PurchaseOrder, po.PONumber))
	require.Equal(t, workflow.POPending, po.Status)
	require.Equal(t, shipID, po.ShipID)
	require.Equal(t, "EUR", po.Currency, "currency comes from the requisition first")
	require.Equal(t, "net 30", po.PaymentTerms)
	require.Len(t, po.Items, 3)
	requireDecimal(t, "210", po.TotalAmount)
	for _, it := range po.Items {
		requireDecimal(t, "0", it.QuantityReceived)
		require.True(t, it.QuantityPending.Equal(it.Quantity))
	}

	draft, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: vendorID}, true)
	require.NoError(t, err)
	po, err = f.repos.PurchaseOrders.Get(ctx, f.viewer, draft)
	require.NoError(t, err)
	require.Equal(t, workflow.PODraft, po.Status)
}

func TestPurchaseOrderPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.vendor(t, "Good Vendor", models.VendorActive)
	blacklisted := f.vendor(t, "Bad Vendor", models.VendorBlacklisted)

	_, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{}, false)
	requireKind(t, apperr.KindValidation, err)
	require.ElementsMatch(t, []string{"requisitionId", "vendorId"}, apperr.FieldsOf(err))

	_, err = f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: "nope", VendorID: active}, false)
	requireKind(t, apperr.KindNotFound, err)

	pending := f.requisition(t, "")
	_, err = f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: pending, VendorID: active}, false)
	requireKind(t, apperr.KindConflict, err)

	_, reqID := f.approvedRequisition(t)
	_, err = f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: "nope"}, false)
	requireKind(t, apperr.KindNotFound, err)

	_, err = f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: blacklisted}, false)
	requireKind(t, apperr.KindConflict, err)

	_, err = f.repos.PurchaseOrders.Create(ctx, f.finance, models.POInput{RequisitionID: reqID, VendorID: active}, false)
	requireKind(t, apperr.KindAuthorization, err)

	orders, err := f.repos.PurchaseOrders.List(ctx, f.owner, repository.PurchaseOrderFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPurchaseOrderTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, reqID := f.approvedRequisition(t)
	vendorID := f.vendor(t, "Marine Supply", models.VendorActive)
	id, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: vendorID}, false)
	require.NoError(t, err)

	_, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, id, workflow.POApproved)
	requireKind(t, apperr.KindAuthorization, err)

	_, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, id, workflow.POSentToVendor)
	requireKind(t, apperr.KindConflict, err)

	po, err := f.repos.PurchaseOrders.Transition(ctx, f.finance, id, workflow.POApproved)
	require.NoError(t, err)
	require.Equal(t, "fiona", po.ApprovedBy)

	po, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, id, workflow.POSentToVendor)
	require.NoError(t, err)
	require.True(t, po.SentAt.Equal(now))

	_, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, id, workflow.POCompleted)
	requireKind(t, apperr.KindConflict, err)

	po, err = f.repos.PurchaseOrders.Transition(ctx, f.procurement, id, workflow.POCancelled)
	require.NoError(t, err)
	require.Equal(t, workflow.POCancelled, po.Status)

	notes := "too late"
	_, err = f.repos.PurchaseOrders.Update(ctx, f.procurement, id, models.POPatch{Notes: &notes})
	requireKind(t, apperr.KindConflict, err)
}

func TestRecordDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, reqID := f.approvedRequisition(t)
	vendorID := f.vendor(t, "Marine Supply", models.VendorActive)
	id, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: vendorID}, false)
	require.NoError(t, err)

	line := func(index int, qty int64) models.DeliveryLine {
		return models.DeliveryLine{Index: index, Quantity: decimal.NewFromInt(qty)}
	}

	_, err = f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id, []models.DeliveryLine{line(0, 1)}, "")
	requireKind(t, apperr.KindConflict, err)

	f.acknowledge(t, id)

	_, err = f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id, []models.DeliveryLine{line(7, 1)}, "")
	requireKind(t, apperr.KindValidation, err)
	require.Equal(t, []string{"lines[0].index"}, apperr.FieldsOf(err))

	_, err = f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id, []models.DeliveryLine{line(0, 5)}, "")
	requireKind(t, apperr.KindValidation, err)

	po, err := f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id,
		[]models.DeliveryLine{line(0, 3), line(1, 2)}, "first drop")
	require.NoError(t, err)
	require.Equal(t, workflow.POPartiallyDelivered, po.Status)
	require.Len(t, po.Deliveries, 1)
	require.Equal(t, "first drop", po.Deliveries[0].Note)
	requireDecimal(t, "3", po.Items[0].QuantityReceived)
	requireDecimal(t, "1", po.Items[0].QuantityPending)
	requireDecimal(t, "0", po.Items[1].QuantityPending)
	for _, it := range po.Items {
		require.True(t, it.QuantityReceived.Add(it.QuantityPending).Equal(it.Quantity))
	}

	req, err := f.repos.Requisitions.Get(ctx, f.viewer, reqID)
	require.NoError(t, err)
	require.Equal(t, workflow.RequisitionApproved, req.Status)

	po, err = f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id,
		[]models.DeliveryLine{line(0, 1), line(2, 1)}, "")
	require.NoError(t, err)
	require.Equal(t, workflow.POCompleted, po.Status)
	require.True(t, po.CompletedAt.Equal(now))
	require.False(t, po.Outstanding())
	require.Len(t, po.Deliveries, 2)

	req, err = f.repos.Requisitions.Get(ctx, f.viewer, reqID)
	require.NoError(t, err)
	require.Equal(t, workflow.RequisitionCompleted, req.Status)
	require.True(t, req.CompletedAt.Equal(now))

	st, err := f.repos.PurchaseOrders.Stats(ctx, f.viewer, "")
	require.NoError(t, err)
	require.Equal(t, 1, st.Total)
	require.Equal(t, 0, st.OpenDeliveries)
	require.Equal(t, 1, st.ByStatus["completed"])
}

func TestVendorCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.repos.Vendors.Create(ctx, f.procurement, models.VendorInput{
		Name:       "Harbor Chandlers",
		Compliance: models.Compliance{InsuranceExpiry: now.AddDate(0, 0, 10)},
	})
	require.NoError(t, err)

	v, err := f.repos.Vendors.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	require.Equal(t, "VND-00000001", v.VendorCode)
	require.True(t, refnum.Valid(refnum.Vendor, v.VendorCode))
	require.Equal(t, models.VendorPendingApproval, v.Status)
	require.Equal(t, 0, v.Performance.TotalOrders)
	require.Nil(t, v.Performance.OnTimeDeliveryRate)

	_, err = f.repos.Vendors.Create(ctx, f.procurement, models.VendorInput{Name: "Eager", Status: models.VendorActive})
	requireKind(t, apperr.KindAuthorization, err)

	_, err = f.repos.Vendors.Create(ctx, f.admin, models.VendorInput{Name: "Typo", Contact: models.Contact{Email: "not-an-email"}})
	requireKind(t, apperr.KindValidation, err)
	require.Equal(t, []string{"contact.email"}, apperr.FieldsOf(err))

	active := models.VendorActive
	_, err = f.repos.Vendors.Update(ctx, f.procurement, id, models.VendorPatch{Status: &active})
	requireKind(t, apperr.KindAuthorization, err)
	v, err = f.repos.Vendors.Update(ctx, f.owner, id, models.VendorPatch{Status: &active})
	require.NoError(t, err)
	require.Equal(t, models.VendorActive, v.Status)

	st, err := f.repos.Vendors.Stats(ctx, f.viewer)
	require.NoError(t, err)
	require.Equal(t, 1, st.Total)
	require.Equal(t, 1, st.InsuranceExpiring)
	require.Nil(t, st.QualityRating)
}

type failingRequisitionWrites struct {
	repository.DocumentStore
}

func (s failingRequisitionWrites) UpdateDocument(ctx context.Context, d *db.Document, expectedVersion int64) error {
	if d.Collection == "requisitions" {
		return errDisk
	}
	return s.DocumentStore.UpdateDocument(ctx, d, expectedVersion)
}

func TestDeliveryCompletesWhenRequisitionWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, reqID := f.approvedRequisition(t)
	vendorID := f.vendor(t, "Marine Supply", models.VendorActive)
	id, err := f.repos.PurchaseOrders.Create(ctx, f.procurement, models.POInput{RequisitionID: reqID, VendorID: vendorID}, false)
	require.NoError(t, err)
	f.acknowledge(t, id)

	po, err := f.repos.PurchaseOrders.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	lines := make([]models.DeliveryLine, len(po.Items))
	for i, it := range po.Items {
		lines[i] = models.DeliveryLine{Index: i, Quantity: it.QuantityPending}
	}

	broken := repository.New(failingRequisitionWrites{f.store}, repository.WithClock(func() time.Time { return now }))
	po, err = broken.PurchaseOrders.RecordDelivery(ctx, f.procurement, id, lines, "all in one")
	require.NoError(t, err)
	require.Equal(t, workflow.POCompleted, po.Status)

	po, err = f.repos.PurchaseOrders.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	require.Equal(t, workflow.POCompleted, po.Status)
	require.Len(t, po.Deliveries, 1)

	req, err := f.repos.Requisitions.Get(ctx, f.viewer, reqID)
	require.NoError(t, err)
	require.Equal(t, workflow.RequisitionApproved, req.Status)

	_, err = f.repos.PurchaseOrders.RecordDelivery(ctx, f.procurement, id, lines[:1], "")
	requireKind(t, apperr.KindConflict, err)
}

func TestExpiredQuoteCannotBeAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reqID := f.requisition(t, "")
	vendorID := f.vendor(t, "Stale", models.VendorActive)

	id, err := f.repos.VendorQuotes.Create(ctx, f.procurement, models.QuoteInput{
		VendorID:      vendorID,
		RequisitionID: reqID,
		Items:         []models.LineItem{{Name: "Impeller", Quantity: decimal.NewFromInt(1), Unit: "pcs", UnitPrice: price("80")}},
		ValidUntil:    now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	q, err := f.repos.VendorQuotes.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	require.True(t, q.Expired)

	_, err = f.repos.VendorQuotes.Accept(ctx, f.finance, id)
	requireKind(t, apperr.KindConflict, err)

	q, err = f.repos.VendorQuotes.Reject(ctx, f.finance, id)
	require.NoError(t, err)
	require.Equal(t, models.QuoteRejected, q.Status)
}

func TestQuoteAcceptRejectsSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reqID := f.requisition(t, "")
	other := f.requisition(t, "")
	vendorA := f.vendor(t, "A", models.VendorActive)
	vendorB := f.vendor(t, "B", models.VendorActive)

	quote := func(reqID, vendorID, unit string) string {
		id, err := f.repos.VendorQuotes.Create(ctx, f.procurement, models.QuoteInput{
			VendorID:      vendorID,
			RequisitionID: reqID,
			Items:         []models.LineItem{{Name: "Fuel filter", Quantity: decimal.NewFromInt(4), Unit: "pcs", UnitPrice: price(unit)}},
			ValidUntil:    now.AddDate(0, 0, 14),
		})
		require.NoError(t, err)
		return id
	}
	first := quote(reqID, vendorA, "11")
	second := quote(reqID, vendorB, "12")
	unrelated := quote(other, vendorB, "13")

	q, err := f.repos.VendorQuotes.Get(ctx, f.viewer, first)
	require.NoError(t, err)
	requireDecimal(t, "44", q.TotalAmount)
	require.False(t, q.Expired)

	_, err = f.repos.VendorQuotes.Accept(ctx, f.procurement, first)
	requireKind(t, apperr.KindAuthorization, err)

	q, err = f.repos.VendorQuotes.Accept(ctx, f.finance, first)
	require.NoError(t, err)
	require.Equal(t, models.QuoteAccepted, q.Status)
	require.Equal(t, "fiona", q.DecidedBy)

	q, err = f.repos.VendorQuotes.Get(ctx, f.viewer, second)
	require.NoError(t, err)
	require.Equal(t, models.QuoteRejected, q.Status)

	q, err = f.repos.VendorQuotes.Get(ctx, f.viewer, unrelated)
	require.NoError(t, err)
	require.Equal(t, models.QuotePending, q.Status)

	_, err = f.repos.VendorQuotes.Accept(ctx, f.finance, second)
	requireKind(t, apperr.KindConflict, err)

	late := quote(reqID, vendorB, "10")
	_, err = f.repos.VendorQuotes.Accept(ctx, f.finance, late)
	requireKind(t, apperr.KindConflict, err)
	q, err = f.repos.VendorQuotes.Get(ctx, f.viewer, late)
	require.NoError(t, err)
	require.Equal(t, models.QuotePending, q.Status)

	accepted, err := f.repos.VendorQuotes.List(ctx, f.viewer, repository.VendorQuoteFilter{RequisitionID: reqID, Status: models.QuoteAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, first, accepted[0].ID)

	_, err = f.repos.VendorQuotes.Create(ctx, f.procurement, models.QuoteInput{
		VendorID:      vendorA,
		RequisitionID: reqID,
		Items:         []models.LineItem{{Name: "Unpriced", Quantity: decimal.NewFromInt(1), Unit: "pcs"}},
	})
	requireKind(t, apperr.KindValidation, err)
	require.Equal(t, []string{"items[0].unitPrice"}, apperr.FieldsOf(err))
}
