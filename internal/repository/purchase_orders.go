package repository

import (
	"context"
	"fmt"

	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/refnum"
	"fleet/internal/stats"
	"fleet/internal/workflow"
	"fleet/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PurchaseOrderFilter struct {
	ShipID        string
	Status        workflow.State
	VendorID      string
	RequisitionID string
}

// PurchaseOrderRepository stores purchase orders raised against approved
// requisitions and tracks their deliveries.
type PurchaseOrderRepository struct {
	c       collection[models.PurchaseOrder, *models.PurchaseOrder]
	reqs    *RequisitionRepository
	vendors collection[models.Vendor, *models.Vendor]
}

func validatePOItems(op string, in *models.POInput) error {
	var v validator
	v.require(present(in.RequisitionID), "requisitionId")
	v.require(present(in.VendorID), "vendorId")
	for i, it := range in.Items {
		v.require(present(it.Name), indexed("items", i, "name"))
		v.require(positive(it.Quantity), indexed("items", i, "quantity"))
		v.require(present(it.Unit), indexed("items", i, "unit"))
		v.require(!it.UnitPrice.IsNegative(), indexed("items", i, "unitPrice"))
	}
	return v.err(op)
}

// orderItems copies the requisition lines when the order carries none.
func orderItems(in []models.POItem, req *models.Requisition) []models.POItem {
	if len(in) == 0 {
		for _, li := range req.Items {
			price := decimal.Zero
			if li.UnitPrice != nil {
				price = *li.UnitPrice
			}
			in = append(in, models.POItem{
				Name:       li.Name,
				PartNumber: li.PartNumber,
				Quantity:   li.Quantity,
				Unit:       li.Unit,
				UnitPrice:  price,
			})
		}
	}
	out := make([]models.POItem, len(in))
	for i, it := range in {
		it.TotalPrice = it.Quantity.Mul(it.UnitPrice)
		it.QuantityReceived = decimal.Zero
		it.QuantityPending = it.Quantity
		out[i] = it
	}
	return out
}

// Create raises a purchase order. The requisition must exist and be approved
// and the vendor must exist and not be blacklisted. The order inherits the
// requisition's ship.
func (r *PurchaseOrderRepository) Create(ctx context.Context, p permissions.Principal, in models.POInput, asDraft bool) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	op := r.c.op("create")
	if err := validatePOItems(op, &in); err != nil {
		return "", err
	}
	req, err := r.reqs.c.find(ctx, p, "", in.RequisitionID)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", apperr.NewNotFound(op, "requisition", in.RequisitionID)
	}
	if req.Status != workflow.RequisitionApproved {
		return "", apperr.NewConflict(op, fmt.Sprintf("requisition %s is %s, not approved", req.PRNumber, req.Status))
	}
	vendor, err := r.vendors.find(ctx, p, "", in.VendorID)
	if err != nil {
		return "", err
	}
	if vendor == nil {
		return "", apperr.NewNotFound(op, "vendor", in.VendorID)
	}
	if vendor.Status == models.VendorBlacklisted {
		return "", apperr.NewConflict(op, fmt.Sprintf("vendor %s is blacklisted", vendor.VendorCode))
	}

	in.Items = orderItems(in.Items, req)
	if in.Currency == "" {
		in.Currency = req.Currency
	}
	if in.Currency == "" {
		in.Currency = vendor.Business.Currency
	}
	if in.PaymentTerms == "" {
		in.PaymentTerms = vendor.Business.PaymentTerms
	}
	number, err := r.c.mint(ctx, p, refnum.PurchaseOrder)
	if err != nil {
		return "", err
	}
	po := &models.PurchaseOrder{POInput: in, PONumber: number, Status: workflow.POPending}
	if asDraft {
		po.Status = workflow.PODraft
	}
	for _, it := range in.Items {
		po.TotalAmount = po.TotalAmount.Add(it.TotalPrice)
	}
	if err := r.c.insert(ctx, p, req.ShipID, po); err != nil {
		return "", err
	}
	return po.ID, nil
}

func (r *PurchaseOrderRepository) Get(ctx context.Context, p permissions.Principal, id string) (po *models.PurchaseOrder, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *PurchaseOrderRepository) List(ctx context.Context, p permissions.Principal, f PurchaseOrderFilter) (orders []models.PurchaseOrder, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, f.ShipID)
	if err != nil {
		return nil, err
	}
	return keep(all, func(po *models.PurchaseOrder) bool {
		return eq(f.Status, po.Status) && eq(f.VendorID, po.VendorID) && eq(f.RequisitionID, po.RequisitionID)
	}), nil
}

func (r *PurchaseOrderRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.POPatch) (po *models.PurchaseOrder, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(po *models.PurchaseOrder) error {
		if workflow.PurchaseOrder.Terminal(po.Status) {
			return apperr.NewConflict(r.c.op("update"), fmt.Sprintf("purchase order %s is %s", po.PONumber, po.Status))
		}
		patch.Apply(&po.POInput)
		return nil
	})
}

// Transition moves the order along its workflow. Approval needs the approve
// permission. Delivery states are reached only through RecordDelivery.
func (r *PurchaseOrderRepository) Transition(ctx context.Context, p permissions.Principal, id string, to workflow.State) (po *models.PurchaseOrder, err error) {
	defer r.c.track(ctx, "transition")(&err)
	action := permissions.Update
	if to == workflow.POApproved {
		action = permissions.Approve
	}
	if err := r.c.check(p, action); err != nil {
		return nil, err
	}
	op := r.c.op("transition")
	if to == workflow.POPartiallyDelivered || to == workflow.POCompleted {
		return nil, apperr.NewConflict(op, fmt.Sprintf("purchase orders become %s by recording deliveries", to))
	}
	po, err = r.c.mustFind(ctx, p, "", id, "transition")
	if err != nil {
		return nil, err
	}
	noop, err := workflow.PurchaseOrder.Step(po.Status, to)
	if err != nil {
		return nil, apperr.NewConflict(op, err.Error())
	}
	if noop {
		return po, nil
	}
	from := po.Status
	po.Status = to
	switch to {
	case workflow.POApproved:
		po.ApprovedBy = p.UserID
	case workflow.POSentToVendor:
		po.SentAt = r.c.timestamp()
	}
	if err := r.c.save(ctx, "transition", po); err != nil {
		return nil, err
	}
	r.c.log.Debug("purchase order status changed",
		zap.String("po", po.PONumber), zap.String("from", string(from)), zap.String("to", string(to)))
	return po, nil
}

// RecordDelivery appends a delivery and moves received quantities out of
// pending. When nothing is pending the order completes and its requisition is
// marked completed in a second, independent write. Once the order is saved the
// delivery succeeds even if that second write fails.
func (r *PurchaseOrderRepository) RecordDelivery(ctx context.Context, p permissions.Principal, id string, lines []models.DeliveryLine, note string) (po *models.PurchaseOrder, err error) {
	defer r.c.track(ctx, "record_delivery")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	op := r.c.op("record_delivery")
	var v validator
	v.require(len(lines) > 0, "lines")
	for i, l := range lines {
		v.require(positive(l.Quantity), indexed("lines", i, "quantity"))
	}
	if err := v.err(op); err != nil {
		return nil, err
	}

	po, err = r.c.mustFind(ctx, p, "", id, "record_delivery")
	if err != nil {
		return nil, err
	}
	if po.Status != workflow.POAcknowledged && po.Status != workflow.POPartiallyDelivered {
		return nil, apperr.NewConflict(op, fmt.Sprintf("purchase order %s is %s; deliveries need an acknowledged order", po.PONumber, po.Status))
	}

	items := make([]models.POItem, len(po.Items))
	copy(items, po.Items)
	for i, l := range lines {
		if l.Index < 0 || l.Index >= len(items) {
			return nil, apperr.NewValidation(op, "no such order line", indexed("lines", i, "index"))
		}
		it := &items[l.Index]
		if l.Quantity.GreaterThan(it.QuantityPending) {
			return nil, apperr.NewValidation(op,
				fmt.Sprintf("%s %s of %s exceeds the %s pending", l.Quantity, it.Unit, it.Name, it.QuantityPending),
				indexed("lines", i, "quantity"))
		}
		it.QuantityReceived = it.QuantityReceived.Add(l.Quantity)
		it.QuantityPending = it.Quantity.Sub(it.QuantityReceived)
	}
	po.Items = items
	po.Deliveries = append(po.Deliveries, models.Delivery{
		Lines:      lines,
		ReceivedBy: p.UserID,
		ReceivedAt: r.c.timestamp(),
		Note:       note,
	})

	next := workflow.POPartiallyDelivered
	if !po.Outstanding() {
		next = workflow.POCompleted
		po.CompletedAt = r.c.timestamp()
	}
	if _, err := workflow.PurchaseOrder.Step(po.Status, next); err != nil {
		return nil, apperr.NewConflict(op, err.Error())
	}
	po.Status = next
	if err := r.c.save(ctx, "record_delivery", po); err != nil {
		return nil, err
	}
	if next == workflow.POCompleted {
		if err := r.completeRequisition(ctx, p, po); err != nil {
			r.c.log.Warn("purchase order completed but requisition was not updated",
				zap.String("po", po.PONumber), zap.String("requisition", po.RequisitionID), zap.Error(err))
		}
	}
	return po, nil
}

// completeRequisition follows a completed order through to its requisition.
// The order is already saved, so a failure here does not fail the delivery.
func (r *PurchaseOrderRepository) completeRequisition(ctx context.Context, p permissions.Principal, po *models.PurchaseOrder) error {
	req, err := r.reqs.c.find(ctx, p, "", po.RequisitionID)
	if err != nil {
		return err
	}
	if req == nil || req.Status != workflow.RequisitionApproved {
		r.c.log.Debug("requisition left as is after order completion",
			zap.String("po", po.PONumber), zap.String("requisition", po.RequisitionID))
		return nil
	}
	_, err = r.reqs.complete(ctx, p, req.ID, "purchase order "+po.PONumber+" completed")
	return err
}

func (r *PurchaseOrderRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *PurchaseOrderRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.PurchaseOrderStats, error) {
	orders, err := r.List(ctx, p, PurchaseOrderFilter{ShipID: shipID})
	if err != nil {
		return stats.PurchaseOrderStats{}, err
	}
	return stats.PurchaseOrders(orders), nil
}
