package repository

import (
	"context"
	"fmt"
	"time"

	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/models"

	"go.uber.org/zap"
)

type VendorQuoteFilter struct {
	RequisitionID string
	VendorID      string
	Status        models.QuoteStatus
}

// VendorQuoteRepository stores vendor quotes answering a requisition.
type VendorQuoteRepository struct {
	c       collection[models.VendorQuote, *models.VendorQuote]
	reqs    collection[models.Requisition, *models.Requisition]
	vendors collection[models.Vendor, *models.Vendor]
}

func validateQuote(op string, in *models.QuoteInput) error {
	var v validator
	v.require(present(in.VendorID), "vendorId")
	v.require(present(in.RequisitionID), "requisitionId")
	v.require(len(in.Items) > 0, "items")
	for i, it := range in.Items {
		v.require(present(it.Name), indexed("items", i, "name"))
		v.require(positive(it.Quantity), indexed("items", i, "quantity"))
		v.require(it.UnitPrice != nil && !it.UnitPrice.IsNegative(), indexed("items", i, "unitPrice"))
	}
	v.require(in.DeliveryDays >= 0, "deliveryDays")
	return v.err(op)
}

func (r *VendorQuoteRepository) Create(ctx context.Context, p permissions.Principal, in models.QuoteInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	op := r.c.op("create")
	if err := validateQuote(op, &in); err != nil {
		return "", err
	}
	req, err := r.reqs.find(ctx, p, "", in.RequisitionID)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", apperr.NewNotFound(op, "requisition", in.RequisitionID)
	}
	vendor, err := r.vendors.find(ctx, p, "", in.VendorID)
	if err != nil {
		return "", err
	}
	if vendor == nil {
		return "", apperr.NewNotFound(op, "vendor", in.VendorID)
	}
	quote := &models.VendorQuote{QuoteInput: in, Status: models.QuotePending}
	quote.Items, quote.TotalAmount = models.PriceItems(in.Items)
	if err := r.c.insert(ctx, p, req.ShipID, quote); err != nil {
		return "", err
	}
	return quote.ID, nil
}

func (r *VendorQuoteRepository) Get(ctx context.Context, p permissions.Principal, id string) (quote *models.VendorQuote, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *VendorQuoteRepository) List(ctx context.Context, p permissions.Principal, f VendorQuoteFilter) (quotes []models.VendorQuote, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.list(ctx, p, f)
}

func (r *VendorQuoteRepository) list(ctx context.Context, p permissions.Principal, f VendorQuoteFilter) ([]models.VendorQuote, error) {
	all, err := r.c.all(ctx, p, "")
	if err != nil {
		return nil, err
	}
	return keep(all, func(q *models.VendorQuote) bool {
		return eq(f.RequisitionID, q.RequisitionID) && eq(f.VendorID, q.VendorID) && eq(f.Status, q.Status)
	}), nil
}

// Update edits a pending quote.
func (r *VendorQuoteRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.QuotePatch) (quote *models.VendorQuote, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	op := r.c.op("update")
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(q *models.VendorQuote) error {
		if q.Status != models.QuotePending {
			return apperr.NewConflict(op, fmt.Sprintf("quote %s is %s", q.ID, q.Status))
		}
		patch.Apply(&q.QuoteInput)
		if err := validateQuote(op, &q.QuoteInput); err != nil {
			return err
		}
		q.Items, q.TotalAmount = models.PriceItems(q.Items)
		return nil
	})
}

// Accept accepts a pending quote and rejects the other pending quotes for the
// same requisition. Each sibling is a separate write. A requisition has at
// most one accepted quote and a quote past its validity cannot be accepted.
func (r *VendorQuoteRepository) Accept(ctx context.Context, p permissions.Principal, id string) (quote *models.VendorQuote, err error) {
	defer r.c.track(ctx, "accept")(&err)
	if err := r.c.check(p, permissions.Approve); err != nil {
		return nil, err
	}
	op := r.c.op("accept")
	target, err := r.c.mustFind(ctx, p, "", id, "accept")
	if err != nil {
		return nil, err
	}
	if target.Expired {
		return nil, apperr.NewConflict(op, fmt.Sprintf("quote %s expired on %s", id, target.ValidUntil.Format(time.DateOnly)))
	}
	accepted, err := r.list(ctx, p, VendorQuoteFilter{RequisitionID: target.RequisitionID, Status: models.QuoteAccepted})
	if err != nil {
		return nil, err
	}
	for i := range accepted {
		if accepted[i].ID != id {
			return nil, apperr.NewConflict(op, fmt.Sprintf("requisition %s already accepted quote %s", target.RequisitionID, accepted[i].ID))
		}
	}
	quote, err = r.decide(ctx, p, id, "accept", models.QuoteAccepted)
	if err != nil {
		return nil, err
	}
	siblings, err := r.list(ctx, p, VendorQuoteFilter{RequisitionID: quote.RequisitionID, Status: models.QuotePending})
	if err != nil {
		return quote, err
	}
	for i := range siblings {
		if siblings[i].ID == quote.ID {
			continue
		}
		if _, err := r.decide(ctx, p, siblings[i].ID, "accept", models.QuoteRejected); err != nil {
			return quote, err
		}
		r.c.log.Debug("competing quote rejected", zap.String("quote", siblings[i].ID), zap.String("accepted", quote.ID))
	}
	return quote, nil
}

func (r *VendorQuoteRepository) Reject(ctx context.Context, p permissions.Principal, id string) (quote *models.VendorQuote, err error) {
	defer r.c.track(ctx, "reject")(&err)
	if err := r.c.check(p, permissions.Approve); err != nil {
		return nil, err
	}
	return r.decide(ctx, p, id, "reject", models.QuoteRejected)
}

func (r *VendorQuoteRepository) decide(ctx context.Context, p permissions.Principal, id, action string, to models.QuoteStatus) (*models.VendorQuote, error) {
	quote, err := r.c.mustFind(ctx, p, "", id, action)
	if err != nil {
		return nil, err
	}
	if quote.Status == to {
		return quote, nil
	}
	if quote.Status != models.QuotePending {
		return nil, apperr.NewConflict(r.c.op(action), fmt.Sprintf("quote %s is already %s", id, quote.Status))
	}
	quote.Status = to
	quote.DecidedBy = p.UserID
	quote.DecidedAt = r.c.timestamp()
	if err := r.c.save(ctx, action, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *VendorQuoteRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *VendorQuoteRepository) Stats(ctx context.Context, p permissions.Principal) (stats.QuoteStats, error) {
	quotes, err := r.List(ctx, p, VendorQuoteFilter{})
	if err != nil {
		return stats.QuoteStats{}, err
	}
	return stats.Quotes(quotes, r.c.now()), nil
}
