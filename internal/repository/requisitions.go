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

	"go.uber.org/zap"
)

type RequisitionFilter struct {
	ShipID      string
	Status      workflow.State
	Type        models.RequisitionType
	Priority    models.Priority
	RequestedBy string
}

// RequisitionRepository stores requisitions and drives their approval
// lifecycle. Every decision appends an ApprovalStep.
type RequisitionRepository struct {
	c     collection[models.Requisition, *models.Requisition]
	scope shipScope
}

func validateRequisition(op string, in *models.RequisitionInput) error {
	var v validator
	v.require(in.Type.IsValid(), "type")
	v.require(in.Priority.IsValid(), "priority")
	v.require(len(in.Items) > 0, "items")
	for i, it := range in.Items {
		v.require(present(it.Name), indexed("items", i, "name"))
		v.require(positive(it.Quantity), indexed("items", i, "quantity"))
		v.require(present(it.Unit), indexed("items", i, "unit"))
		v.require(it.UnitPrice == nil || !it.UnitPrice.IsNegative(), indexed("items", i, "unitPrice"))
	}
	v.require(ordered(in.RequestDate, in.RequiredDate), "requiredDate")
	return v.err(op)
}

// settled requisitions only accept administrative corrections.
func settled(s workflow.State) bool {
	switch s {
	case workflow.RequisitionApproved, workflow.RequisitionRejected,
		workflow.RequisitionCompleted, workflow.RequisitionCancelled:
		return true
	}
	return false
}

func decisionFor(to workflow.State) models.Decision {
	switch to {
	case workflow.RequisitionPending:
		return models.DecisionSubmitted
	case workflow.RequisitionApproved:
		return models.DecisionApproved
	case workflow.RequisitionRejected:
		return models.DecisionRejected
	case workflow.RequisitionCancelled:
		return models.DecisionCancelled
	default:
		return models.DecisionCompleted
	}
}

// Create stores a new requisition with a fresh PR number. It starts pending,
// or draft when asDraft is set. A non-empty shipID must name an existing ship.
func (r *RequisitionRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.RequisitionInput, asDraft bool) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Type == "" {
		in.Type = models.RequisitionPurchase
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.RequestDate.IsZero() {
		in.RequestDate = r.c.timestamp()
	}
	op := r.c.op("create")
	if err := validateRequisition(op, &in); err != nil {
		return "", err
	}
	if err := r.scope.optional(ctx, p, shipID, op); err != nil {
		return "", err
	}
	number, err := r.c.mint(ctx, p, refnum.Requisition)
	if err != nil {
		return "", err
	}

	req := &models.Requisition{
		RequisitionInput: in,
		PRNumber:         number,
		Status:           workflow.RequisitionPending,
		RequestedBy:      p.UserID,
	}
	req.Items, req.TotalCost = models.PriceItems(in.Items)
	if asDraft {
		req.Status = workflow.RequisitionDraft
	} else {
		req.Approvals = []models.ApprovalStep{{
			Actor:    p.UserID,
			Role:     string(p.Role),
			Decision: models.DecisionSubmitted,
			At:       r.c.timestamp(),
		}}
	}
	if err := r.c.insert(ctx, p, shipID, req); err != nil {
		return "", err
	}
	return req.ID, nil
}

// Get returns nil, nil when the requisition does not exist in p's company.
func (r *RequisitionRepository) Get(ctx context.Context, p permissions.Principal, id string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *RequisitionRepository) List(ctx context.Context, p permissions.Principal, f RequisitionFilter) (reqs []models.Requisition, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, f.ShipID)
	if err != nil {
		return nil, err
	}
	return keep(all, func(q *models.Requisition) bool {
		return eq(f.Status, q.Status) && eq(f.Type, q.Type) &&
			eq(f.Priority, q.Priority) && eq(f.RequestedBy, q.RequestedBy)
	}), nil
}

// Update merges patch into an open requisition. Settled requisitions may only
// be corrected by owners and admins.
func (r *RequisitionRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.RequisitionPatch) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	op := r.c.op("update")
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(q *models.Requisition) error {
		if settled(q.Status) && p.Role != permissions.Owner && p.Role != permissions.Admin {
			return apperr.NewAuthorization(op,
				fmt.Sprintf("requisition %s is %s; only owner or admin may correct it", q.PRNumber, q.Status))
		}
		patch.Apply(&q.RequisitionInput)
		if err := validateRequisition(op, &q.RequisitionInput); err != nil {
			return err
		}
		q.Items, q.TotalCost = models.PriceItems(q.Items)
		return nil
	})
}

// Submit moves a draft to pending.
func (r *RequisitionRepository) Submit(ctx context.Context, p permissions.Principal, id string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "submit")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.transition(ctx, p, id, "submit", workflow.RequisitionPending, "", nil)
}

// Approve approves a pending requisition. Approving an approved requisition
// changes nothing.
func (r *RequisitionRepository) Approve(ctx context.Context, p permissions.Principal, id, comment string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "approve")(&err)
	if err := r.c.check(p, permissions.Approve); err != nil {
		return nil, err
	}
	return r.transition(ctx, p, id, "approve", workflow.RequisitionApproved, comment, func(q *models.Requisition) {
		q.ApprovedAt = r.c.timestamp()
	})
}

func (r *RequisitionRepository) Reject(ctx context.Context, p permissions.Principal, id, reason string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "reject")(&err)
	if err := r.c.check(p, permissions.Approve); err != nil {
		return nil, err
	}
	if !present(reason) {
		return nil, apperr.NewValidation(r.c.op("reject"), "a rejection needs a reason", "reason")
	}
	return r.transition(ctx, p, id, "reject", workflow.RequisitionRejected, reason, func(q *models.Requisition) {
		q.RejectionReason = reason
	})
}

func (r *RequisitionRepository) Cancel(ctx context.Context, p permissions.Principal, id, reason string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "cancel")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.transition(ctx, p, id, "cancel", workflow.RequisitionCancelled, reason, func(q *models.Requisition) {
		q.CancellationReason = reason
	})
}

// Complete closes an approved requisition.
func (r *RequisitionRepository) Complete(ctx context.Context, p permissions.Principal, id, comment string) (req *models.Requisition, err error) {
	defer r.c.track(ctx, "complete")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.complete(ctx, p, id, comment)
}

func (r *RequisitionRepository) complete(ctx context.Context, p permissions.Principal, id, comment string) (*models.Requisition, error) {
	return r.transition(ctx, p, id, "complete", workflow.RequisitionCompleted, comment, func(q *models.Requisition) {
		q.CompletedAt = r.c.timestamp()
	})
}

// transition moves a requisition to the target state. The caller has already
// passed the gate. A move to the current state is a no-op without a write.
func (r *RequisitionRepository) transition(ctx context.Context, p permissions.Principal, id, action string,
	to workflow.State, comment string, apply func(*models.Requisition)) (*models.Requisition, error) {
	req, err := r.c.mustFind(ctx, p, "", id, action)
	if err != nil {
		return nil, err
	}
	noop, err := workflow.Requisition.Step(req.Status, to)
	if err != nil {
		return nil, apperr.NewConflict(r.c.op(action), err.Error())
	}
	if noop {
		return req, nil
	}
	from := req.Status
	req.Status = to
	req.Approvals = append(req.Approvals, models.ApprovalStep{
		Actor:    p.UserID,
		Role:     string(p.Role),
		Decision: decisionFor(to),
		Comment:  comment,
		At:       r.c.timestamp(),
	})
	if apply != nil {
		apply(req)
	}
	if err := r.c.save(ctx, action, req); err != nil {
		return nil, err
	}
	r.c.log.Debug("requisition status changed",
		zap.String("pr", req.PRNumber), zap.String("from", string(from)), zap.String("to", string(to)))
	return req, nil
}

func (r *RequisitionRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

// Stats reduces the company's requisitions, or one ship's when shipID is set.
func (r *RequisitionRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.RequisitionStats, error) {
	reqs, err := r.List(ctx, p, RequisitionFilter{ShipID: shipID})
	if err != nil {
		return stats.RequisitionStats{}, err
	}
	return stats.Requisitions(reqs), nil
}
