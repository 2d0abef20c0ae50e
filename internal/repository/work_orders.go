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

type WorkOrderFilter struct {
	ShipID        string
	Status        workflow.State
	Priority      models.Priority
	RequisitionID string
	AssignedTo    string
}

type WorkOrderRepository struct {
	c       collection[models.WorkOrder, *models.WorkOrder]
	scope   shipScope
	reqs    collection[models.Requisition, *models.Requisition]
	vendors collection[models.Vendor, *models.Vendor]
}

func validateWorkOrder(op string, in *models.WorkOrderInput) error {
	var v validator
	v.require(present(in.Title), "title")
	v.require(present(in.Type), "type")
	v.require(in.Priority.IsValid(), "priority")
	v.require(ordered(in.ScheduledStartDate, in.ScheduledEndDate), "scheduledEndDate")
	v.require(!in.EstimatedCost.IsNegative(), "estimatedCost")
	return v.err(op)
}

// references checks that the linked requisition and vendor exist.
func (r *WorkOrderRepository) references(ctx context.Context, p permissions.Principal, in *models.WorkOrderInput, op string) error {
	if in.RequisitionID != "" {
		req, err := r.reqs.find(ctx, p, "", in.RequisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NewNotFound(op, "requisition", in.RequisitionID)
		}
	}
	if in.VendorID != "" {
		vendor, err := r.vendors.find(ctx, p, "", in.VendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return apperr.NewNotFound(op, "vendor", in.VendorID)
		}
	}
	return nil
}

func (r *WorkOrderRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.WorkOrderInput, asDraft bool) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	op := r.c.op("create")
	if err := validateWorkOrder(op, &in); err != nil {
		return "", err
	}
	if err := r.scope.optional(ctx, p, shipID, op); err != nil {
		return "", err
	}
	if err := r.references(ctx, p, &in, op); err != nil {
		return "", err
	}
	number, err := r.c.mint(ctx, p, refnum.WorkOrder)
	if err != nil {
		return "", err
	}
	wo := &models.WorkOrder{WorkOrderInput: in, WONumber: number, Status: workflow.WOPending}
	if asDraft {
		wo.Status = workflow.WODraft
	}
	if err := r.c.insert(ctx, p, shipID, wo); err != nil {
		return "", err
	}
	return wo.ID, nil
}

func (r *WorkOrderRepository) Get(ctx context.Context, p permissions.Principal, id string) (wo *models.WorkOrder, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *WorkOrderRepository) List(ctx context.Context, p permissions.Principal, f WorkOrderFilter) (orders []models.WorkOrder, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, f.ShipID)
	if err != nil {
		return nil, err
	}
	return keep(all, func(wo *models.WorkOrder) bool {
		return eq(f.Status, wo.Status) && eq(f.Priority, wo.Priority) &&
			eq(f.RequisitionID, wo.RequisitionID) &&
			(f.AssignedTo == "" || contains(wo.AssignedTo, f.AssignedTo))
	}), nil
}

func (r *WorkOrderRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.WorkOrderPatch) (wo *models.WorkOrder, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	op := r.c.op("update")
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(wo *models.WorkOrder) error {
		if workflow.WorkOrder.Terminal(wo.Status) {
			return apperr.NewConflict(op, fmt.Sprintf("work order %s is %s", wo.WONumber, wo.Status))
		}
		patch.Apply(&wo.WorkOrderInput)
		if err := validateWorkOrder(op, &wo.WorkOrderInput); err != nil {
			return err
		}
		return r.references(ctx, p, &wo.WorkOrderInput, op)
	})
}

// Transition moves the work order along its workflow. Holding and resuming go
// through Hold and Resume.
func (r *WorkOrderRepository) Transition(ctx context.Context, p permissions.Principal, id string, to workflow.State) (wo *models.WorkOrder, err error) {
	defer r.c.track(ctx, "transition")(&err)
	action := permissions.Update
	if to == workflow.WOApproved {
		action = permissions.Approve
	}
	if err := r.c.check(p, action); err != nil {
		return nil, err
	}
	if to == workflow.WOOnHold {
		return r.hold(ctx, p, id, "")
	}
	op := r.c.op("transition")
	wo, err = r.c.mustFind(ctx, p, "", id, "transition")
	if err != nil {
		return nil, err
	}
	if wo.Status == workflow.WOOnHold && to != workflow.WOCancelled {
		return nil, apperr.NewConflict(op, fmt.Sprintf("work order %s is on hold; resume it first", wo.WONumber))
	}
	noop, err := workflow.WorkOrder.Step(wo.Status, to)
	if err != nil {
		return nil, apperr.NewConflict(op, err.Error())
	}
	if noop {
		return wo, nil
	}
	from := wo.Status
	wo.Status = to
	now := r.c.timestamp()
	switch to {
	case workflow.WOInProgress:
		if wo.ActualStartDate.IsZero() {
			wo.ActualStartDate = now
		}
	case workflow.WOCompleted:
		wo.ActualEndDate = now
	case workflow.WOCancelled:
		wo.HeldFrom = ""
	}
	if err := r.c.save(ctx, "transition", wo); err != nil {
		return nil, err
	}
	r.c.log.Debug("work order status changed",
		zap.String("wo", wo.WONumber), zap.String("from", string(from)), zap.String("to", string(to)))
	return wo, nil
}

// Hold parks a non-terminal work order and remembers where it was.
func (r *WorkOrderRepository) Hold(ctx context.Context, p permissions.Principal, id, reason string) (wo *models.WorkOrder, err error) {
	defer r.c.track(ctx, "hold")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.hold(ctx, p, id, reason)
}

func (r *WorkOrderRepository) hold(ctx context.Context, p permissions.Principal, id, reason string) (*models.WorkOrder, error) {
	wo, err := r.c.mustFind(ctx, p, "", id, "hold")
	if err != nil {
		return nil, err
	}
	noop, err := workflow.WorkOrder.Step(wo.Status, workflow.WOOnHold)
	if err != nil {
		return nil, apperr.NewConflict(r.c.op("hold"), err.Error())
	}
	if noop {
		return wo, nil
	}
	wo.HeldFrom = wo.Status
	wo.HoldReason = reason
	wo.Status = workflow.WOOnHold
	if err := r.c.save(ctx, "hold", wo); err != nil {
		return nil, err
	}
	return wo, nil
}

// Resume returns a held work order to the state it was held from.
func (r *WorkOrderRepository) Resume(ctx context.Context, p permissions.Principal, id string) (wo *models.WorkOrder, err error) {
	defer r.c.track(ctx, "resume")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	wo, err = r.c.mustFind(ctx, p, "", id, "resume")
	if err != nil {
		return nil, err
	}
	if wo.Status != workflow.WOOnHold {
		return nil, apperr.NewConflict(r.c.op("resume"), fmt.Sprintf("work order %s is %s, not on hold", wo.WONumber, wo.Status))
	}
	wo.Status = wo.HeldFrom
	if !workflow.WorkOrder.Valid(wo.Status) || wo.Status == workflow.WOOnHold {
		wo.Status = workflow.WOPending
	}
	wo.HeldFrom = ""
	wo.HoldReason = ""
	if err := r.c.save(ctx, "resume", wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (r *WorkOrderRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *WorkOrderRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.WorkOrderStats, error) {
	orders, err := r.List(ctx, p, WorkOrderFilter{ShipID: shipID})
	if err != nil {
		return stats.WorkOrderStats{}, err
	}
	return stats.WorkOrders(orders, r.c.now()), nil
}
