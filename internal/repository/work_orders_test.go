package repository_test

import (
	"context"
	"testing"

	"fleet/internal/apperr"
	"fleet/internal/repository"
	"fleet/internal/workflow"
	"fleet/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func workOrder() models.WorkOrderInput {
	return models.WorkOrderInput{
		Title:              "Overhaul main engine",
		Type:               "maintenance",
		Priority:           models.PriorityHigh,
		AssignedTo:         []string{"chief-engineer"},
		ScheduledStartDate: now.AddDate(0, 0, -10),
		ScheduledEndDate:   now.AddDate(0, 0, -1),
		EstimatedCost:      decimal.RequireFromString("12500"),
	}
}

func TestWorkOrderCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shipID := f.ship(t, "Worker")

	id, err := f.repos.WorkOrders.Create(ctx, f.procurement, shipID, workOrder(), false)
	require.NoError(t, err)
	wo, err := f.repos.WorkOrders.Get(ctx, f.viewer, id)
	require.NoError(t, err)
	require.Equal(t, "WO-202610-000001", wo.WONumber)
	require.Equal(t, workflow.WOPending, wo.Status)
	require.Equal(t, shipID, wo.ShipID)
	require.True(t, wo.Overdue)
	requireDecimal(t, "12500", wo.EstimatedCost)

	in := workOrder()
	in.ScheduledEndDate = in.ScheduledStartDate.AddDate(0, 0, -1)
	in.EstimatedCost = decimal.NewFromInt(-1)
	in.Title = ""
	_, err = f.repos.WorkOrders.Create(ctx, f.procurement, shipID, in, false)
	requireKind(t, apperr.KindValidation, err)
	require.ElementsMatch(t, []string{"title", "scheduledEndDate", "estimatedCost"}, apperr.FieldsOf(err))

	in = workOrder()
	in.VendorID = "ghost"
	_, err = f.repos.WorkOrders.Create(ctx, f.procurement, shipID, in, false)
	requireKind(t, apperr.KindNotFound, err)

	in = workOrder()
	in.RequisitionID = "ghost"
	_, err = f.repos.WorkOrders.Create(ctx, f.procurement, "", in, true)
	requireKind(t, apperr.KindNotFound, err)

	orders, err := f.repos.WorkOrders.List(ctx, f.viewer, repository.WorkOrderFilter{AssignedTo: "chief-engineer"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestWorkOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.repos.WorkOrders.Create(ctx, f.procurement, "", workOrder(), false)
	require.NoError(t, err)

	_, err = f.repos.WorkOrders.Transition(ctx, f.finance, id, workflow.WOApproved)
	requireKind(t, apperr.KindAuthorization, err)

	_, err = f.repos.WorkOrders.Transition(ctx, f.admin, id, workflow.WOApproved)
	require.NoError(t, err)

	wo, err := f.repos.WorkOrders.Transition(ctx, f.procurement, id, workflow.WOInProgress)
	require.NoError(t, err)
	require.True(t, wo.ActualStartDate.Equal(now))

	wo, err = f.repos.WorkOrders.Hold(ctx, f.procurement, id, "waiting for parts")
	require.NoError(t, err)
	require.Equal(t, workflow.WOOnHold, wo.Status)
	require.Equal(t, workflow.WOInProgress, wo.HeldFrom)
	require.Equal(t, "waiting for parts", wo.HoldReason)

	_, err = f.repos.WorkOrders.Transition(ctx, f.procurement, id, workflow.WOCompleted)
	requireKind(t, apperr.KindConflict, err)

	wo, err = f.repos.WorkOrders.Resume(ctx, f.procurement, id)
	require.NoError(t, err)
	require.Equal(t, workflow.WOInProgress, wo.Status)
	require.Empty(t, wo.HeldFrom)

	_, err = f.repos.WorkOrders.Resume(ctx, f.procurement, id)
	requireKind(t, apperr.KindConflict, err)

	wo, err = f.repos.WorkOrders.Transition(ctx, f.procurement, id, workflow.WOCompleted)
	require.NoError(t, err)
	require.Equal(t, workflow.WOCompleted, wo.Status)
	require.True(t, wo.ActualEndDate.Equal(now))
	require.False(t, wo.Overdue)

	_, err = f.repos.WorkOrders.Hold(ctx, f.procurement, id, "")
	requireKind(t, apperr.KindConflict, err)

	title := "Renamed"
	_, err = f.repos.WorkOrders.Update(ctx, f.procurement, id, models.WorkOrderPatch{Title: &title})
	requireKind(t, apperr.KindConflict, err)
}

func TestWorkOrderCancelWhileHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.repos.WorkOrders.Create(ctx, f.procurement, "", workOrder(), true)
	require.NoError(t, err)

	wo, err := f.repos.WorkOrders.Transition(ctx, f.procurement, id, workflow.WOOnHold)
	require.NoError(t, err)
	require.Equal(t, workflow.WODraft, wo.HeldFrom)

	wo, err = f.repos.WorkOrders.Transition(ctx, f.procurement, id, workflow.WOCancelled)
	require.NoError(t, err)
	require.Equal(t, workflow.WOCancelled, wo.Status)
	require.Empty(t, wo.HeldFrom)

	st, err := f.repos.WorkOrders.Stats(ctx, f.viewer, "")
	require.NoError(t, err)
	require.Equal(t, 1, st.Total)
	require.Equal(t, 0, st.Overdue)
	require.Equal(t, 1, st.ByStatus["cancelled"])
}
