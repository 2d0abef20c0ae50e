package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/internal/status"
	"fleet/models"

	"go.uber.org/zap"
)

// maxMovements bounds the stock history kept on an item.
const maxMovements = 100

type InventoryFilter struct {
	Category string
	Status   status.StockStatus
}

type InventoryRepository struct {
	c     collection[models.InventoryItem, *models.InventoryItem]
	scope shipScope
}

func validateInventory(op string, in *models.InventoryInput) error {
	var v validator
	v.require(present(in.Name), "name")
	v.require(present(in.Unit), "unit")
	v.require(in.CurrentStock >= 0, "currentStock")
	v.require(in.MinimumStock >= 0, "minimumStock")
	v.require(in.ReorderPoint >= 0, "reorderPoint")
	v.require(!in.UnitPrice.IsNegative(), "unitPrice")
	return v.err(op)
}

func (r *InventoryRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.InventoryInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if err := validateInventory(r.c.op("create"), &in); err != nil {
		return "", err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("create")); err != nil {
		return "", err
	}
	item := &models.InventoryItem{InventoryInput: in}
	if err := r.c.insert(ctx, p, shipID, item); err != nil {
		return "", err
	}
	return item.ID, nil
}

func (r *InventoryRepository) Get(ctx context.Context, p permissions.Principal, shipID, id string) (item *models.InventoryItem, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("get")); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, shipID, id)
}

// List returns the ship's items ordered by name.
func (r *InventoryRepository) List(ctx context.Context, p permissions.Principal, shipID string, f InventoryFilter) (items []models.InventoryItem, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("list")); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, shipID)
	if err != nil {
		return nil, err
	}
	items = keep(all, func(it *models.InventoryItem) bool {
		return eq(f.Category, it.Category) && eq(f.Status, it.Status)
	})
	slices.SortStableFunc(items, func(a, b models.InventoryItem) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items, nil
}

func (r *InventoryRepository) Update(ctx context.Context, p permissions.Principal, shipID, id string, patch models.InventoryPatch) (item *models.InventoryItem, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("update")); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "update", patch.Version, func(it *models.InventoryItem) error {
		patch.Apply(&it.InventoryInput)
		return validateInventory(r.c.op("update"), &it.InventoryInput)
	})
}

// AdjustStock adds delta to the current stock and records the movement.
// Adjustments that would leave negative stock are rejected.
func (r *InventoryRepository) AdjustStock(ctx context.Context, p permissions.Principal, shipID, id string, delta int, reason string) (item *models.InventoryItem, err error) {
	defer r.c.track(ctx, "adjust_stock")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	op := r.c.op("adjust_stock")
	var v validator
	v.require(delta != 0, "delta")
	v.require(present(reason), "reason")
	if err := v.err(op); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, op); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "adjust_stock", nil, func(it *models.InventoryItem) error {
		next := it.CurrentStock + delta
		if next < 0 {
			return apperr.NewValidation(op,
				fmt.Sprintf("cannot remove %d %s, only %d in stock", -delta, it.Unit, it.CurrentStock), "delta")
		}
		it.CurrentStock = next
		it.Movements = append(it.Movements, models.StockMovement{
			Delta:  delta,
			Result: next,
			Reason: reason,
			By:     p.UserID,
			At:     r.c.timestamp(),
		})
		if n := len(it.Movements); n > maxMovements {
			it.Movements = slices.Clone(it.Movements[n-maxMovements:])
		}
		r.c.log.Debug("stock adjusted",
			zap.String("item", it.ID), zap.Int("delta", delta), zap.Int("stock", next))
		return nil
	})
}

func (r *InventoryRepository) Delete(ctx context.Context, p permissions.Principal, shipID, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("delete")); err != nil {
		return err
	}
	return r.c.remove(ctx, p, shipID, id)
}

func (r *InventoryRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.InventoryStats, error) {
	items, err := r.List(ctx, p, shipID, InventoryFilter{})
	if err != nil {
		return stats.InventoryStats{}, err
	}
	return stats.Inventory(items), nil
}
