package repository

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/models"
)

var imoPattern = regexp.MustCompile(`^\d{7}$`)

type ShipFilter struct {
	Status models.ShipStatus
	Type   string
	Flag   string
}

type ShipRepository struct {
	c collection[models.Ship, *models.Ship]
}

func validateShip(op string, in *models.ShipInput) error {
	var v validator
	v.require(present(in.Name), "name")
	v.require(present(in.Type), "type")
	v.require(in.IMONumber == "" || imoPattern.MatchString(in.IMONumber), "imoNumber")
	v.require(in.Status.IsValid(), "status")
	v.require(in.YearBuilt >= 0, "yearBuilt")
	v.require(!in.GrossTonnage.IsNegative(), "grossTonnage")
	return v.err(op)
}

func (r *ShipRepository) Create(ctx context.Context, p permissions.Principal, in models.ShipInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Status == "" {
		in.Status = models.ShipActive
	}
	if err := validateShip(r.c.op("create"), &in); err != nil {
		return "", err
	}
	ship := &models.Ship{ShipInput: in}
	if err := r.c.insert(ctx, p, "", ship); err != nil {
		return "", err
	}
	return ship.ID, nil
}

// Get returns nil, nil when the ship does not exist in p's company.
func (r *ShipRepository) Get(ctx context.Context, p permissions.Principal, id string) (ship *models.Ship, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

// List returns the company's ships ordered by name.
func (r *ShipRepository) List(ctx context.Context, p permissions.Principal, f ShipFilter) (ships []models.Ship, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, "")
	if err != nil {
		return nil, err
	}
	ships = keep(all, func(s *models.Ship) bool {
		return eq(f.Status, s.Status) && eq(f.Type, s.Type) && eq(f.Flag, s.Flag)
	})
	slices.SortStableFunc(ships, func(a, b models.Ship) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return ships, nil
}

func (r *ShipRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.ShipPatch) (ship *models.Ship, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(s *models.Ship) error {
		patch.Apply(&s.ShipInput)
		return validateShip(r.c.op("update"), &s.ShipInput)
	})
}

// Delete removes the ship document only. Ship-scoped children are not
// cascaded; they become unreachable through the repositories.
func (r *ShipRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *ShipRepository) Stats(ctx context.Context, p permissions.Principal) (stats.ShipStats, error) {
	ships, err := r.List(ctx, p, ShipFilter{})
	if err != nil {
		return stats.ShipStats{}, err
	}
	return stats.Ships(ships), nil
}

// shipScope guards repositories whose documents live under a ship.
type shipScope struct {
	ships collection[models.Ship, *models.Ship]
}

// require fails with a validation error for an empty id and a not found
// error when the ship is absent from p's company.
func (s shipScope) require(ctx context.Context, p permissions.Principal, shipID, op string) error {
	if !present(shipID) {
		return apperr.NewValidation(op, "ship is required", "shipId")
	}
	ship, err := s.ships.find(ctx, p, "", shipID)
	if err != nil {
		return err
	}
	if ship == nil {
		return apperr.NewNotFound(op, "ship", shipID)
	}
	return nil
}

// optional is require for entities that may exist without a ship.
func (s shipScope) optional(ctx context.Context, p permissions.Principal, shipID, op string) error {
	if shipID == "" {
		return nil
	}
	return s.require(ctx, p, shipID, op)
}
