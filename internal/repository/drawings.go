package repository

import (
	"context"

	"fleet/internal/permissions"
	"fleet/models"
)

type DrawingFilter struct {
	Category string
}

type DrawingRepository struct {
	c     collection[models.Drawing, *models.Drawing]
	scope shipScope
}

func validateDrawing(op string, in *models.DrawingInput) error {
	var v validator
	v.require(present(in.Title), "title")
	v.require(present(in.Category), "category")
	return v.err(op)
}

func (r *DrawingRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.DrawingInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if err := validateDrawing(r.c.op("create"), &in); err != nil {
		return "", err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("create")); err != nil {
		return "", err
	}
	d := &models.Drawing{DrawingInput: in}
	if err := r.c.insert(ctx, p, shipID, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (r *DrawingRepository) Get(ctx context.Context, p permissions.Principal, shipID, id string) (d *models.Drawing, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("get")); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, shipID, id)
}

func (r *DrawingRepository) List(ctx context.Context, p permissions.Principal, shipID string, f DrawingFilter) (ds []models.Drawing, err error) {
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
	return keep(all, func(d *models.Drawing) bool { return eq(f.Category, d.Category) }), nil
}

func (r *DrawingRepository) Update(ctx context.Context, p permissions.Principal, shipID, id string, patch models.DrawingPatch) (d *models.Drawing, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("update")); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "update", patch.Version, func(d *models.Drawing) error {
		patch.Apply(&d.DrawingInput)
		return validateDrawing(r.c.op("update"), &d.DrawingInput)
	})
}

func (r *DrawingRepository) Delete(ctx context.Context, p permissions.Principal, shipID, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("delete")); err != nil {
		return err
	}
	return r.c.remove(ctx, p, shipID, id)
}
