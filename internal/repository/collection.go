package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet/db"
	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/refnum"
	"fleet/models"

	"go.uber.org/zap"
)

type entity[T any] interface {
	*T
	Metadata() *models.Meta
}

// collection stores one entity kind as JSON documents. The document columns
// are authoritative for id, tenancy, version and timestamps.
type collection[T any, P entity[T]] struct {
	*env
	name     string
	resource permissions.Resource
	label    string
}

func newCollection[T any, P entity[T]](e *env, name string, resource permissions.Resource, label string) collection[T, P] {
	return collection[T, P]{env: e, name: name, resource: resource, label: label}
}

func (c collection[T, P]) op(action string) string { return c.name + "." + action }

func (c collection[T, P]) check(p permissions.Principal, action permissions.Action) error {
	return permissions.Check(p, action, c.resource)
}

// timestamp is the current time at the store's millisecond precision.
func (c collection[T, P]) timestamp() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

// track starts timing action. The returned func is deferred with the
// operation's named error result.
func (c collection[T, P]) track(ctx context.Context, action string) func(*error) {
	start := time.Now()
	op := c.op(action)
	return func(errp *error) {
		err := *errp
		c.metrics.Observe(ctx, op, err == nil, time.Since(start))
		if err != nil && apperr.KindOf(err) == apperr.KindStore {
			c.log.Error("store failure", zap.String("op", op), zap.Error(err))
		}
	}
}

func (c collection[T, P]) derive(v P) {
	switch d := any(v).(type) {
	case interface{ Derive(time.Time) }:
		d.Derive(c.now())
	case interface{ Derive() }:
		d.Derive()
	}
}

func (c collection[T, P]) decode(d *db.Document) (P, error) {
	v := P(new(T))
	if err := json.Unmarshal(d.Payload, v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", c.label, d.ID, err)
	}
	m := v.Metadata()
	m.ID = d.ID
	m.CompanyID = d.CompanyID
	m.ShipID = d.ParentID
	m.Version = d.Version
	m.CreatedAt = time.UnixMilli(d.CreatedMS).UTC()
	m.UpdatedAt = time.UnixMilli(d.UpdatedMS).UTC()
	c.derive(v)
	return v, nil
}

func (c collection[T, P]) document(v P) (*db.Document, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := v.Metadata()
	return &db.Document{
		Collection: c.name,
		ID:         m.ID,
		CompanyID:  m.CompanyID,
		ParentID:   m.ShipID,
		Payload:    payload,
		Version:    m.Version,
		CreatedMS:  m.CreatedAt.UnixMilli(),
		UpdatedMS:  m.UpdatedAt.UnixMilli(),
	}, nil
}

// insert stamps metadata on v and stores it as version 1.
func (c collection[T, P]) insert(ctx context.Context, p permissions.Principal, shipID string, v P) error {
	now := c.timestamp()
	*v.Metadata() = models.Meta{
		ID:        c.newID(),
		CompanyID: p.CompanyID,
		ShipID:    shipID,
		Version:   1,
		CreatedBy: p.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.derive(v)
	doc, err := c.document(v)
	if err != nil {
		return apperr.WrapStore(c.op("create"), err)
	}
	if err := c.store.InsertDocument(ctx, doc); err != nil {
		return apperr.WrapStore(c.op("create"), err)
	}
	return nil
}

// find returns the entity or nil when it is absent, belongs to another
// company or, for a non-empty shipID, to another ship.
func (c collection[T, P]) find(ctx context.Context, p permissions.Principal, shipID, id string) (P, error) {
	d, err := c.store.GetDocument(ctx, c.name, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.WrapStore(c.op("get"), err)
	}
	if d.CompanyID != p.CompanyID || (shipID != "" && d.ParentID != shipID) {
		return nil, nil
	}
	v, err := c.decode(d)
	if err != nil {
		return nil, apperr.WrapStore(c.op("get"), err)
	}
	return v, nil
}

func (c collection[T, P]) mustFind(ctx context.Context, p permissions.Principal, shipID, id, action string) (P, error) {
	v, err := c.find(ctx, p, shipID, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.NewNotFound(c.op(action), c.label, id)
	}
	return v, nil
}

// all lists the company's entities, newest first. shipID narrows to one ship.
func (c collection[T, P]) all(ctx context.Context, p permissions.Principal, shipID string) ([]T, error) {
	docs, err := c.store.ListDocuments(ctx, db.Query{Collection: c.name, CompanyID: p.CompanyID, ParentID: shipID})
	if err != nil {
		return nil, apperr.WrapStore(c.op("list"), err)
	}
	out := make([]T, 0, len(docs))
	for i := range docs {
		v, err := c.decode(&docs[i])
		if err != nil {
			return nil, apperr.WrapStore(c.op("list"), err)
		}
		out = append(out, *v)
	}
	return out, nil
}

// save writes v back with compare-and-swap on the version it was read at.
func (c collection[T, P]) save(ctx context.Context, action string, v P) error {
	m := v.Metadata()
	expected := m.Version
	m.Version++
	m.UpdatedAt = c.timestamp()
	c.derive(v)

	doc, err := c.document(v)
	if err != nil {
		m.Version = expected
		return apperr.WrapStore(c.op(action), err)
	}
	err = c.store.UpdateDocument(ctx, doc, expected)
	if err == nil {
		return nil
	}
	m.Version = expected
	switch {
	case errors.Is(err, db.ErrVersionMismatch):
		return apperr.NewConflict(c.op(action), fmt.Sprintf("%s %q was modified concurrently", c.label, m.ID))
	case errors.Is(err, db.ErrNotFound):
		return apperr.NewNotFound(c.op(action), c.label, m.ID)
	default:
		return apperr.WrapStore(c.op(action), err)
	}
}

// modify loads an entity, checks the caller's expected version, applies
// mutate and saves the result.
func (c collection[T, P]) modify(ctx context.Context, p permissions.Principal, shipID, id, action string,
	expected *int64, mutate func(P) error) (P, error) {
	v, err := c.mustFind(ctx, p, shipID, id, action)
	if err != nil {
		return nil, err
	}
	if current := v.Metadata().Version; expected != nil && *expected != current {
		return nil, apperr.NewConflict(c.op(action),
			fmt.Sprintf("%s %q is at version %d, not %d", c.label, id, current, *expected))
	}
	if err := mutate(v); err != nil {
		return nil, err
	}
	if err := c.save(ctx, action, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c collection[T, P]) remove(ctx context.Context, p permissions.Principal, shipID, id string) error {
	if _, err := c.mustFind(ctx, p, shipID, id, "delete"); err != nil {
		return err
	}
	err := c.store.DeleteDocument(ctx, c.name, id)
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NewNotFound(c.op("delete"), c.label, id)
	}
	if err != nil {
		return apperr.WrapStore(c.op("delete"), err)
	}
	return nil
}

// mint draws the next reference number. A failed write after minting burns
// the number; callers must not retry blindly.
func (c collection[T, P]) mint(ctx context.Context, p permissions.Principal, kind refnum.Kind) (string, error) {
	n, err := c.minter.Next(ctx, p.CompanyID, kind)
	if err != nil {
		return "", apperr.WrapStore(c.op("create"), err)
	}
	return n, nil
}
