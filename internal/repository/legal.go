package repository

import (
	"context"

	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/internal/status"
	"fleet/models"
)

type LegalDocumentFilter struct {
	Type   models.LegalType
	Status models.LegalStatus
	Expiry status.ExpiryBadge
}

type LegalDocumentRepository struct {
	c collection[models.LegalDocument, *models.LegalDocument]
}

func validateLegal(op string, in *models.LegalInput) error {
	var v validator
	v.require(present(in.Title), "title")
	v.require(in.Type.IsValid(), "type")
	v.require(in.Status.IsValid(), "status")
	v.require(in.Reminder() >= 0, "reminderDays")
	v.require(ordered(in.EffectiveDate, in.ExpiryDate), "expiryDate")
	return v.err(op)
}

func (r *LegalDocumentRepository) Create(ctx context.Context, p permissions.Principal, in models.LegalInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Status == "" {
		in.Status = models.LegalDraft
	}
	if in.ReminderDays == nil {
		days := models.DefaultReminderDays
		in.ReminderDays = &days
	}
	if err := validateLegal(r.c.op("create"), &in); err != nil {
		return "", err
	}
	doc := &models.LegalDocument{LegalInput: in}
	if err := r.c.insert(ctx, p, "", doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (r *LegalDocumentRepository) Get(ctx context.Context, p permissions.Principal, id string) (doc *models.LegalDocument, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *LegalDocumentRepository) List(ctx context.Context, p permissions.Principal, f LegalDocumentFilter) (docs []models.LegalDocument, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, "")
	if err != nil {
		return nil, err
	}
	return keep(all, func(d *models.LegalDocument) bool {
		return eq(f.Type, d.Type) && eq(f.Status, d.Status) && eq(f.Expiry, d.Expiry)
	}), nil
}

func (r *LegalDocumentRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.LegalPatch) (doc *models.LegalDocument, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(d *models.LegalDocument) error {
		patch.Apply(&d.LegalInput)
		return validateLegal(r.c.op("update"), &d.LegalInput)
	})
}

func (r *LegalDocumentRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *LegalDocumentRepository) Stats(ctx context.Context, p permissions.Principal) (stats.LegalStats, error) {
	docs, err := r.List(ctx, p, LegalDocumentFilter{})
	if err != nil {
		return stats.LegalStats{}, err
	}
	return stats.LegalDocuments(docs, r.c.now()), nil
}
