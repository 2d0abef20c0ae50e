package repository

import (
	"context"

	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/internal/status"
	"fleet/models"
)

type CertificateFilter struct {
	Type   string
	Status status.CertificateStatus
}

// CertificateRepository stores ship certificates. The status is derived from
// the expiry date on every read and write; callers cannot set it.
type CertificateRepository struct {
	c     collection[models.Certificate, *models.Certificate]
	scope shipScope
}

func validateCertificate(op string, in *models.CertificateInput) error {
	var v validator
	v.require(present(in.Name), "name")
	v.require(present(in.Type), "type")
	v.require(in.Reminder() >= 0, "reminderDays")
	v.require(ordered(in.IssueDate, in.ExpiryDate), "expiryDate")
	return v.err(op)
}

func (r *CertificateRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.CertificateInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.ReminderDays == nil {
		days := models.DefaultReminderDays
		in.ReminderDays = &days
	}
	if err := validateCertificate(r.c.op("create"), &in); err != nil {
		return "", err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("create")); err != nil {
		return "", err
	}
	cert := &models.Certificate{CertificateInput: in}
	if err := r.c.insert(ctx, p, shipID, cert); err != nil {
		return "", err
	}
	return cert.ID, nil
}

func (r *CertificateRepository) Get(ctx context.Context, p permissions.Principal, shipID, id string) (cert *models.Certificate, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("get")); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, shipID, id)
}

func (r *CertificateRepository) List(ctx context.Context, p permissions.Principal, shipID string, f CertificateFilter) (certs []models.Certificate, err error) {
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
	return keep(all, func(c *models.Certificate) bool {
		return eq(f.Type, c.Type) && eq(f.Status, c.Status)
	}), nil
}

func (r *CertificateRepository) Update(ctx context.Context, p permissions.Principal, shipID, id string, patch models.CertificatePatch) (cert *models.Certificate, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("update")); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "update", patch.Version, func(c *models.Certificate) error {
		patch.Apply(&c.CertificateInput)
		return validateCertificate(r.c.op("update"), &c.CertificateInput)
	})
}

func (r *CertificateRepository) Delete(ctx context.Context, p permissions.Principal, shipID, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("delete")); err != nil {
		return err
	}
	return r.c.remove(ctx, p, shipID, id)
}

func (r *CertificateRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.CertificateStats, error) {
	certs, err := r.List(ctx, p, shipID, CertificateFilter{})
	if err != nil {
		return stats.CertificateStats{}, err
	}
	return stats.Certificates(certs, r.c.now()), nil
}
