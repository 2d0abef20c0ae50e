package repository

import (
	"context"

	"fleet/internal/apperr"
	"fleet/internal/permissions"
	"fleet/internal/refnum"
	"fleet/internal/stats"
	"fleet/models"
)

type AuditFilter struct {
	ShipID string
	Type   models.AuditType
	Status models.AuditStatus
}

type AuditRepository struct {
	c     collection[models.AuditReport, *models.AuditReport]
	scope shipScope
}

func validateAudit(op string, in *models.AuditInput) error {
	var v validator
	v.require(present(in.Title), "title")
	v.require(in.Type.IsValid(), "type")
	v.require(in.Status.IsValid(), "status")
	v.require(ordered(in.AuditDate, in.NextAuditAt), "nextAuditAt")
	return v.err(op)
}

func validateFinding(op string, in *models.FindingInput) error {
	var v validator
	v.require(present(in.Description), "description")
	v.require(in.Severity.IsValid(), "severity")
	return v.err(op)
}

// Create stores an audit report with a fresh AUD number. shipID is optional.
func (r *AuditRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.AuditInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Status == "" {
		in.Status = models.AuditScheduled
	}
	op := r.c.op("create")
	if err := validateAudit(op, &in); err != nil {
		return "", err
	}
	if err := r.scope.optional(ctx, p, shipID, op); err != nil {
		return "", err
	}
	number, err := r.c.mint(ctx, p, refnum.Audit)
	if err != nil {
		return "", err
	}
	report := &models.AuditReport{AuditInput: in, AuditNumber: number}
	if err := r.c.insert(ctx, p, shipID, report); err != nil {
		return "", err
	}
	return report.ID, nil
}

func (r *AuditRepository) Get(ctx context.Context, p permissions.Principal, id string) (report *models.AuditReport, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *AuditRepository) List(ctx context.Context, p permissions.Principal, f AuditFilter) (reports []models.AuditReport, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, f.ShipID)
	if err != nil {
		return nil, err
	}
	return keep(all, func(a *models.AuditReport) bool {
		return eq(f.Type, a.Type) && eq(f.Status, a.Status)
	}), nil
}

func (r *AuditRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.AuditPatch) (report *models.AuditReport, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(a *models.AuditReport) error {
		patch.Apply(&a.AuditInput)
		return validateAudit(r.c.op("update"), &a.AuditInput)
	})
}

// AddFinding appends an open finding to the report.
func (r *AuditRepository) AddFinding(ctx context.Context, p permissions.Principal, id string, in models.FindingInput) (report *models.AuditReport, err error) {
	defer r.c.track(ctx, "add_finding")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := validateFinding(r.c.op("add_finding"), &in); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "add_finding", nil, func(a *models.AuditReport) error {
		a.Findings = append(a.Findings, models.Finding{ID: r.c.newID(), FindingInput: in})
		return nil
	})
}

// CloseFinding closes one finding. Closing a closed finding changes nothing.
func (r *AuditRepository) CloseFinding(ctx context.Context, p permissions.Principal, id, findingID string) (report *models.AuditReport, err error) {
	defer r.c.track(ctx, "close_finding")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	report, err = r.c.mustFind(ctx, p, "", id, "close_finding")
	if err != nil {
		return nil, err
	}
	for i := range report.Findings {
		f := &report.Findings[i]
		if f.ID != findingID {
			continue
		}
		if f.Closed {
			return report, nil
		}
		f.Closed = true
		f.ClosedBy = p.UserID
		f.ClosedAt = r.c.timestamp()
		if err := r.c.save(ctx, "close_finding", report); err != nil {
			return nil, err
		}
		return report, nil
	}
	return nil, apperr.NewNotFound(r.c.op("close_finding"), "finding", findingID)
}

func (r *AuditRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *AuditRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.AuditStats, error) {
	reports, err := r.List(ctx, p, AuditFilter{ShipID: shipID})
	if err != nil {
		return stats.AuditStats{}, err
	}
	return stats.Audits(reports), nil
}
