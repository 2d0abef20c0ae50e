package repository

import (
	"context"
	"net/mail"

	"fleet/internal/permissions"
	"fleet/internal/refnum"
	"fleet/internal/stats"
	"fleet/models"
)

type VendorFilter struct {
	Status   models.VendorStatus
	Category string
}

// VendorRepository stores vendors. Moving a vendor out of pending approval
// needs the approve permission.
type VendorRepository struct {
	c collection[models.Vendor, *models.Vendor]
}

func validateVendor(op string, in *models.VendorInput) error {
	var v validator
	v.require(present(in.Name), "name")
	v.require(in.Status.IsValid(), "status")
	if in.Contact.Email != "" {
		_, err := mail.ParseAddress(in.Contact.Email)
		v.require(err == nil, "contact.email")
	}
	return v.err(op)
}

func (r *VendorRepository) Create(ctx context.Context, p permissions.Principal, in models.VendorInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Status == "" {
		in.Status = models.VendorPendingApproval
	}
	if in.Status != models.VendorPendingApproval {
		if err := r.c.check(p, permissions.Approve); err != nil {
			return "", err
		}
	}
	if err := validateVendor(r.c.op("create"), &in); err != nil {
		return "", err
	}
	code, err := r.c.mint(ctx, p, refnum.Vendor)
	if err != nil {
		return "", err
	}
	vendor := &models.Vendor{VendorInput: in, VendorCode: code}
	if err := r.c.insert(ctx, p, "", vendor); err != nil {
		return "", err
	}
	return vendor.ID, nil
}

func (r *VendorRepository) Get(ctx context.Context, p permissions.Principal, id string) (vendor *models.Vendor, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, "", id)
}

func (r *VendorRepository) List(ctx context.Context, p permissions.Principal, f VendorFilter) (vendors []models.Vendor, err error) {
	defer r.c.track(ctx, "list")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	all, err := r.c.all(ctx, p, "")
	if err != nil {
		return nil, err
	}
	return keep(all, func(v *models.Vendor) bool {
		return eq(f.Status, v.Status) && (f.Category == "" || contains(v.Categories, f.Category))
	}), nil
}

func (r *VendorRepository) Update(ctx context.Context, p permissions.Principal, id string, patch models.VendorPatch) (vendor *models.Vendor, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, "", id, "update", patch.Version, func(v *models.Vendor) error {
		if patch.Status != nil && *patch.Status != v.Status {
			if err := r.c.check(p, permissions.Approve); err != nil {
				return err
			}
		}
		patch.Apply(&v.VendorInput)
		return validateVendor(r.c.op("update"), &v.VendorInput)
	})
}

func (r *VendorRepository) Delete(ctx context.Context, p permissions.Principal, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	return r.c.remove(ctx, p, "", id)
}

func (r *VendorRepository) Stats(ctx context.Context, p permissions.Principal) (stats.VendorStats, error) {
	vendors, err := r.List(ctx, p, VendorFilter{})
	if err != nil {
		return stats.VendorStats{}, err
	}
	return stats.Vendors(vendors, r.c.now()), nil
}
