package repository

import (
	"context"
	"slices"
	"strings"

	"fleet/internal/permissions"
	"fleet/internal/stats"
	"fleet/models"
)

type CrewFilter struct {
	Department models.Department
	Status     models.CrewStatus
	Rank       string
}

type CrewRepository struct {
	c     collection[models.CrewMember, *models.CrewMember]
	scope shipScope
}

func validateCrew(op string, in *models.CrewInput) error {
	var v validator
	v.require(present(in.FirstName), "firstName")
	v.require(present(in.LastName), "lastName")
	v.require(present(in.Rank), "rank")
	v.require(in.Department.IsValid(), "department")
	v.require(in.Status.IsValid(), "status")
	v.require(ordered(in.JoinDate, in.ContractEndDate), "contractEndDate")
	return v.err(op)
}

func (r *CrewRepository) Create(ctx context.Context, p permissions.Principal, shipID string, in models.CrewInput) (id string, err error) {
	defer r.c.track(ctx, "create")(&err)
	if err := r.c.check(p, permissions.Create); err != nil {
		return "", err
	}
	if in.Department == "" {
		in.Department = models.DepartmentOther
	}
	if in.Status == "" {
		in.Status = models.CrewOnboard
	}
	if err := validateCrew(r.c.op("create"), &in); err != nil {
		return "", err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("create")); err != nil {
		return "", err
	}
	member := &models.CrewMember{CrewInput: in}
	if err := r.c.insert(ctx, p, shipID, member); err != nil {
		return "", err
	}
	return member.ID, nil
}

func (r *CrewRepository) Get(ctx context.Context, p permissions.Principal, shipID, id string) (member *models.CrewMember, err error) {
	defer r.c.track(ctx, "get")(&err)
	if err := r.c.check(p, permissions.View); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("get")); err != nil {
		return nil, err
	}
	return r.c.find(ctx, p, shipID, id)
}

// List returns the ship's crew ordered by last name, then first name.
func (r *CrewRepository) List(ctx context.Context, p permissions.Principal, shipID string, f CrewFilter) (crew []models.CrewMember, err error) {
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
	crew = keep(all, func(m *models.CrewMember) bool {
		return eq(f.Department, m.Department) && eq(f.Status, m.Status) && eq(f.Rank, m.Rank)
	})
	slices.SortStableFunc(crew, func(a, b models.CrewMember) int {
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
	})
	return crew, nil
}

func (r *CrewRepository) Update(ctx context.Context, p permissions.Principal, shipID, id string, patch models.CrewPatch) (member *models.CrewMember, err error) {
	defer r.c.track(ctx, "update")(&err)
	if err := r.c.check(p, permissions.Update); err != nil {
		return nil, err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("update")); err != nil {
		return nil, err
	}
	return r.c.modify(ctx, p, shipID, id, "update", patch.Version, func(m *models.CrewMember) error {
		patch.Apply(&m.CrewInput)
		return validateCrew(r.c.op("update"), &m.CrewInput)
	})
}

func (r *CrewRepository) Delete(ctx context.Context, p permissions.Principal, shipID, id string) (err error) {
	defer r.c.track(ctx, "delete")(&err)
	if err := r.c.check(p, permissions.Delete); err != nil {
		return err
	}
	if err := r.scope.require(ctx, p, shipID, r.c.op("delete")); err != nil {
		return err
	}
	return r.c.remove(ctx, p, shipID, id)
}

func (r *CrewRepository) Stats(ctx context.Context, p permissions.Principal, shipID string) (stats.CrewStats, error) {
	crew, err := r.List(ctx, p, shipID, CrewFilter{})
	if err != nil {
		return stats.CrewStats{}, err
	}
	return stats.Crew(crew, r.c.now()), nil
}
