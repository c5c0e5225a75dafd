package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCategoriesRepo struct {
	categories map[uuid.UUID]*models.Category
	products   map[uuid.UUID]int64
}

func newStubCategoriesRepo(categories ...*models.Category) *stubCategoriesRepo {
	byID := map[uuid.UUID]*models.Category{}
	for _, c := range categories {
		byID[c.ID] = c
	}
	return &stubCategoriesRepo{categories: byID, products: map[uuid.UUID]int64{}}
}

func (r *stubCategoriesRepo) WithTx(tx *gorm.DB) CategoryRepository { return r }

func (r *stubCategoriesRepo) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *stubCategoriesRepo) Save(ctx context.Context, category *models.Category) error {
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *stubCategoriesRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	copied := *category
	return &copied, nil
}

func (r *stubCategoriesRepo) FindByName(ctx context.Context, name string) (*models.Category, error) {
	for _, category := range r.categories {
		if category.Name == name {
			copied := *category
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *stubCategoriesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.categories, id)
	return nil
}

func (r *stubCategoriesRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Category], error) {
	rows := []models.Category{}
	for _, category := range r.categories {
		rows = append(rows, *category)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubCategoriesRepo) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.products[id], nil
}

type stubAudit struct {
	entries []audit.Entry
}

func (a *stubAudit) WithTx(tx *gorm.DB) audit.Writer { return a }

func (a *stubAudit) Record(ctx context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *stubAudit) List(ctx context.Context, query audit.ListQuery) (*pagination.Page[models.ActivityLog], error) {
	return pagination.NewPage[models.ActivityLog](nil, query.Pagination, 0), nil
}

func TestCategoryCreateRejectsDuplicateName(t *testing.T) {
	repo := newStubCategoriesRepo(&models.Category{ID: uuid.New(), Name: "Electronics"})
	svc := NewCategoryService(stubTx{}, repo, &stubAudit{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), NameRequest{Name: "Electronics"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCategoryCreateAndRename(t *testing.T) {
	repo := newStubCategoriesRepo()
	auditLog := &stubAudit{}
	svc := NewCategoryService(stubTx{}, repo, auditLog, nil)
	actor := uuid.New()

	category, err := svc.Create(context.Background(), actor, NameRequest{Name: "Electronics"})
	require.NoError(t, err)

	renamed, err := svc.Update(context.Background(), actor, category.ID, NameRequest{Name: "Gadgets"})
	require.NoError(t, err)
	require.Equal(t, "Gadgets", renamed.Name)

	require.Len(t, auditLog.entries, 2)
	require.Equal(t, enums.ActivityActionCreate, auditLog.entries[0].Action)
	require.Equal(t, enums.ActivityActionUpdate, auditLog.entries[1].Action)
	require.Equal(t, enums.ActivitySubjectCategory, auditLog.entries[1].SubjectType)
}

func TestCategoryDeleteBlockedWhenAssigned(t *testing.T) {
	existing := &models.Category{ID: uuid.New(), Name: "Electronics"}
	repo := newStubCategoriesRepo(existing)
	repo.products[existing.ID] = 2
	svc := NewCategoryService(stubTx{}, repo, &stubAudit{}, nil)

	err := svc.Delete(context.Background(), uuid.New(), existing.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// the category row survives a refused delete
	require.Contains(t, repo.categories, existing.ID)
}

func TestCategoryDeleteRemovesUnassigned(t *testing.T) {
	existing := &models.Category{ID: uuid.New(), Name: "Electronics"}
	repo := newStubCategoriesRepo(existing)
	auditLog := &stubAudit{}
	svc := NewCategoryService(stubTx{}, repo, auditLog, nil)

	require.NoError(t, svc.Delete(context.Background(), uuid.New(), existing.ID))
	require.NotContains(t, repo.categories, existing.ID)
	require.Len(t, auditLog.entries, 1)
	require.Equal(t, enums.ActivityActionDelete, auditLog.entries[0].Action)
}

type stubUnitsRepo struct {
	units    map[uuid.UUID]*models.Unit
	products map[uuid.UUID]int64
}

func newStubUnitsRepo(units ...*models.Unit) *stubUnitsRepo {
	byID := map[uuid.UUID]*models.Unit{}
	for _, u := range units {
		byID[u.ID] = u
	}
	return &stubUnitsRepo{units: byID, products: map[uuid.UUID]int64{}}
}

func (r *stubUnitsRepo) WithTx(tx *gorm.DB) UnitRepository { return r }

func (r *stubUnitsRepo) Create(ctx context.Context, unit *models.Unit) error {
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	copied := *unit
	r.units[unit.ID] = &copied
	return nil
}

func (r *stubUnitsRepo) Save(ctx context.Context, unit *models.Unit) error {
	copied := *unit
	r.units[unit.ID] = &copied
	return nil
}

func (r *stubUnitsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	unit, ok := r.units[id]
	if !ok {
		return nil, nil
	}
	copied := *unit
	return &copied, nil
}

func (r *stubUnitsRepo) FindByName(ctx context.Context, name string) (*models.Unit, error) {
	for _, unit := range r.units {
		if unit.Name == name {
			copied := *unit
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *stubUnitsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.units, id)
	return nil
}

func (r *stubUnitsRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Unit], error) {
	rows := []models.Unit{}
	for _, unit := range r.units {
		rows = append(rows, *unit)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubUnitsRepo) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.products[id], nil
}

func TestUnitDeleteBlockedWhenAssigned(t *testing.T) {
	existing := &models.Unit{ID: uuid.New(), Name: "pcs"}
	repo := newStubUnitsRepo(existing)
	repo.products[existing.ID] = 1
	svc := NewUnitService(stubTx{}, repo, &stubAudit{}, nil)

	err := svc.Delete(context.Background(), uuid.New(), existing.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUnitCreateGetDelete(t *testing.T) {
	repo := newStubUnitsRepo()
	auditLog := &stubAudit{}
	svc := NewUnitService(stubTx{}, repo, auditLog, nil)
	actor := uuid.New()

	unit, err := svc.Create(context.Background(), actor, NameRequest{Name: "pcs"})
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), unit.ID)
	require.NoError(t, err)
	require.Equal(t, "pcs", fetched.Name)

	require.NoError(t, svc.Delete(context.Background(), actor, unit.ID))
	_, err = svc.Get(context.Background(), unit.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
