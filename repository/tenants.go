package repository

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ShopModel is the Bun model for shops.
type ShopModel struct {
	bun.BaseModel `bun:"table:shops,alias:shp"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Domain      string    `bun:"domain,notnull,unique"`
	Name        string    `bun:"name,notnull"`
	ProductType string    `bun:"product_type,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

var errEmptyDomain = goerrors.New("shop domain is required", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// TenantRepository implements auth.TenantSource, shops are looked up by
// domain.
type TenantRepository struct {
	repo repository.Repository[*ShopModel]
	db   *bun.DB
}

var _ auth.TenantSource = (*TenantRepository)(nil)

// NewTenantRepository creates a new repository.
func NewTenantRepository(db *bun.DB) *TenantRepository {
	repo := repository.NewRepository[*ShopModel](db, repository.ModelHandlers[*ShopModel]{
		NewRecord: func() *ShopModel { return &ShopModel{} },
		GetID: func(m *ShopModel) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *ShopModel, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "domain"
		},
	})

	return &TenantRepository{repo: repo, db: db}
}

// FetchAllTenants implements auth.TenantSource.
func (r *TenantRepository) FetchAllTenants(ctx context.Context) ([]auth.TenantConfig, error) {
	var models []ShopModel
	if err := r.db.NewSelect().Model(&models).Order("domain ASC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "fetch shops")
	}

	out := make([]auth.TenantConfig, len(models))
	for i, m := range models {
		out[i] = toTenantConfig(m)
	}
	return out, nil
}

// Upsert inserts the shop or updates it when the domain exists
func (r *TenantRepository) Upsert(ctx context.Context, cfg auth.TenantConfig) error {
	return r.UpsertTx(ctx, r.db, cfg)
}

// UpsertTx is Upsert using tx
func (r *TenantRepository) UpsertTx(ctx context.Context, tx bun.IDB, cfg auth.TenantConfig) error {
	record := fromTenantConfig(cfg)
	if record.Domain == "" {
		return errEmptyDomain
	}

	existing, err := r.repo.GetByIdentifierTx(ctx, tx, record.Domain)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		_, err = r.repo.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
	case repository.IsRecordNotFound(err):
		record.ID = uuid.New()
		_, err = r.repo.CreateTx(ctx, tx, record)
	}

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "upsert shop")
	}
	return nil
}

// Delete removes the shop for domain
func (r *TenantRepository) Delete(ctx context.Context, domain string) error {
	_, err := r.db.NewDelete().
		Model((*ShopModel)(nil)).
		Where("domain = ?", auth.NormalizeDomain(domain)).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "delete shop")
	}
	return nil
}

func toTenantConfig(m ShopModel) auth.TenantConfig {
	return auth.TenantConfig{
		Domain:      m.Domain,
		Name:        m.Name,
		ProductType: m.ProductType,
	}
}

func fromTenantConfig(cfg auth.TenantConfig) *ShopModel {
	now := time.Now().UTC()
	return &ShopModel{
		Domain:      auth.NormalizeDomain(cfg.Domain),
		Name:        cfg.Name,
		ProductType: cfg.ProductType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
