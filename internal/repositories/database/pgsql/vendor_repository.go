package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxVendorRepository struct {
	BaseRepository
}

func newPgxVendorRepository(db Querier) portsrepo.VendorRepositoryFacade {
	return &PgxVendorRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.VendorRepositoryFacade = (*PgxVendorRepository)(nil)

const vendorColumns = `vendor_id, organization_id, name, email, payment_terms_days, is_active,
		created_at, created_by, last_updated_at, last_updated_by`

func scanVendor(row pgx.Row) (domain.Vendor, error) {
	var v domain.Vendor
	err := row.Scan(&v.VendorID, &v.OrganizationID, &v.Name, &v.Email, &v.PaymentTermsDays, &v.IsActive,
		&v.CreatedAt, &v.CreatedBy, &v.LastUpdatedAt, &v.LastUpdatedBy)
	return v, err
}

func (r *PgxVendorRepository) SaveVendor(ctx context.Context, vendor domain.Vendor) error {
	query := `INSERT INTO vendors (` + vendorColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err := r.db.Exec(ctx, query,
		vendor.VendorID, vendor.OrganizationID, vendor.Name, vendor.Email, vendor.PaymentTermsDays, vendor.IsActive,
		vendor.CreatedAt, vendor.CreatedBy, vendor.LastUpdatedAt, vendor.LastUpdatedBy)
	return mapError(err, "save vendor "+vendor.Name)
}

func (r *PgxVendorRepository) FindVendorByID(ctx context.Context, organizationID, vendorID string) (*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE organization_id = $1 AND vendor_id = $2;`
	v, err := scanVendor(r.db.QueryRow(ctx, query, organizationID, vendorID))
	if err != nil {
		return nil, mapError(err, "find vendor "+vendorID)
	}
	return &v, nil
}

// FindVendorsByIDs returns the vendors that exist; missing IDs are simply absent.
func (r *PgxVendorRepository) FindVendorsByIDs(ctx context.Context, organizationID string, vendorIDs []string) (map[string]domain.Vendor, error) {
	vendors := make(map[string]domain.Vendor, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return vendors, nil
	}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE organization_id = $1 AND vendor_id = ANY($2);`
	rows, err := r.db.Query(ctx, query, organizationID, vendorIDs)
	if err != nil {
		return nil, mapError(err, "find vendors")
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, mapError(err, "scan vendor")
		}
		vendors[v.VendorID] = v
	}
	return vendors, mapError(rows.Err(), "iterate vendors")
}
