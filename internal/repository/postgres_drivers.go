package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const driverColumns = `driver_id, name, medical_condition, risk_window, active, created_at`

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var (
		d          domain.Driver
		medical    sql.NullString
		riskWindow sql.NullString
	)
	if err := row.Scan(&d.DriverID, &d.Name, &medical, &riskWindow, &d.Active, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.MedicalCondition = strPtr(medical)
	d.RiskWindow = strPtr(riskWindow)
	return &d, nil
}

func (s *PostgresStore) CreateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error) {
	if d.DriverID == "" {
		d.DriverID = uuid.NewString()
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO drivers (driver_id, name, medical_condition, risk_window, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+driverColumns,
		d.DriverID, d.Name, nullString(d.MedicalCondition), nullString(d.RiskWindow), d.Active,
	)
	created, err := scanDriver(row)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, fmt.Errorf("%w: driver %s already exists", domain.ErrConflict, d.DriverID)
		}
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.logger.Debug("Driver created", zap.String("driver_id", created.DriverID))
	return created, nil
}

func (s *PostgresStore) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE driver_id = $1`, driverID)
	d, err := scanDriver(row)
	if err != nil {
		return nil, lookupErr(err, "driver", driverID)
	}
	return d, nil
}

func (s *PostgresStore) ListDrivers(ctx context.Context, filter DriverFilter) ([]domain.Driver, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	q := `SELECT ` + driverColumns + ` FROM drivers`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at, driver_id`
	page, args := pageClause(filter.Page, args)
	q += page

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateDriver(ctx context.Context, driverID string, patch DriverPatch) (*domain.Driver, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE drivers SET
		   name = COALESCE($2::varchar, name),
		   medical_condition = COALESCE($3::text, medical_condition),
		   risk_window = COALESCE($4::text, risk_window),
		   active = COALESCE($5::boolean, active)
		 WHERE driver_id = $1
		 RETURNING `+driverColumns,
		driverID, nullString(patch.Name), nullString(patch.MedicalCondition), nullString(patch.RiskWindow), nullBool(patch.Active),
	)
	d, err := scanDriver(row)
	if err != nil {
		return nil, lookupErr(err, "driver", driverID)
	}
	return d, nil
}

func (s *PostgresStore) DeleteDriver(ctx context.Context, driverID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drivers WHERE driver_id = $1`, driverID)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: driver %s has trips", domain.ErrConflict, driverID)
		case pqInvalidTextRepr:
			return fmt.Errorf("driver %s: %w", driverID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("driver %s: %w", driverID, domain.ErrNotFound)
	}
	return nil
}
