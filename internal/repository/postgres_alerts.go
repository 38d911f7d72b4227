package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/common/database"
	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const alertColumns = `alert_id, trip_id, triggered_at, alert_kind, severity`

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var (
		a        domain.Alert
		kind     string
		severity sql.NullString
	)
	if err := row.Scan(&a.AlertID, &a.TripID, &a.TriggeredAt, &kind, &severity); err != nil {
		return nil, err
	}
	a.Kind = domain.AlertKind(kind)
	if severity.Valid {
		a.Severity = domain.Severity(severity.String)
	}
	return &a, nil
}

func nullSeverity(s domain.Severity) interface{} {
	if s == "" {
		return nil
	}
	return string(s)
}

const insertAlertSQL = `INSERT INTO alerts (` + alertColumns + `) VALUES ($1, $2, $3, $4, $5)`

// PersistAlerts writes every descriptor in one transaction; on any failure
// none are stored.
func (s *PostgresStore) PersistAlerts(ctx context.Context, tripID string, at time.Time, descriptors []domain.AlertDescriptor) ([]domain.Alert, error) {
	if len(descriptors) == 0 {
		return []domain.Alert{}, nil
	}

	out := make([]domain.Alert, 0, len(descriptors))
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		for _, d := range descriptors {
			a := domain.Alert{
				AlertID:     uuid.NewString(),
				TripID:      tripID,
				TriggeredAt: at,
				Kind:        d.Kind,
				Severity:    d.Severity,
			}
			if _, err := tx.ExecContext(ctx, insertAlertSQL,
				a.AlertID, a.TripID, a.TriggeredAt, string(a.Kind), nullSeverity(a.Severity)); err != nil {
				if code := pqCode(err); code == pqForeignKeyViolation || code == pqInvalidTextRepr {
					return fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
				}
				return fmt.Errorf("failed to insert alert %s: %w", a.Kind, err)
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Alerts persisted",
		zap.String("trip_id", tripID),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (s *PostgresStore) CreateAlert(ctx context.Context, a domain.Alert) (*domain.Alert, error) {
	if a.AlertID == "" {
		a.AlertID = uuid.NewString()
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertAlertSQL,
		a.AlertID, a.TripID, a.TriggeredAt, string(a.Kind), nullSeverity(a.Severity))
	if err != nil {
		if code := pqCode(err); code == pqForeignKeyViolation || code == pqInvalidTextRepr {
			return nil, fmt.Errorf("trip %s: %w", a.TripID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) GetAlert(ctx context.Context, alertID string) (*domain.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE alert_id = $1`, alertID)
	a, err := scanAlert(row)
	if err != nil {
		return nil, lookupErr(err, "alert", alertID)
	}
	return a, nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]domain.Alert, error) {
	var args []interface{}
	q := `SELECT ` + alertColumns + ` FROM alerts`
	if filter.TripID != "" {
		args = append(args, filter.TripID)
		q += ` WHERE trip_id = $1`
	}
	q += ` ORDER BY triggered_at DESC, alert_id`
	page, args := pageClause(filter.Page, args)
	q += page

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if pqCode(err) == pqInvalidTextRepr {
			return []domain.Alert{}, nil
		}
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return out, nil
}
