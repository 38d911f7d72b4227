package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/common/database"
	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
)

const readingColumns = `reading_id, trip_id, recorded_at, heart_rate, nod_count, yawn_count, eyelid_closure`

func scanReading(row rowScanner) (*domain.SensorReading, error) {
	var (
		r      domain.SensorReading
		hr     sql.NullInt64
		eyelid sql.NullFloat64
	)
	if err := row.Scan(&r.ReadingID, &r.TripID, &r.RecordedAt, &hr, &r.NodCount, &r.YawnCount, &eyelid); err != nil {
		return nil, err
	}
	if hr.Valid {
		v := int(hr.Int64)
		r.HeartRate = &v
	}
	if eyelid.Valid {
		v := eyelid.Float64
		r.EyelidClosure = &v
	}
	return &r, nil
}

// PersistReading inserts the reading only while its trip is open, so a
// reading can never land after a concurrent finalize.
func (s *PostgresStore) PersistReading(ctx context.Context, r domain.SensorReading) (*domain.SensorReading, error) {
	if r.ReadingID == "" {
		r.ReadingID = uuid.NewString()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_readings (`+readingColumns+`)
		 SELECT $1::uuid, $2::uuid, $3::timestamptz, $4::integer, $5::integer, $6::integer, $7::double precision
		 WHERE EXISTS (SELECT 1 FROM trips WHERE trip_id = $2::uuid AND ended_at IS NULL)`,
		r.ReadingID, r.TripID, r.RecordedAt, nullInt(r.HeartRate), r.NodCount, r.YawnCount, nullFloat(r.EyelidClosure),
	)
	if err != nil {
		if pqCode(err) == pqInvalidTextRepr {
			return nil, fmt.Errorf("trip %s: %w", r.TripID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to persist reading: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to persist reading: %w", err)
	}
	if n == 0 {
		if _, err := s.GetTrip(ctx, r.TripID); err != nil {
			return nil, err
		}
		return nil, domain.ErrTripClosed
	}
	return &r, nil
}

func (s *PostgresStore) GetReading(ctx context.Context, readingID string) (*domain.SensorReading, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+readingColumns+` FROM sensor_readings WHERE reading_id = $1`, readingID)
	r, err := scanReading(row)
	if err != nil {
		return nil, lookupErr(err, "reading", readingID)
	}
	return r, nil
}

func (s *PostgresStore) ListReadings(ctx context.Context, tripID string, page Page) ([]domain.SensorReading, error) {
	args := []interface{}{tripID}
	q := `SELECT ` + readingColumns + ` FROM sensor_readings
		  WHERE trip_id = $1
		  ORDER BY recorded_at DESC, reading_id`
	p, args := pageClause(page, args)
	q += p

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if pqCode(err) == pqInvalidTextRepr {
			return []domain.SensorReading{}, nil
		}
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()
	return collectReadings(rows)
}

// LoadTripReadingsAndAlertCount reads both in one repeatable-read snapshot.
func (s *PostgresStore) LoadTripReadingsAndAlertCount(ctx context.Context, tripID string) ([]domain.SensorReading, int, error) {
	var (
		readings []domain.SensorReading
		count    int
	)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := database.WithTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+readingColumns+` FROM sensor_readings
			 WHERE trip_id = $1
			 ORDER BY recorded_at, reading_id`, tripID)
		if err != nil {
			return fmt.Errorf("failed to load readings: %w", err)
		}
		readings, err = collectReadings(rows)
		rows.Close()
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM alerts WHERE trip_id = $1`, tripID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		if pqCode(err) == pqInvalidTextRepr {
			return nil, 0, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
		}
		return nil, 0, err
	}
	return readings, count, nil
}

func collectReadings(rows *sql.Rows) ([]domain.SensorReading, error) {
	out := make([]domain.SensorReading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return out, nil
}
