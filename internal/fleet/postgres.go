package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initFleetSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initFleetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scooty (
			id INTEGER PRIMARY KEY,
			location TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available'
		);`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			scooter_id INTEGER NOT NULL REFERENCES scooty(id),
			"user" TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'booked',
			ride_status TEXT NOT NULL DEFAULT 'not_started',
			start_time TIMESTAMPTZ NULL,
			end_time TIMESTAMPTZ NULL,
			total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT 'pending'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_vehicle_user ON bookings (scooter_id, "user", ride_status);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init fleet schema failed on %q: %w", stmt, err)
		}
	}
	return seedFleet(ctx, pool)
}

func seedFleet(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM scooty`).Scan(&count); err != nil {
		return fmt.Errorf("count vehicles: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, v := range DefaultFleet() {
		_, err := pool.Exec(ctx,
			`INSERT INTO scooty (id, location, status) VALUES ($1, $2, $3)`,
			v.ID, v.Location, string(v.Status),
		)
		if err != nil {
			return fmt.Errorf("seed vehicle %d: %w", v.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, location, status FROM scooty ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		var status string
		if err := rows.Scan(&v.ID, &v.Location, &status); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		v.Status = VehicleStatus(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id int) (Vehicle, error) {
	var v Vehicle
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, location, status FROM scooty WHERE id=$1`, id,
	).Scan(&v.ID, &v.Location, &status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Vehicle{}, ErrVehicleNotFound
		}
		return Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	v.Status = VehicleStatus(status)
	return v, nil
}

func (s *PostgresStore) UpdateVehicleStatus(ctx context.Context, id int, status VehicleStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scooty SET status=$2 WHERE id=$1`, id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update vehicle status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func (s *PostgresStore) CreateBooking(ctx context.Context, b Booking) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookings (
			id, scooter_id, "user", status, ride_status, start_time, end_time, total_amount, payment_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.VehicleID, b.User, b.Status, string(b.RideStatus),
		b.StartTime, b.EndTime, b.TotalAmount, string(b.PaymentStatus),
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, b Booking) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET
			scooter_id=$2, "user"=$3, status=$4, ride_status=$5,
			start_time=$6, end_time=$7, total_amount=$8, payment_status=$9
		 WHERE id=$1`,
		b.ID, b.VehicleID, b.User, b.Status, string(b.RideStatus),
		b.StartTime, b.EndTime, b.TotalAmount, string(b.PaymentStatus),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (Booking, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, scooter_id, "user", status, ride_status, start_time, end_time, total_amount, payment_status
		   FROM bookings WHERE id=$1`, id,
	)
	b, err := scanBookingRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Booking{}, ErrBookingNotFound
		}
		return Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) FindBooking(ctx context.Context, vehicleID int, user string, status RideStatus) (Booking, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, scooter_id, "user", status, ride_status, start_time, end_time, total_amount, payment_status
		   FROM bookings WHERE scooter_id=$1 AND "user"=$2 AND ride_status=$3 LIMIT 1`,
		vehicleID, user, string(status),
	)
	b, err := scanBookingRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Booking{}, ErrBookingNotFound
		}
		return Booking{}, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scooter_id, "user", status, ride_status, start_time, end_time, total_amount, payment_status
		   FROM bookings ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanBookingRow(row pgx.Row) (Booking, error) {
	var b Booking
	var rideStatus, paymentStatus string
	err := row.Scan(
		&b.ID, &b.VehicleID, &b.User, &b.Status, &rideStatus,
		&b.StartTime, &b.EndTime, &b.TotalAmount, &paymentStatus,
	)
	if err != nil {
		return Booking{}, err
	}
	b.RideStatus = RideStatus(rideStatus)
	b.PaymentStatus = PaymentStatus(paymentStatus)
	return b, nil
}
