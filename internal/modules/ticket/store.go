// README: Ticket store backed by PostgreSQL.
package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const ticketColumns = `
	id, ticket_number, location_id, vehicle_number, vehicle_type,
	driver_name, phone_number, notes, status, status_version,
	entry_time, exit_time, rate_plan_id, amount::text, currency,
	payment_method, lost_ticket, breakdown, cancel_reason,
	created_by, paid_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, t *Ticket) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tickets (
			id, ticket_number, location_id, vehicle_number, vehicle_type,
			driver_name, phone_number, notes, status, status_version,
			entry_time, rate_plan_id, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)`,
		t.ID, t.TicketNumber, t.LocationID, t.VehicleNumber, string(t.VehicleType),
		nullString(t.DriverName), nullString(t.PhoneNumber), nullString(t.Notes), string(t.Status), t.StatusVersion,
		t.EntryTime, t.RatePlanID, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "idx_tickets_active_plate" {
		return ErrActiveTicket
	}
	return err
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	t, err := scanTicket(s.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Store) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	t, err := scanTicket(s.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_number = $1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Store) HasActive(ctx context.Context, locationID, vehicleNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE location_id = $1 AND vehicle_number = $2 AND status = $3
		)`, locationID, vehicleNumber, string(StatusActive)).Scan(&exists)
	return exists, err
}

// Close writes the terminal state of t if the row is still at (from, version).
func (s *Store) Close(ctx context.Context, t *Ticket, from Status, version int) (bool, error) {
	breakdown, err := json.Marshal(t.Breakdown)
	if err != nil {
		return false, err
	}
	if t.Breakdown == nil {
		breakdown = []byte("[]")
	}
	var amount *string
	currency := ""
	if t.Amount != nil {
		v := t.Amount.Amount.StringFixed(types.MinorUnits)
		amount = &v
		currency = t.Amount.Currency
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE tickets
		SET status = $1,
			status_version = status_version + 1,
			exit_time = $2,
			rate_plan_id = COALESCE($3, rate_plan_id),
			amount = $4::numeric,
			currency = $5,
			payment_method = $6,
			lost_ticket = $7,
			breakdown = $8,
			cancel_reason = $9,
			paid_by = $10,
			updated_at = $11
		WHERE id = $12 AND status = $13 AND status_version = $14`,
		string(t.Status), t.ExitTime, t.RatePlanID, amount, currency,
		nullString(string(t.PaymentMethod)), t.LostTicket, breakdown,
		nullString(t.CancelReason), nullString(t.PaidBy), t.UpdatedAt,
		t.ID, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Ticket, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.LocationID != "" {
		add("location_id = $%d", f.LocationID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.VehicleNumber != "" {
		add("vehicle_number LIKE '%%' || $%d || '%%'", f.VehicleNumber)
	}
	col := "entry_time"
	if f.ByExit {
		col = "exit_time"
		where = append(where, "exit_time IS NOT NULL")
	}
	if !f.From.IsZero() {
		add(col+" >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add(col+" <= $%d", f.To)
	}
	order := " ORDER BY " + col + " DESC, id DESC"
	if f.After != nil {
		order = " ORDER BY " + col + ", id"
		if !f.After.At.IsZero() {
			args = append(args, f.After.At, f.After.ID)
			where = append(where, fmt.Sprintf("(%s, id) > ($%d, $%d)", col, len(args)-1, len(args)))
		}
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += order
	if f.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTicket(row pgx.Row) (*Ticket, error) {
	var (
		t                             Ticket
		driver, phone, notes, payment *string
		cancelReason, paidBy, amount  *string
		currency                      string
		exit                          *time.Time
		breakdown                     []byte
	)
	err := row.Scan(
		&t.ID, &t.TicketNumber, &t.LocationID, &t.VehicleNumber, &t.VehicleType,
		&driver, &phone, &notes, &t.Status, &t.StatusVersion,
		&t.EntryTime, &exit, &t.RatePlanID, &amount, &currency,
		&payment, &t.LostTicket, &breakdown, &cancelReason,
		&t.CreatedBy, &paidBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ExitTime = exit
	t.DriverName = deref(driver)
	t.PhoneNumber = deref(phone)
	t.Notes = deref(notes)
	t.PaymentMethod = PaymentMethod(deref(payment))
	t.CancelReason = deref(cancelReason)
	t.PaidBy = deref(paidBy)
	if amount != nil {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, err
		}
		m := types.NewMoney(d, currency)
		t.Amount = &m
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &t.Breakdown); err != nil {
			return nil, fmt.Errorf("breakdown: %w", err)
		}
	}
	return &t, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
