/*
Package sqlite provides a SQLite-backed implementation of plan.PlanStore.

PURPOSE:
  Production persistence for payment-plan aggregates. A plan row plus its
  installment rows are written atomically inside one SQL transaction; the
  plans.version column implements the optimistic check behind
  plan.ErrConflict. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  plans:        one row per aggregate, with version column
  installments: (plan_id, number) composite key, owned rows
  sweep_runs:   late-fee sweep audit records

SINGLE WRITER:
  WithPlan serializes writers per plan with an in-process mutex on top of
  the version check. With PostgreSQL the mutex would be replaced by
  SELECT ... FOR UPDATE.

WAL MODE:
  SQLite is opened with WAL so readers do not block the single writer.

SEE ALSO:
  - plan/store.go: interface definitions
  - plan/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/installment-engine/plan"
)

// Store implements plan.LockingStore using SQLite.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	locks map[plan.PlanID]*sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, locks: make(map[plan.PlanID]*sync.Mutex)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		plan_number TEXT NOT NULL,
		customer_ref TEXT,
		invoice_ref TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		total_amount TEXT NOT NULL,
		down_payment TEXT NOT NULL,
		financed_amount TEXT NOT NULL,
		number_of_installments INTEGER NOT NULL,
		frequency TEXT NOT NULL,
		interest_method TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		total_interest TEXT NOT NULL,
		late_fee_policy TEXT NOT NULL,
		late_fee_value TEXT NOT NULL,
		grace_period_days INTEGER NOT NULL,
		remainder_policy TEXT NOT NULL,
		status TEXT NOT NULL,
		completed_at TEXT,
		total_paid TEXT NOT NULL,
		total_remaining TEXT NOT NULL,
		total_late_fees TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
	CREATE INDEX IF NOT EXISTS idx_plans_plan_number ON plans(plan_number);

	CREATE TABLE IF NOT EXISTS installments (
		plan_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		principal_amount TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		late_fee TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_date TEXT,
		payment_method TEXT,
		payment_reference TEXT,
		PRIMARY KEY (plan_id, number),
		FOREIGN KEY (plan_id) REFERENCES plans(id)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_due ON installments(due_date, status);

	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		plans_seen INTEGER NOT NULL,
		plans_changed INTEGER NOT NULL,
		fees_changed INTEGER NOT NULL,
		failures INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN STORE
// =============================================================================

func (s *Store) GetPlan(ctx context.Context, id plan.PlanID) (*plan.PaymentPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, plan_number, customer_ref, invoice_ref, start_date, end_date,
		       total_amount, down_payment, financed_amount,
		       number_of_installments, frequency, interest_method, interest_rate,
		       total_interest, late_fee_policy, late_fee_value, grace_period_days,
		       remainder_policy, status, completed_at,
		       total_paid, total_remaining, total_late_fees, version
		FROM plans WHERE id = ?`, string(id))

	snap, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT number, due_date, principal_amount, interest_amount, late_fee,
		       total_amount, amount_paid, remaining_amount, status,
		       payment_date, payment_method, payment_reference
		FROM installments WHERE plan_id = ? ORDER BY number`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		ins, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		snap.Installments = append(snap.Installments, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plan.Restore(snap), nil
}

func (s *Store) SavePlan(ctx context.Context, p *plan.PaymentPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stored int
	err = tx.QueryRowContext(ctx, `SELECT version FROM plans WHERE id = ?`, string(p.ID)).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if err := insertPlan(ctx, tx, p); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if stored != p.Version {
			return plan.ErrConflict
		}
		if err := updatePlan(ctx, tx, p); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM installments WHERE plan_id = ?`, string(p.ID)); err != nil {
		return err
	}
	for i := range p.Installments {
		if err := insertInstallment(ctx, tx, p.ID, &p.Installments[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.Version++
	return nil
}

func insertPlan(ctx context.Context, tx *sql.Tx, p *plan.PaymentPlan) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO plans (
			id, plan_number, customer_ref, invoice_ref, start_date, end_date,
			total_amount, down_payment, financed_amount,
			number_of_installments, frequency, interest_method, interest_rate,
			total_interest, late_fee_policy, late_fee_value, grace_period_days,
			remainder_policy, status, completed_at,
			total_paid, total_remaining, total_late_fees, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.PlanNumber, p.CustomerRef, p.InvoiceRef,
		p.StartDate.String(), nullableDate(dateOrNil(p.EndDate)),
		p.TotalAmount.String(), p.DownPayment.String(), p.FinancedAmount.String(),
		p.NumberOfInstallments, string(p.Frequency), string(p.InterestMethod),
		p.InterestRate.String(), p.TotalInterest.String(),
		string(p.LateFeePolicy), p.LateFeeValue.String(), p.GracePeriodDays,
		string(p.RemainderPolicy), string(p.Status), nullableDate(p.CompletedAt),
		p.TotalPaid.String(), p.TotalRemaining.String(), p.TotalLateFees.String(),
		p.Version+1, now, now)
	return err
}

func updatePlan(ctx context.Context, tx *sql.Tx, p *plan.PaymentPlan) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx, `
		UPDATE plans SET
			plan_number = ?, customer_ref = ?, invoice_ref = ?,
			start_date = ?, end_date = ?,
			total_amount = ?, down_payment = ?, financed_amount = ?,
			number_of_installments = ?, frequency = ?, interest_method = ?,
			interest_rate = ?, total_interest = ?,
			late_fee_policy = ?, late_fee_value = ?, grace_period_days = ?,
			remainder_policy = ?, status = ?, completed_at = ?,
			total_paid = ?, total_remaining = ?, total_late_fees = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		p.PlanNumber, p.CustomerRef, p.InvoiceRef,
		p.StartDate.String(), nullableDate(dateOrNil(p.EndDate)),
		p.TotalAmount.String(), p.DownPayment.String(), p.FinancedAmount.String(),
		p.NumberOfInstallments, string(p.Frequency), string(p.InterestMethod),
		p.InterestRate.String(), p.TotalInterest.String(),
		string(p.LateFeePolicy), p.LateFeeValue.String(), p.GracePeriodDays,
		string(p.RemainderPolicy), string(p.Status), nullableDate(p.CompletedAt),
		p.TotalPaid.String(), p.TotalRemaining.String(), p.TotalLateFees.String(),
		now, string(p.ID), p.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return plan.ErrConflict
	}
	return nil
}

func insertInstallment(ctx context.Context, tx *sql.Tx, id plan.PlanID, ins *plan.Installment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO installments (
			plan_id, number, due_date, principal_amount, interest_amount,
			late_fee, total_amount, amount_paid, remaining_amount, status,
			payment_date, payment_method, payment_reference
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(id), ins.Number, ins.DueDate.String(),
		ins.PrincipalAmount.String(), ins.InterestAmount.String(),
		ins.LateFee.String(), ins.TotalAmount.String(),
		ins.AmountPaid.String(), ins.RemainingAmount.String(),
		string(ins.Status), nullableDate(ins.PaymentDate),
		string(ins.PaymentMethod), ins.PaymentReference)
	return err
}

func (s *Store) ListPlans(ctx context.Context) ([]*plan.PaymentPlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []plan.PlanID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, plan.PlanID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans := make([]*plan.PaymentPlan, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *Store) ListPlansByStatus(ctx context.Context, status plan.PlanStatus) ([]plan.PlanID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM plans WHERE status = ? ORDER BY id`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []plan.PlanID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, plan.PlanID(id))
	}
	return ids, rows.Err()
}

// WithPlan serializes writers per plan: in-process mutex plus the version
// check in SavePlan.
func (s *Store) WithPlan(ctx context.Context, id plan.PlanID, fn func(*plan.PaymentPlan) error) error {
	lock := s.planLock(id)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return s.SavePlan(ctx, p)
}

func (s *Store) planLock(id plan.PlanID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// =============================================================================
// SWEEP RUN RECORDS
// =============================================================================

// SaveSweepRun records one completed sweep for audit and UI display.
func (s *Store) SaveSweepRun(ctx context.Context, report plan.SweepReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (id, started_at, completed_at, plans_seen, plans_changed, fees_changed, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.Format(time.RFC3339),
		report.CompletedAt.Format(time.RFC3339),
		report.PlansSeen, report.PlansChanged, report.FeesChanged, len(report.Failures))
	return err
}

// ListSweepRuns returns recent sweep runs, newest first.
func (s *Store) ListSweepRuns(ctx context.Context, limit int) ([]plan.SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, plans_seen, plans_changed, fees_changed, failures
		FROM sweep_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []plan.SweepRun
	for rows.Next() {
		var run plan.SweepRun
		var started, completed string
		if err := rows.Scan(&run.ID, &started, &completed,
			&run.PlansSeen, &run.PlansChanged, &run.FeesChanged, &run.Failures); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.CompletedAt, _ = time.Parse(time.RFC3339, completed)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (plan.PlanSnapshot, error) {
	var snap plan.PlanSnapshot
	var (
		id, planNumber, frequency, interestMethod, lateFeePolicy string
		remainderPolicy, status                                  string
		customerRef, invoiceRef                                  sql.NullString
		startDate, endDate, completedAt                          sql.NullString
		totalAmount, downPayment, financedAmount                 string
		interestRate, totalInterest, lateFeeValue                string
		totalPaid, totalRemaining, totalLateFees                 string
	)

	err := row.Scan(&id, &planNumber, &customerRef, &invoiceRef, &startDate, &endDate,
		&totalAmount, &downPayment, &financedAmount,
		&snap.NumberOfInstallments, &frequency, &interestMethod, &interestRate,
		&totalInterest, &lateFeePolicy, &lateFeeValue, &snap.GracePeriodDays,
		&remainderPolicy, &status, &completedAt,
		&totalPaid, &totalRemaining, &totalLateFees, &snap.Version)
	if err != nil {
		return snap, err
	}

	snap.ID = plan.PlanID(id)
	snap.PlanNumber = planNumber
	snap.CustomerRef = customerRef.String
	snap.InvoiceRef = invoiceRef.String
	snap.Frequency = plan.Frequency(frequency)
	snap.InterestMethod = plan.InterestMethod(interestMethod)
	snap.LateFeePolicy = plan.LateFeePolicy(lateFeePolicy)
	snap.RemainderPolicy = plan.RemainderPolicy(remainderPolicy)
	snap.Status = plan.PlanStatus(status)

	if snap.StartDate, err = parseDateCol(startDate); err != nil {
		return snap, err
	}
	if snap.EndDate, err = parseDateCol(endDate); err != nil {
		return snap, err
	}
	if completedAt.Valid && completedAt.String != "" {
		d, err := plan.ParseDate(completedAt.String)
		if err != nil {
			return snap, err
		}
		snap.CompletedAt = &d
	}

	for _, field := range []struct {
		dst *plan.Money
		src string
	}{
		{&snap.TotalAmount, totalAmount},
		{&snap.DownPayment, downPayment},
		{&snap.FinancedAmount, financedAmount},
		{&snap.InterestRate, interestRate},
		{&snap.TotalInterest, totalInterest},
		{&snap.LateFeeValue, lateFeeValue},
		{&snap.TotalPaid, totalPaid},
		{&snap.TotalRemaining, totalRemaining},
		{&snap.TotalLateFees, totalLateFees},
	} {
		m, err := plan.NewMoneyFromString(field.src)
		if err != nil {
			return snap, err
		}
		*field.dst = m
	}

	return snap, nil
}

func scanInstallment(row rowScanner) (plan.InstallmentSnapshot, error) {
	var snap plan.InstallmentSnapshot
	var (
		dueDate                                string
		principal, interest, lateFee, total    string
		paid, remaining, status                string
		paymentDate, paymentMethod, paymentRef sql.NullString
	)

	err := row.Scan(&snap.Number, &dueDate, &principal, &interest, &lateFee,
		&total, &paid, &remaining, &status,
		&paymentDate, &paymentMethod, &paymentRef)
	if err != nil {
		return snap, err
	}

	if snap.DueDate, err = plan.ParseDate(dueDate); err != nil {
		return snap, err
	}
	snap.Status = plan.InstallmentStatus(status)
	snap.PaymentMethod = plan.PaymentMethod(paymentMethod.String)
	snap.PaymentReference = paymentRef.String
	if paymentDate.Valid && paymentDate.String != "" {
		d, err := plan.ParseDate(paymentDate.String)
		if err != nil {
			return snap, err
		}
		snap.PaymentDate = &d
	}

	for _, field := range []struct {
		dst *plan.Money
		src string
	}{
		{&snap.PrincipalAmount, principal},
		{&snap.InterestAmount, interest},
		{&snap.LateFee, lateFee},
		{&snap.TotalAmount, total},
		{&snap.AmountPaid, paid},
		{&snap.RemainingAmount, remaining},
	} {
		m, err := plan.NewMoneyFromString(field.src)
		if err != nil {
			return snap, err
		}
		*field.dst = m
	}

	return snap, nil
}

func parseDateCol(col sql.NullString) (plan.Date, error) {
	if !col.Valid || col.String == "" {
		return plan.Date{}, nil
	}
	return plan.ParseDate(col.String)
}

func nullableDate(d *plan.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func dateOrNil(d plan.Date) *plan.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}
