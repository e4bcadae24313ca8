package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/syssam/quarry/dialect"
	esql "github.com/syssam/quarry/dialect/sql"
)

// DefaultHistoryTable is the name of the migration history table.
const DefaultHistoryTable = "quarry_migrations"

// Statuses of a history record.
const (
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
	StatusRolledBack = "ROLLED_BACK"
)

// Record is one row of the history table. Rows are append-only: a rollback
// inserts a new ROLLED_BACK row instead of mutating the original SUCCESS
// row, preserving the audit trail.
type Record struct {
	ID          int64
	Version     int
	Timestamp   int64
	Description string
	Checksum    string
	// ExecutedAt is the start of the attempt in unix milliseconds.
	ExecutedAt int64
	// ExecutionTime is the attempt duration in milliseconds.
	ExecutionTime int64
	Status        string
	Error         string
}

// Migrator applies, reverts and audits versioned migrations against a single
// driver. It assumes exclusive, sequential use of the connection: two runs
// against the same history table must be serialized by the caller.
type Migrator struct {
	driver dialect.Driver
	logger *slog.Logger
	table  string
	now    func() time.Time
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithLogger sets the logger. The migrator does not log by default.
func WithLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		m.logger = l
	}
}

// WithHistoryTable overrides the history table name.
func WithHistoryTable(name string) MigratorOption {
	return func(m *Migrator) {
		m.table = name
	}
}

// NewMigrator returns a migrator over the given driver.
func NewMigrator(drv dialect.Driver, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		driver: drv,
		table:  DefaultHistoryTable,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

// HistoryTable returns the name of the history table.
func (m *Migrator) HistoryTable() string { return m.table }

// MigrateResult summarizes one Migrate or Rollback run.
type MigrateResult struct {
	Executed []*Migration
	Skipped  []*Migration
	// Failed is the migration whose transaction rolled back, if any. The
	// returned error carries the cause.
	Failed *Migration
}

// Migrate applies the pending migrations in increasing version order,
// regardless of input order. An already-applied migration is verified
// against its recorded checksum; a mismatch aborts the run with an
// IntegrityError before any further migration is touched. Each migration
// runs in its own transaction, and a failure stops the run with the
// migrations before it left committed.
func (m *Migrator) Migrate(ctx context.Context, migrations []*Migration) (*MigrateResult, error) {
	if err := m.ensureHistory(ctx); err != nil {
		return nil, err
	}
	records, err := m.latestRecords(ctx)
	if err != nil {
		return nil, err
	}
	sorted := sortByVersion(migrations)
	res := &MigrateResult{}
	for _, mig := range sorted {
		if rec, ok := records[mig.Version]; ok && rec.Status == StatusSuccess {
			if sum := mig.Checksum(); sum != rec.Checksum {
				return res, &IntegrityError{Version: mig.Version, Expected: rec.Checksum, Actual: sum}
			}
			res.Skipped = append(res.Skipped, mig)
			continue
		}
		if err := m.run(ctx, mig, mig.Up, StatusSuccess); err != nil {
			res.Failed = mig
			return res, err
		}
		res.Executed = append(res.Executed, mig)
	}
	return res, nil
}

// Rollback reverts the given number of most recently applied migrations,
// highest version first, each in its own transaction. A successful revert
// appends a ROLLED_BACK history row. A migration recorded in history but
// missing from the candidate set cannot be reverted and fails the call.
func (m *Migrator) Rollback(ctx context.Context, migrations []*Migration, steps int) (*MigrateResult, error) {
	if err := m.ensureHistory(ctx); err != nil {
		return nil, err
	}
	records, err := m.latestRecords(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int]*Migration, len(migrations))
	for _, mig := range migrations {
		byVersion[mig.Version] = mig
	}
	var applied []int
	for v, rec := range records {
		if rec.Status == StatusSuccess {
			applied = append(applied, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(applied)))
	res := &MigrateResult{}
	for _, v := range applied {
		if steps <= 0 {
			break
		}
		steps--
		mig, ok := byVersion[v]
		if !ok {
			return res, fmt.Errorf("schema: cannot roll back V%d: migration not in candidate set", v)
		}
		if err := m.run(ctx, mig, mig.Down, StatusRolledBack); err != nil {
			res.Failed = mig
			return res, err
		}
		res.Executed = append(res.Executed, mig)
	}
	return res, nil
}

// run renders and executes one operation list inside a single transaction
// and appends the history row for the attempt.
func (m *Migrator) run(ctx context.Context, mig *Migration, ops []Operation, okStatus string) error {
	stmts, err := Plan(m.driver.Dialect(), ops)
	if err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	start := m.now()
	tx, err := m.driver.Tx(ctx)
	if err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	for _, stmt := range stmts {
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			mErr := &MigrationError{Version: mig.Version, Statement: stmt, Err: err}
			if rerr := tx.Rollback(); rerr != nil {
				m.logger.Warn("transaction rollback failed", "migration", mig.Name(), "error", rerr)
			}
			if okStatus == StatusSuccess {
				if rerr := m.record(ctx, mig, start, StatusFailed, mErr.Error()); rerr != nil {
					m.logger.Warn("recording failure", "migration", mig.Name(), "error", rerr)
				}
			}
			m.logger.Error("migration failed", "migration", mig.Name(), "statement", stmt, "error", err)
			return mErr
		}
	}
	if err := tx.Commit(); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	if err := m.record(ctx, mig, start, okStatus, ""); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	m.logger.Info("migration recorded",
		"migration", mig.Name(),
		"status", okStatus,
		"duration", m.now().Sub(start),
	)
	return nil
}

// StatusReport partitions the candidate migrations by their history state.
type StatusReport struct {
	Applied []StatusEntry
	Pending []*Migration
}

// StatusEntry pairs an applied migration with its latest history row.
type StatusEntry struct {
	Migration *Migration
	Record    *Record
}

// Status reports the applied and pending partitions of the candidate set,
// both in version order.
func (m *Migrator) Status(ctx context.Context, migrations []*Migration) (*StatusReport, error) {
	if err := m.ensureHistory(ctx); err != nil {
		return nil, err
	}
	records, err := m.latestRecords(ctx)
	if err != nil {
		return nil, err
	}
	report := &StatusReport{}
	for _, mig := range sortByVersion(migrations) {
		if rec, ok := records[mig.Version]; ok && rec.Status == StatusSuccess {
			report.Applied = append(report.Applied, StatusEntry{Migration: mig, Record: rec})
		} else {
			report.Pending = append(report.Pending, mig)
		}
	}
	return report, nil
}

// Issue kinds surfaced by Validate.
const (
	IssueChecksumMismatch = "checksum mismatch"
	IssueOrphaned         = "orphaned history row"
	IssueFailed           = "failed migration"
)

// Issue is a single validation finding.
type Issue struct {
	Kind    string
	Version int
	Detail  string
}

// Validate cross-checks the candidate set against history and returns all
// findings: recomputed checksums that no longer match, history rows whose
// source migration is missing from the candidate set, and rows recorded as
// FAILED. An empty slice means a clean state.
func (m *Migrator) Validate(ctx context.Context, migrations []*Migration) ([]Issue, error) {
	if err := m.ensureHistory(ctx); err != nil {
		return nil, err
	}
	records, err := m.latestRecords(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int]*Migration, len(migrations))
	for _, mig := range migrations {
		byVersion[mig.Version] = mig
	}
	var issues []Issue
	for _, mig := range sortByVersion(migrations) {
		rec, ok := records[mig.Version]
		if !ok || rec.Status != StatusSuccess {
			continue
		}
		if sum := mig.Checksum(); sum != rec.Checksum {
			issues = append(issues, Issue{
				Kind:    IssueChecksumMismatch,
				Version: mig.Version,
				Detail:  fmt.Sprintf("history has %s, operations hash to %s", rec.Checksum, sum),
			})
		}
	}
	versions := make([]int, 0, len(records))
	for v := range records {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		rec := records[v]
		if _, ok := byVersion[v]; !ok {
			issues = append(issues, Issue{
				Kind:    IssueOrphaned,
				Version: v,
				Detail:  fmt.Sprintf("history row %q has no source migration", rec.Description),
			})
		}
		if rec.Status == StatusFailed {
			issues = append(issues, Issue{
				Kind:    IssueFailed,
				Version: v,
				Detail:  rec.Error,
			})
		}
	}
	return issues, nil
}

// History returns all history rows in insertion order.
func (m *Migrator) History(ctx context.Context) ([]*Record, error) {
	hist := esql.Table(m.table)
	query, args, err := esql.Select(hist).
		Fields(
			esql.Column(esql.C(hist, "id")),
			esql.Column(esql.C(hist, "version")),
			esql.Column(esql.C(hist, "timestamp")),
			esql.Column(esql.C(hist, "description")),
			esql.Column(esql.C(hist, "checksum")),
			esql.Column(esql.C(hist, "executedAt")),
			esql.Column(esql.C(hist, "executionTime")),
			esql.Column(esql.C(hist, "status")),
			esql.Column(esql.C(hist, "error")),
		).
		OrderBy(esql.C(hist, "id")).
		Render(m.driver.Dialect())
	if err != nil {
		return nil, err
	}
	rows := &esql.Rows{}
	if err := m.driver.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var errMsg esql.NullString
		if err := rows.Scan(&rec.ID, &rec.Version, &rec.Timestamp, &rec.Description, &rec.Checksum, &rec.ExecutedAt, &rec.ExecutionTime, &rec.Status, &errMsg); err != nil {
			return nil, err
		}
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// latestRecords returns the newest history row per version. Later rows win,
// so a ROLLED_BACK row supersedes the SUCCESS row it reverted.
func (m *Migrator) latestRecords(ctx context.Context) (map[int]*Record, error) {
	records, err := m.History(ctx)
	if err != nil {
		return nil, err
	}
	latest := make(map[int]*Record, len(records))
	for _, rec := range records {
		latest[rec.Version] = rec
	}
	return latest, nil
}

func (m *Migrator) ensureHistory(ctx context.Context) error {
	d, err := ddlFor(m.driver.Dialect())
	if err != nil {
		return err
	}
	return m.driver.Exec(ctx, d.historyDDL(m.table), []any{}, nil)
}

func (m *Migrator) record(ctx context.Context, mig *Migration, start time.Time, status, errMsg string) error {
	query, args, err := esql.Insert(esql.Table(m.table)).
		Set("version", mig.Version).
		Set("timestamp", mig.Timestamp).
		Set("description", mig.Description).
		Set("checksum", mig.Checksum()).
		Set("executedAt", start.UnixMilli()).
		Set("executionTime", m.now().Sub(start).Milliseconds()).
		Set("status", status).
		Set("error", errMsg).
		Render(m.driver.Dialect())
	if err != nil {
		return err
	}
	return m.driver.Exec(ctx, query, args, nil)
}

func sortByVersion(migrations []*Migration) []*Migration {
	sorted := make([]*Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}
