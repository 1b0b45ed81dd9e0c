package cascade

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
)

// Execer runs a raw statement and reports the number of affected rows.
// *sql.ResourceRepository satisfies it.
type Execer interface {
	Exec(ctx context.Context, stmt string, args ...any) (int64, error)
}

// ScopedTables returns the names of every table carrying a denormalized
// app_id column, in the fixed order the updater walks them.
func ScopedTables() []string {
	tablers := model.ScopedTablers()

	tables := make([]string, 0, len(tablers))
	for _, t := range tablers {
		tables = append(tables, t.TableName())
	}

	return tables
}

// TableResult records the outcome of re-keying a single table.
type TableResult struct {
	Table        string
	RowsAffected int64
	Err          error
}

// Failed reports whether the update for this table errored.
func (tr TableResult) Failed() bool {
	return tr.Err != nil
}

// MarshalJSON reports rows_affected as -1 when the table update failed, so
// callers can tell "failed" apart from "matched zero rows".
func (tr TableResult) MarshalJSON() ([]byte, error) {
	rows := tr.RowsAffected
	if tr.Err != nil {
		rows = -1
	}

	return json.Marshal(struct {
		Table        string `json:"table_name"`
		RowsAffected int64  `json:"rows_affected"`
	}{
		Table:        tr.Table,
		RowsAffected: rows,
	})
}

// Result aggregates a full cascade run. Success is true only when every
// table update succeeded; TotalRowsAffected counts successful tables only.
type Result struct {
	Success           bool          `json:"success"`
	OldAppID          string        `json:"old_app_id"`
	NewAppID          string        `json:"new_app_id"`
	Tables            []TableResult `json:"tables_updated"`
	TotalRowsAffected int64         `json:"total_rows_affected"`
}

// Updater re-keys the denormalized app_id column across all tenant-scoped
// tables. The table list is fixed at construction time.
type Updater struct {
	exec   Execer
	tables []string
}

// NewUpdater creates and returns a new Updater. An empty table list falls
// back to the full set of tenant-scoped tables.
func NewUpdater(exec Execer, tables []string) *Updater {
	if len(tables) == 0 {
		tables = ScopedTables()
	}

	return &Updater{
		exec:   exec,
		tables: tables,
	}
}

// Run rewrites app_id from oldKey to newKey in every scoped table for the
// given tenant. Tables are updated sequentially; a failing table is recorded
// and skipped, the remaining tables are still attempted. Run never rolls
// anything back.
func (u *Updater) Run(ctx context.Context, tenantID, oldKey, newKey string) Result {
	result := Result{
		Success:  true,
		OldAppID: oldKey,
		NewAppID: newKey,
		Tables:   make([]TableResult, 0, len(u.tables)),
	}

	now := time.Now().UTC()

	for _, table := range u.tables {
		stmt := fmt.Sprintf(
			"UPDATE %s SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id = ?",
			pq.QuoteIdentifier(table),
		)

		rows, err := u.exec.Exec(ctx, stmt, newKey, now, tenantID, oldKey)
		if err != nil {
			log.Warn(ctx, "cascade update failed for table, continuing",
				log.ErrorAttr(err), slog.String("table", table), slog.String("tenantId", tenantID))

			result.Success = false
			result.Tables = append(result.Tables, TableResult{Table: table, Err: err})

			tableFailures.WithLabelValues(table).Inc()

			continue
		}

		result.Tables = append(result.Tables, TableResult{Table: table, RowsAffected: rows})
		result.TotalRowsAffected += rows

		rowsRekeyed.WithLabelValues(table).Add(float64(rows))
	}

	return result
}

// Repair re-keys every scoped row of the tenant whose app_id diverged from
// currentKey. It catches up rows a partially failed Run left behind; rows
// already carrying currentKey are untouched, so repeated repairs are no-ops.
func (u *Updater) Repair(ctx context.Context, tenantID, currentKey string) Result {
	result := Result{
		Success:  true,
		NewAppID: currentKey,
		Tables:   make([]TableResult, 0, len(u.tables)),
	}

	now := time.Now().UTC()

	for _, table := range u.tables {
		stmt := fmt.Sprintf(
			"UPDATE %s SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id <> ?",
			pq.QuoteIdentifier(table),
		)

		rows, err := u.exec.Exec(ctx, stmt, currentKey, now, tenantID, currentKey)
		if err != nil {
			log.Warn(ctx, "cascade repair failed for table, continuing",
				log.ErrorAttr(err), slog.String("table", table), slog.String("tenantId", tenantID))

			result.Success = false
			result.Tables = append(result.Tables, TableResult{Table: table, Err: err})

			tableFailures.WithLabelValues(table).Inc()

			continue
		}

		result.Tables = append(result.Tables, TableResult{Table: table, RowsAffected: rows})
		result.TotalRowsAffected += rows

		rowsRekeyed.WithLabelValues(table).Add(float64(rows))
	}

	return result
}
