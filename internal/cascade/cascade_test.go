package cascade_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/cascade"
)

var errTableBroken = errors.New("relation is broken")

type recordedExec struct {
	stmt string
	args []any
}

type fakeExecer struct {
	calls   []recordedExec
	rows    map[string]int64
	failing map[string]error
}

func newFakeExecer() *fakeExecer {
	return &fakeExecer{
		rows:    map[string]int64{},
		failing: map[string]error{},
	}
}

func (f *fakeExecer) Exec(_ context.Context, stmt string, args ...any) (int64, error) {
	f.calls = append(f.calls, recordedExec{stmt: stmt, args: args})

	for table, err := range f.failing {
		if stmtTargets(stmt, table) {
			return 0, err
		}
	}

	for table, rows := range f.rows {
		if stmtTargets(stmt, table) {
			return rows, nil
		}
	}

	return 0, nil
}

func stmtTargets(stmt, table string) bool {
	return strings.HasPrefix(stmt, `UPDATE "`+table+`" `)
}

func TestUpdaterRun(t *testing.T) {
	t.Run("should update tables sequentially in the configured order", func(t *testing.T) {
		exec := newFakeExecer()
		updater := cascade.NewUpdater(exec, []string{"events", "tickets", "orders"})

		result := updater.Run(t.Context(), "t1", "public", "t1")

		require.Len(t, exec.calls, 3)
		assert.Equal(t,
			`UPDATE "events" SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id = ?`,
			exec.calls[0].stmt)
		assert.Equal(t,
			`UPDATE "tickets" SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id = ?`,
			exec.calls[1].stmt)
		assert.Equal(t,
			`UPDATE "orders" SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id = ?`,
			exec.calls[2].stmt)

		assert.True(t, result.Success)
		assert.Equal(t, "public", result.OldAppID)
		assert.Equal(t, "t1", result.NewAppID)
		assert.Len(t, result.Tables, 3)
	})

	t.Run("should bind new key, tenant and old key as parameters", func(t *testing.T) {
		exec := newFakeExecer()
		updater := cascade.NewUpdater(exec, []string{"events"})

		updater.Run(t.Context(), "t1", "public", "acme")

		require.Len(t, exec.calls, 1)
		args := exec.calls[0].args
		require.Len(t, args, 4)
		assert.Equal(t, "acme", args[0])
		assert.Equal(t, "t1", args[2])
		assert.Equal(t, "public", args[3])
	})

	t.Run("should continue past a failing table", func(t *testing.T) {
		exec := newFakeExecer()
		exec.rows["events"] = 4
		exec.rows["orders"] = 2
		exec.failing["tickets"] = errTableBroken

		updater := cascade.NewUpdater(exec, []string{"events", "tickets", "orders"})

		result := updater.Run(t.Context(), "t1", "public", "t1")

		require.Len(t, exec.calls, 3)
		assert.False(t, result.Success)
		assert.True(t, result.Tables[1].Failed())
		assert.False(t, result.Tables[0].Failed())
		assert.False(t, result.Tables[2].Failed())
	})

	t.Run("should count affected rows of successful tables only", func(t *testing.T) {
		exec := newFakeExecer()
		exec.rows["events"] = 4
		exec.rows["orders"] = 3
		exec.failing["tickets"] = errTableBroken

		updater := cascade.NewUpdater(exec, []string{"events", "tickets", "orders"})

		result := updater.Run(t.Context(), "t1", "public", "t1")

		assert.Equal(t, int64(7), result.TotalRowsAffected)
	})

	t.Run("should fall back to the built-in table list", func(t *testing.T) {
		exec := newFakeExecer()
		updater := cascade.NewUpdater(exec, nil)

		updater.Run(t.Context(), "t1", "public", "t1")

		assert.Len(t, exec.calls, len(cascade.ScopedTables()))
	})
}

func TestUpdaterRepair(t *testing.T) {
	t.Run("should target rows diverging from the current key", func(t *testing.T) {
		exec := newFakeExecer()
		updater := cascade.NewUpdater(exec, []string{"events"})

		updater.Repair(t.Context(), "t1", "t1")

		require.Len(t, exec.calls, 1)
		assert.Equal(t,
			`UPDATE "events" SET app_id = ?, updated_at = ? WHERE tenant_id = ? AND app_id <> ?`,
			exec.calls[0].stmt)

		args := exec.calls[0].args
		require.Len(t, args, 4)
		assert.Equal(t, "t1", args[0])
		assert.Equal(t, "t1", args[2])
		assert.Equal(t, "t1", args[3])
	})

	t.Run("should record failures without stopping", func(t *testing.T) {
		exec := newFakeExecer()
		exec.failing["events"] = errTableBroken
		exec.rows["tickets"] = 2

		updater := cascade.NewUpdater(exec, []string{"events", "tickets"})

		result := updater.Repair(t.Context(), "t1", "t1")

		assert.False(t, result.Success)
		assert.Equal(t, int64(2), result.TotalRowsAffected)
	})
}

func TestTableResultJSON(t *testing.T) {
	t.Run("should report affected rows for a successful table", func(t *testing.T) {
		data, err := json.Marshal(cascade.TableResult{Table: "events", RowsAffected: 5})

		require.NoError(t, err)
		assert.JSONEq(t, `{"table_name":"events","rows_affected":5}`, string(data))
	})

	t.Run("should report -1 for a failed table", func(t *testing.T) {
		data, err := json.Marshal(cascade.TableResult{Table: "tickets", Err: errTableBroken})

		require.NoError(t, err)
		assert.JSONEq(t, `{"table_name":"tickets","rows_affected":-1}`, string(data))
	})

	t.Run("should keep zero rows distinguishable from failure", func(t *testing.T) {
		data, err := json.Marshal(cascade.TableResult{Table: "orders"})

		require.NoError(t, err)
		assert.JSONEq(t, `{"table_name":"orders","rows_affected":0}`, string(data))
	})
}

func TestScopedTables(t *testing.T) {
	tables := cascade.ScopedTables()

	assert.Len(t, tables, 23)
	assert.Equal(t, "events", tables[0])
	assert.NotContains(t, tables, "tenants")
	assert.NotContains(t, tables, "tenant_memberships")
}
