package database

import (
	"context"
	"fmt"
	"time"
)

// RecordAudit appends an entry to the audit trail. Audit failures are
// reported to the caller but are not expected to abort the operation that
// produced them.
func (db *DB) RecordAudit(ctx context.Context, actor, action, entity string, entityID int64, details string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, entity, entity_id, details)
		VALUES (?, ?, ?, ?, ?)`,
		actor, action, entity, entityID, details,
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// exportTables are the tables included in audit exports, in sheet order.
var exportTables = []string{"reservations", "booked_slots", "temporary_closures", "audit_log"}

// GetTableNames returns the tables included in audit exports.
func (db *DB) GetTableNames(ctx context.Context) ([]string, error) {
	return exportTables, nil
}

// GetTableData returns all rows of an exportable table as column maps.
func (db *DB) GetTableData(ctx context.Context, table string) ([]map[string]any, []string, error) {
	allowed := false
	for _, t := range exportTables {
		if t == table {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, nil, fmt.Errorf("table %q is not exportable", table)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("query table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var data []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		data = append(data, row)
	}
	return data, columns, rows.Err()
}

// PurgeAuditBefore deletes audit entries older than the cutoff.
func (db *DB) PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit: %w", err)
	}
	return result.RowsAffected()
}
