package audit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	tables map[string][]map[string]any
	cols   map[string][]string
	order  []string
}

func (f *fakeSource) GetTableNames(context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeSource) GetTableData(_ context.Context, table string) ([]map[string]any, []string, error) {
	return f.tables[table], f.cols[table], nil
}

func TestExport(t *testing.T) {
	source := &fakeSource{
		order: []string{"reservations", "audit_log"},
		cols: map[string][]string{
			"reservations": {"id", "date", "time_slot"},
			"audit_log":    {"id", "action"},
		},
		tables: map[string][]map[string]any{
			"reservations": {
				{"id": int64(1), "date": "2026-03-02", "time_slot": "10:00"},
				{"id": int64(2), "date": "2026-03-02", "time_slot": "11:00"},
			},
			"audit_log": {
				{"id": int64(1), "action": "create"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(source).Export(context.Background(), &buf))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"reservations", "audit_log"}, file.GetSheetList())

	rows, err := file.GetRows("reservations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "date", "time_slot"}, rows[0])
	assert.Equal(t, []string{"1", "2026-03-02", "10:00"}, rows[1])

	rows, err = file.GetRows("audit_log")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "create"}, rows[1])
}

func TestExport_EmptyTableStillGetsSheet(t *testing.T) {
	source := &fakeSource{
		order: []string{"booked_slots"},
		cols:  map[string][]string{"booked_slots": {"id", "time_slot"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(source).Export(context.Background(), &buf))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("booked_slots")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
	assert.Equal(t, []string{"id", "time_slot"}, rows[0])
}
