package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/printer"
)

func taskFixture() model.TaskSnap {
	return model.TaskSnap{
		ID:       "01JNJ4Z2Q0000000000000000A",
		Kind:     model.TaskKindFileOp,
		Name:     `Copy "/a" to "/b"`,
		Priority: model.PriorityHigh,
		Prog: model.TaskProg{
			State:          model.TaskStateFailed,
			Total:          4,
			Succ:           3,
			Fail:           1,
			Found:          4,
			Processed:      4,
			FoundBytes:     4096,
			ProcessedBytes: 2048,
		},
		Logs:    []string{"Retrying (1/3): busy", `Failed "/a/x": permission denied`},
		Retries: 1,
	}
}

func TestTablePrinterPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTasks([]model.TaskSnap{taskFixture()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "KIND", "PRIORITY", "STATE", "PROGRESS", "SIZE", "NAME"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "file-op")
	assert.Contains(t, lines[1], "high")
	assert.Contains(t, lines[1], "4/4")
	assert.Contains(t, lines[1], "2.0 KB")
}

func TestTablePrinterPrintTasksEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintTasks(nil))
	assert.Empty(t, buf.String())
}

func TestTablePrinterPrintTask(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTask(taskFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "State:      failed")
	assert.Contains(t, out, "Failed:     1")
	assert.Contains(t, out, "Retries:    1")
	assert.Contains(t, out, "Created:    2025-")
	assert.Contains(t, out, `  Failed "/a/x": permission denied`)
}

func TestTablePrinterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintSummary(model.Summary{Tasks: 3, Running: 1, Succ: 5, Fail: 1, Left: 2, Percent: 42})
	require.NoError(t, err)
	assert.Equal(t, "Tasks: 3  Running: 1  Succeeded: 5  Failed: 1  Left: 2  Progress: 42%", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintTask(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTask(taskFixture())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "failed", got["state"])
	assert.Equal(t, "high", got["priority"])
	assert.Equal(t, float64(1), got["retries"])
	assert.Len(t, got["logs"], 2)
	assert.NotEmpty(t, got["created_at"])
}

func TestJSONPrinterPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTasks([]model.TaskSnap{taskFixture(), {ID: "bad", Kind: model.TaskKindFetch}})
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.NotContains(t, got[0], "logs")
	assert.NotContains(t, got[1], "created_at")
}

func TestJSONPrinterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintSummary(model.Summary{Tasks: 1, Percent: 100})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"percent": 100`)
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
