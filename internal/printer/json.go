package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/fmsched/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskOutput represents a task.
type taskOutput struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	Priority  string         `json:"priority"`
	State     string         `json:"state"`
	Progress  progressOutput `json:"progress"`
	Retries   uint8          `json:"retries"`
	Logs      []string       `json:"logs,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

type progressOutput struct {
	Total          uint32 `json:"total"`
	Succeeded      uint32 `json:"succeeded"`
	Failed         uint32 `json:"failed"`
	Found          uint32 `json:"found"`
	Processed      uint32 `json:"processed"`
	FoundBytes     uint64 `json:"found_bytes"`
	ProcessedBytes uint64 `json:"processed_bytes"`
}

// summaryOutput represents the aggregated progress.
type summaryOutput struct {
	Tasks     int    `json:"tasks"`
	Running   int    `json:"running"`
	Total     uint32 `json:"total"`
	Succeeded uint32 `json:"succeeded"`
	Failed    uint32 `json:"failed"`
	Left      uint32 `json:"left"`
	Percent   uint8  `json:"percent"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func toTaskOutput(s model.TaskSnap, logs []string) taskOutput {
	out := taskOutput{
		ID:       string(s.ID),
		Kind:     string(s.Kind),
		Name:     s.Name,
		Priority: s.Priority.String(),
		State:    string(s.Prog.State),
		Progress: progressOutput{
			Total:          s.Prog.Total,
			Succeeded:      s.Prog.Succ,
			Failed:         s.Prog.Fail,
			Found:          s.Prog.Found,
			Processed:      s.Prog.Processed,
			FoundBytes:     s.Prog.FoundBytes,
			ProcessedBytes: s.Prog.ProcessedBytes,
		},
		Retries: s.Retries,
		Logs:    logs,
	}

	if created, ok := createdAt(s.ID); ok {
		utc := created.UTC()
		out.CreatedAt = &utc
	}

	return out
}

// PrintTasks prints tasks in JSON format without their logs.
func (j *JSONPrinter) PrintTasks(tasks []model.TaskSnap) error {
	items := make([]taskOutput, len(tasks))
	for i, s := range tasks {
		items[i] = toTaskOutput(s, nil)
	}

	return j.encode(items)
}

// PrintTask prints a task in JSON format with its last logs.
func (j *JSONPrinter) PrintTask(task model.TaskSnap) error {
	return j.encode(toTaskOutput(task, task.LastLogs(maxDetailLogs)))
}

// PrintSummary prints the aggregated progress in JSON format.
func (j *JSONPrinter) PrintSummary(sum model.Summary) error {
	return j.encode(summaryOutput{
		Tasks:     sum.Tasks,
		Running:   sum.Running,
		Total:     sum.Total,
		Succeeded: sum.Succ,
		Failed:    sum.Fail,
		Left:      sum.Left,
		Percent:   sum.Percent,
	})
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
