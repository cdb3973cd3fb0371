package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/slok/fmsched/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTasks prints tasks in a table format.
func (t *TablePrinter) PrintTasks(tasks []model.TaskSnap) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tKIND\tPRIORITY\tSTATE\tPROGRESS\tSIZE\tNAME")

	// Print rows.
	for _, s := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Kind,
			s.Priority,
			s.Prog.State,
			formatProgress(s.Prog),
			FormatBytes(s.Prog.ProcessedBytes),
			s.Name,
		)
	}

	return nil
}

// PrintTask prints the details of a task.
func (t *TablePrinter) PrintTask(task model.TaskSnap) error {
	fmt.Fprintf(t.writer, "Name:       %s\n", task.Name)
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Kind:       %s\n", task.Kind)
	fmt.Fprintf(t.writer, "Priority:   %s\n", task.Priority)
	fmt.Fprintf(t.writer, "State:      %s\n", task.Prog.State)
	fmt.Fprintf(t.writer, "Progress:   %s\n", formatProgress(task.Prog))
	if task.Prog.Fail > 0 {
		fmt.Fprintf(t.writer, "Failed:     %d\n", task.Prog.Fail)
	}
	if task.Prog.FoundBytes > 0 || task.Kind == model.TaskKindSizeWalk {
		fmt.Fprintf(t.writer, "Size:       %s\n", FormatBytes(task.Prog.ProcessedBytes))
	}
	if task.Retries > 0 {
		fmt.Fprintf(t.writer, "Retries:    %d\n", task.Retries)
	}
	if created, ok := createdAt(task.ID); ok {
		fmt.Fprintf(t.writer, "Created:    %s (%s)\n", FormatTimestamp(created), FormatAge(created, time.Now()))
	}

	logs := task.LastLogs(maxDetailLogs)
	if len(logs) > 0 {
		fmt.Fprintf(t.writer, "Logs:\n")
		for _, l := range logs {
			fmt.Fprintf(t.writer, "  %s\n", l)
		}
	}

	return nil
}

// PrintSummary prints the aggregated progress in a single line.
func (t *TablePrinter) PrintSummary(sum model.Summary) error {
	fmt.Fprintf(t.writer, "Tasks: %d  Running: %d  Succeeded: %d  Failed: %d  Left: %d  Progress: %d%%\n",
		sum.Tasks, sum.Running, sum.Succ, sum.Fail, sum.Left, sum.Percent)
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
