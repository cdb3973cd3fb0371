// Package printer renders tasks and their progress for the command line.
package printer

import (
	"fmt"
	"time"

	"github.com/slok/fmsched/internal/id"
	"github.com/slok/fmsched/internal/model"
)

// Printer knows how to print task information in different formats.
type Printer interface {
	PrintTasks(tasks []model.TaskSnap) error
	PrintTask(task model.TaskSnap) error
	PrintSummary(sum model.Summary) error
	PrintMessage(msg string) error
}

// maxDetailLogs is the number of log lines shown on a task detail.
const maxDetailLogs = 10

func formatProgress(p model.TaskProg) string {
	return fmt.Sprintf("%d/%d (%.0f%%)", p.Succ+p.Fail, p.Total, p.Percent())
}

func createdAt(tid model.TaskID) (time.Time, bool) {
	t, err := id.Time(tid)
	return t, err == nil
}
