package run

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/slok/fmsched/internal/model"
)

// progressBar renders the aggregated progress of the running tasks.
type progressBar struct {
	bar   *progressbar.ProgressBar
	tasks int
}

func newProgressBar(w io.Writer, tasks int) *progressBar {
	return &progressBar{
		tasks: tasks,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(fmt.Sprintf("0/%d tasks", tasks)),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *progressBar) update(sum model.Summary) {
	finished := sum.Tasks - sum.Running
	p.bar.Describe(fmt.Sprintf("%d/%d tasks, %d entries left", finished, p.tasks, sum.Left))
	_ = p.bar.Set(int(sum.Percent))
}

func (p *progressBar) finish() {
	_ = p.bar.Finish()
}
