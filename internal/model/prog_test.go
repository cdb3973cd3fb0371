package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/fmsched/internal/model"
)

func reduceAll(kind model.TaskKind, outs ...model.TaskOut) model.TaskProg {
	p := model.NewTaskProg(kind)
	for _, o := range outs {
		p = p.Reduce(kind, o)
	}
	return p
}

func TestTaskProgReduce(t *testing.T) {
	tests := map[string]struct {
		kind    model.TaskKind
		outs    []model.TaskOut
		expProg model.TaskProg
	}{
		"A new single shot task should start with a known total.": {
			kind:    model.TaskKindFetch,
			expProg: model.TaskProg{State: model.TaskStateQueued, Total: 1, Found: 1},
		},

		"A new file operation should start empty.": {
			kind:    model.TaskKindFileOp,
			expProg: model.TaskProg{State: model.TaskStateQueued},
		},

		"A successful single shot task should count one success.": {
			kind:    model.TaskKindPreload,
			outs:    []model.TaskOut{model.OutStarted{}, model.OutSucc{}},
			expProg: model.TaskProg{State: model.TaskStateSucceeded, Total: 1, Found: 1, Processed: 1, Succ: 1},
		},

		"A failed single shot task should count one failure.": {
			kind:    model.TaskKindProcess,
			outs:    []model.TaskOut{model.OutStarted{}, model.OutLog{Line: "boom"}, model.OutFail{Reason: "exit status 1"}},
			expProg: model.TaskProg{State: model.TaskStateFailed, Total: 1, Found: 1, Processed: 1, Fail: 1},
		},

		"A file operation with a partial failure should keep the per entry counters.": {
			kind: model.TaskKindFileOp,
			outs: []model.TaskOut{
				model.OutStarted{},
				model.OutFoundN{N: 1, Bytes: 10},
				model.OutFoundN{N: 1, Bytes: 20},
				model.OutFoundN{N: 1, Bytes: 30},
				model.OutProcessedOne{OK: true, Bytes: 10},
				model.OutProcessedOne{OK: false},
				model.OutProcessedOne{OK: true, Bytes: 30},
				model.OutFail{Reason: "1 of 3 entries failed"},
			},
			expProg: model.TaskProg{
				State:          model.TaskStateFailed,
				Total:          3,
				Found:          3,
				Processed:      3,
				Succ:           2,
				Fail:           1,
				FoundBytes:     60,
				ProcessedBytes: 40,
			},
		},

		"A size walk should report the final size.": {
			kind: model.TaskKindSizeWalk,
			outs: []model.TaskOut{model.OutStarted{}, model.OutSize{Bytes: 10}, model.OutSize{Bytes: 50}, model.OutDone{Bytes: 70}},
			expProg: model.TaskProg{
				State:          model.TaskStateSucceeded,
				Total:          1,
				Found:          1,
				Processed:      1,
				Succ:           1,
				FoundBytes:     70,
				ProcessedBytes: 70,
			},
		},

		"A cancelled task should only change its state.": {
			kind:    model.TaskKindFetch,
			outs:    []model.TaskOut{model.OutStarted{}, model.OutCancelled{}},
			expProg: model.TaskProg{State: model.TaskStateCancelled, Total: 1, Found: 1},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			got := reduceAll(test.kind, test.outs...)
			assert.Equal(test.expProg, got)
			assert.LessOrEqual(got.Processed, got.Found)
			assert.LessOrEqual(got.Succ+got.Fail, got.Total)
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := map[string]struct {
		snaps      []model.TaskSnap
		expSummary model.Summary
	}{
		"Without tasks the summary should be complete.": {
			expSummary: model.Summary{Percent: 100},
		},

		"Finished tasks should not count as running.": {
			snaps: []model.TaskSnap{
				{Prog: reduceAll(model.TaskKindFetch, model.OutSucc{})},
				{Prog: reduceAll(model.TaskKindFetch, model.OutFail{})},
			},
			expSummary: model.Summary{Tasks: 2, Total: 2, Found: 2, Processed: 2, Succ: 1, Fail: 1, Percent: 100},
		},

		"Running tasks should be aggregated by bytes and never reach 100 percent.": {
			snaps: []model.TaskSnap{
				{Prog: reduceAll(model.TaskKindFileOp,
					model.OutStarted{},
					model.OutFoundN{N: 1, Bytes: 100},
					model.OutFoundN{N: 1, Bytes: 100},
					model.OutProcessedOne{OK: true, Bytes: 100},
				)},
				{Prog: reduceAll(model.TaskKindFileOp,
					model.OutStarted{},
					model.OutFoundN{N: 1, Bytes: 200},
					model.OutProcessedOne{OK: true, Bytes: 200},
				)},
			},
			expSummary: model.Summary{Tasks: 2, Running: 2, Total: 3, Found: 3, Processed: 2, Succ: 2, Left: 1, Percent: 75},
		},

		"Running tasks with everything processed should be capped.": {
			snaps: []model.TaskSnap{
				{Prog: reduceAll(model.TaskKindFileOp,
					model.OutStarted{},
					model.OutFoundN{N: 1, Bytes: 100},
					model.OutProcessedOne{OK: true, Bytes: 100},
				)},
			},
			expSummary: model.Summary{Tasks: 1, Running: 1, Total: 1, Found: 1, Processed: 1, Succ: 1, Left: 1, Percent: 99},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expSummary, model.Summarize(test.snaps))
		})
	}
}
