package train

import (
	"k8s.io/klog/v2"
)

// Report is one evaluation snapshot.
type Report struct {
	Step      int
	TrainLoss float64
	EvalLoss  float64
}

// Reporter receives evaluation snapshots as they are produced.
type Reporter interface {
	Report(r Report)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(r Report)

// Report calls f(r).
func (f ReporterFunc) Report(r Report) {
	f(r)
}

// LogReporter writes each snapshot to klog.
type LogReporter struct{}

// Report logs r at info level.
func (LogReporter) Report(r Report) {
	klog.InfoS("Evaluation", "step", r.Step, "trainLoss", r.TrainLoss, "evalLoss", r.EvalLoss)
}
