package driver

import (
	"context"

	"github.com/baetyl/baetyl-go/v2/errors"
	"github.com/baetyl/baetyl-go/v2/log"

	"github.com/baetyl/baetyl-bacnet-reader/readprop"
)

// Worker polls the points of one job and reports the values read,
// keyed by point name.
type Worker struct {
	job    Job
	block  *Block
	report func(map[string]interface{}) error
	log    *log.Logger
}

func NewWorker(job Job, block *Block, report func(map[string]interface{}) error, log *log.Logger) *Worker {
	return &Worker{
		job:    job,
		block:  block,
		report: report,
		log:    log,
	}
}

func (w *Worker) commands() []Command {
	cmds := make([]Command, 0, len(w.job.Points))
	for _, p := range w.job.Points {
		property := p.Property
		if property == "" {
			property = "presentValue"
		}
		cmds = append(cmds, Command{PropertyAddress: readprop.PropertyAddress{
			Address:    w.job.Address,
			ObjectType: p.ObjectType,
			Instance:   p.Instance,
			Property:   property,
			ArrayIndex: p.ArrayIndex,
		}})
	}
	return cmds
}

// Execute reads every point once. Failed points are left out of the
// report; it fails only when no point could be read.
func (w *Worker) Execute(ctx context.Context) error {
	if len(w.job.Points) == 0 {
		return nil
	}
	records := w.block.Process(ctx, w.commands())
	values := make(map[string]interface{})
	var last error
	for i, rec := range records {
		if rec.Err != nil {
			last = rec.Err
			continue
		}
		values[w.job.Points[i].Name] = rec.Value
	}
	if len(values) == 0 {
		return errors.Errorf("device %s: no point read: %v", w.job.Device, last)
	}
	if err := w.report(values); err != nil {
		return errors.Trace(err)
	}
	return nil
}
