// Package driver exposes the property reader as a baetyl device driver:
// devices are polled on an interval and their values reported.
package driver

import (
	"context"
	"sync"
	"time"

	dm "github.com/baetyl/baetyl-go/v2/dmcontext"
	"github.com/baetyl/baetyl-go/v2/errors"
	"github.com/baetyl/baetyl-go/v2/log"
	v1 "github.com/baetyl/baetyl-go/v2/spec/v1"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
	"github.com/baetyl/baetyl-bacnet-reader/readprop"
)

var ErrWriteNotSupported = errors.New("writing bacnet properties is not supported")

type Bacnet struct {
	ctx    dm.Context
	log    *log.Logger
	cfg    *Config
	client *bacip.Client
	ws     map[string]*Worker
	quit   chan struct{}
	wg     sync.WaitGroup
}

func NewBacnet(ctx dm.Context, cfg *Config) (*Bacnet, error) {
	logger := ctx.Log().With(log.Any("module", "baetyl-bacnet-reader"))
	client := bacip.NewClient(cfg.Runtime, logger)
	if err := client.Start(); err != nil {
		return nil, errors.Trace(err)
	}
	reader := readprop.NewReader(client, bacnet.DefaultSchema(),
		readprop.WithTimeout(cfg.Timeout), readprop.WithLogger(logger))
	block := NewBlock(reader, cfg.Concurrency, logger)

	bac := &Bacnet{
		ctx:    ctx,
		log:    logger,
		cfg:    cfg,
		client: client,
		ws:     make(map[string]*Worker),
		quit:   make(chan struct{}),
	}
	infos := make(map[string]dm.DeviceInfo)
	for _, info := range ctx.GetAllDevices() {
		infos[info.Name] = info
	}
	for _, job := range cfg.Jobs {
		info, ok := infos[job.Device]
		if !ok {
			logger.Error("device of job not exist", log.Any("device", job.Device))
			continue
		}
		ctx.Online(&info)
		bac.ws[job.Device] = NewWorker(job, block, bac.reporter(&info), logger.With(log.Any("device", job.Device)))
	}
	if err := ctx.RegisterDeltaCallback(bac.DeltaCallback); err != nil {
		_ = client.Stop()
		return nil, errors.Trace(err)
	}
	if err := ctx.RegisterPropertyGetCallback(bac.PropertyGetCallback); err != nil {
		_ = client.Stop()
		return nil, errors.Trace(err)
	}
	for _, w := range bac.ws {
		bac.wg.Add(1)
		go bac.working(w)
	}
	return bac, nil
}

func (bac *Bacnet) working(w *Worker) {
	defer bac.wg.Done()
	interval := w.job.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Execute(context.Background()); err != nil {
				bac.log.Error("failed to execute job", log.Any("device", w.job.Device), log.Error(err))
			}
		case <-bac.ctx.WaitChan():
			bac.log.Warn("worker stopped", log.Any("device", w.job.Device))
			return
		case <-bac.quit:
			return
		}
	}
}

// Close stops the workers, then the bacnet client
func (bac *Bacnet) Close() error {
	close(bac.quit)
	bac.wg.Wait()
	return errors.Trace(bac.client.Stop())
}

func (bac *Bacnet) DeltaCallback(info *dm.DeviceInfo, delta v1.Delta) error {
	bac.log.Warn("ignored property delta", log.Any("device", info.Name), log.Any("delta", delta))
	return ErrWriteNotSupported
}

func (bac *Bacnet) PropertyGetCallback(info *dm.DeviceInfo, properties []string) error {
	w, ok := bac.ws[info.Name]
	if !ok {
		bac.log.Warn("worker not exist according to device", log.Any("device", info.Name))
		return errors.New("worker not exist")
	}
	return w.Execute(context.Background())
}

func (bac *Bacnet) reporter(info *dm.DeviceInfo) func(map[string]interface{}) error {
	return func(values map[string]interface{}) error {
		r, err := bac.mapValues(info, values)
		if err != nil {
			return err
		}
		return errors.Trace(bac.ctx.ReportDeviceProperties(info, r))
	}
}

// mapValues evaluates the mappings of the device access template over
// the point values. Without mappings the point values are reported as
// they are.
func (bac *Bacnet) mapValues(info *dm.DeviceInfo, values map[string]interface{}) (v1.Report, error) {
	tpl, err := bac.ctx.GetAccessTemplates(info)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if tpl == nil || len(tpl.Mappings) == 0 {
		return v1.Report(values), nil
	}
	names := make(map[string]string)
	for _, prop := range tpl.Properties {
		names[prop.Id] = prop.Name
	}
	r := v1.Report{}
	for _, model := range tpl.Mappings {
		params, err := dm.ParseExpression(model.Expression)
		if err != nil {
			return nil, errors.Trace(err)
		}
		args := make(map[string]interface{})
		complete := true
		for _, param := range params {
			v, ok := values[names[param[1:]]]
			if !ok {
				complete = false
				break
			}
			args[param] = v
		}
		if !complete {
			bac.log.Debug("mapping skipped, point missing", log.Any("attribute", model.Attribute))
			continue
		}
		modelValue, err := dm.ExecExpression(model.Expression, args, model.Type)
		if err != nil {
			return nil, errors.Trace(err)
		}
		r[model.Attribute] = modelValue
	}
	return r, nil
}
