package main

import (
	dm "github.com/baetyl/baetyl-go/v2/dmcontext"
	"github.com/baetyl/baetyl-go/v2/utils"
	"gopkg.in/yaml.v2"

	"github.com/baetyl/baetyl-bacnet-reader/driver"
)

func main() {
	dm.Run(func(ctx dm.Context) error {
		cfg, err := genConfig(ctx)
		if err != nil {
			return err
		}
		bac, err := driver.NewBacnet(ctx, cfg)
		if err != nil {
			return err
		}
		defer bac.Close()
		ctx.Wait()
		return nil
	})
}

func genConfig(ctx dm.Context) (*driver.Config, error) {
	cfg := &driver.Config{}
	if err := yaml.Unmarshal([]byte(ctx.GetDriverConfig()), cfg); err != nil {
		return nil, err
	}

	// generate job per device
	for _, devInfo := range ctx.GetAllDevices() {
		accessConfig := devInfo.AccessConfig
		if accessConfig == nil || accessConfig.Custom == nil {
			continue
		}
		var job driver.Job
		if err := yaml.Unmarshal([]byte(*accessConfig.Custom), &job); err != nil {
			return nil, err
		}
		job.Device = devInfo.Name

		// generate points
		devTpl, err := ctx.GetAccessTemplates(&devInfo)
		if err != nil {
			return nil, err
		}
		if devTpl != nil && len(devTpl.Properties) > 0 {
			for _, prop := range devTpl.Properties {
				if visitor := prop.Visitor.Custom; visitor != nil {
					var point driver.Point
					if err := yaml.Unmarshal([]byte(*visitor), &point); err != nil {
						return nil, err
					}
					point.Name = prop.Name
					job.Points = append(job.Points, point)
				}
			}
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}
	if err := utils.SetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
