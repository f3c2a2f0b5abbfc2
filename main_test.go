package main

import (
	"testing"
	"time"

	dm "github.com/baetyl/baetyl-go/v2/dmcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baetyl/baetyl-bacnet-reader/driver"
)

type fakeContext struct {
	dm.Context
	driverConfig string
	devices      []dm.DeviceInfo
	templates    map[string]*dm.AccessTemplate
}

func (f *fakeContext) GetDriverConfig() string { return f.driverConfig }

func (f *fakeContext) GetAllDevices() []dm.DeviceInfo { return f.devices }

func (f *fakeContext) GetAccessTemplates(info *dm.DeviceInfo) (*dm.AccessTemplate, error) {
	return f.templates[info.Name], nil
}

func TestGenConfig(t *testing.T) {
	access := dm.CustomAccessConfig("address: 10.0.0.5:47808\ninterval: 5s\n")
	temperature := dm.CustomVisitor("objectType: analogInput\ninstance: 42\n")
	mode := dm.CustomVisitor("objectType: multiStateValue\ninstance: 3\nproperty: stateText\narrayIndex: 0\n")
	ctx := &fakeContext{
		driverConfig: "runtime:\n  address: 0.0.0.0:47809\nconcurrency: 2\n",
		devices: []dm.DeviceInfo{
			{Name: "ahu-1", AccessConfig: &dm.AccessConfig{Custom: &access}},
			{Name: "modbus-meter", AccessConfig: &dm.AccessConfig{}},
			{Name: "unconfigured"},
		},
		templates: map[string]*dm.AccessTemplate{
			"ahu-1": {Properties: []dm.DeviceProperty{
				{Id: "1", Name: "temperature", Visitor: dm.PropertyVisitor{Custom: &temperature}},
				{Id: "2", Name: "mode", Visitor: dm.PropertyVisitor{Custom: &mode}},
				{Id: "3", Name: "manual"},
			}},
		},
	}

	cfg, err := genConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:47809", cfg.Runtime.Address)
	assert.Equal(t, 64, cfg.Runtime.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Runtime.Quarantine)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Concurrency)

	require.Len(t, cfg.Jobs, 1)
	job := cfg.Jobs[0]
	assert.Equal(t, "ahu-1", job.Device)
	assert.Equal(t, "10.0.0.5:47808", job.Address)
	assert.Equal(t, 5*time.Second, job.Interval)
	require.Len(t, job.Points, 2)
	assert.Equal(t, driver.Point{Name: "temperature", ObjectType: "analogInput", Instance: 42, Property: "presentValue"}, job.Points[0])
	assert.Equal(t, "mode", job.Points[1].Name)
	assert.Equal(t, "stateText", job.Points[1].Property)
	require.NotNil(t, job.Points[1].ArrayIndex)
	assert.Equal(t, uint32(0), *job.Points[1].ArrayIndex)
}

func TestGenConfigInvalid(t *testing.T) {
	access := dm.CustomAccessConfig("interval: [")
	ctx := &fakeContext{
		devices: []dm.DeviceInfo{{Name: "ahu-1", AccessConfig: &dm.AccessConfig{Custom: &access}}},
	}
	_, err := genConfig(ctx)
	assert.Error(t, err)
}
