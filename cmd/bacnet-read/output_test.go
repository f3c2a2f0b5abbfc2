package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
	"github.com/baetyl/baetyl-bacnet-reader/driver"
)

func TestPrintRecords(t *testing.T) {
	records := []driver.Record{
		{Value: float32(72.5), Details: driver.Details{Address: "10.0.0.5:47808", ObjectType: "analogInput", Instance: 42, Property: "presentValue"}},
		{Value: []interface{}{bacnet.ObjectID{Type: bacnet.BacnetDevice, Instance: 1}, bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 2}}},
		{Err: errors.New("timeout"), Error: "timeout"},
		{Value: nil},
	}

	var raw bytes.Buffer
	require.NoError(t, printRecords(&raw, formatRaw, records))
	assert.Equal(t, "72.5\n[device:1, analogInput:2]\nerror: timeout\nnull\n", raw.String())

	var js bytes.Buffer
	require.NoError(t, printRecords(&js, formatJSON, records[:1]))
	assert.JSONEq(t, `{"value":72.5,"details":{"address":"10.0.0.5:47808","object_type":"analogInput","instance_num":42,"property_id":"presentValue","array_index":null}}`, js.String())

	assert.Equal(t, 1, countFailed(records))
}

func TestSplitObject(t *testing.T) {
	objectType, instance, err := splitObject("analog-input:42")
	require.NoError(t, err)
	assert.Equal(t, "analog-input", objectType)
	assert.Equal(t, uint32(42), instance)

	_, _, err = splitObject("analogInput")
	assert.Error(t, err)
	_, _, err = splitObject("analogInput:-1")
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	defer viper.Reset()
	viper.Set("address", "10.0.0.5")
	viper.Set("object", []string{"ai:1", "device:7"})
	viper.Set("property", "objectList")
	viper.Set("index", 0)
	viper.Set("timeout", 2*time.Second)

	cmds, err := commands()
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "ai", cmds[0].ObjectType)
	assert.Equal(t, uint32(7), cmds[1].Instance)
	assert.Equal(t, "objectList", cmds[1].Property)
	require.NotNil(t, cmds[1].ArrayIndex)
	assert.Equal(t, uint32(0), *cmds[1].ArrayIndex)
	assert.Equal(t, 2*time.Second, cmds[0].Timeout)

	viper.Set("address", "")
	_, err = commands()
	assert.Error(t, err)
}
