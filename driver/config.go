package driver

import (
	"time"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
)

type Config struct {
	Runtime     bacip.Config  `yaml:"runtime" json:"runtime"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" default:"1s"`
	Concurrency int           `yaml:"concurrency" json:"concurrency" default:"1"`
	Jobs        []Job         `yaml:"jobs" json:"jobs"`
}

type Job struct {
	Device   string        `yaml:"device" json:"device"`
	Address  string        `yaml:"address" json:"address"`
	Interval time.Duration `yaml:"interval" json:"interval" default:"15s"`
	Points   []Point       `yaml:"points" json:"points"`
}

type Point struct {
	Name       string  `yaml:"name" json:"name"`
	ObjectType string  `yaml:"objectType" json:"objectType"`
	Instance   uint32  `yaml:"instance" json:"instance"`
	Property   string  `yaml:"property" json:"property" default:"presentValue"`
	ArrayIndex *uint32 `yaml:"arrayIndex,omitempty" json:"arrayIndex,omitempty"`
}
