package driver

import (
	"context"
	"time"

	"github.com/baetyl/baetyl-go/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/baetyl/baetyl-bacnet-reader/readprop"
)

// Reader reads one property. *readprop.Reader implements it.
type Reader interface {
	Read(ctx context.Context, pa readprop.PropertyAddress, timeout time.Duration) (interface{}, error)
}

// Command is one unit of input work. A zero Timeout selects the reader
// default.
type Command struct {
	readprop.PropertyAddress
	Timeout time.Duration
}

// Details echo the read target in a record
type Details struct {
	Address    string  `json:"address"`
	ObjectType string  `json:"object_type"`
	Instance   uint32  `json:"instance_num"`
	Property   string  `json:"property_id"`
	ArrayIndex *uint32 `json:"array_index"`
}

// Record is the outcome of one command
type Record struct {
	Value   interface{} `json:"value"`
	Details Details     `json:"details"`
	Error   string      `json:"error,omitempty"`
	Err     error       `json:"-"`
}

// Block runs batches of commands, one record per command. A failed
// command yields a record carrying its error, its siblings still run.
type Block struct {
	reader      Reader
	concurrency int
	log         *log.Logger
}

func NewBlock(reader Reader, concurrency int, logger *log.Logger) *Block {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.L()
	}
	return &Block{
		reader:      reader,
		concurrency: concurrency,
		log:         logger,
	}
}

// Process returns the records of commands in the same order
func (b *Block) Process(ctx context.Context, commands []Command) []Record {
	records := make([]Record, len(commands))
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i := range commands {
		i := i
		g.Go(func() error {
			records[i] = b.process(ctx, commands[i])
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (b *Block) process(ctx context.Context, cmd Command) Record {
	rec := Record{
		Details: Details{
			Address:    cmd.Address,
			ObjectType: cmd.ObjectType,
			Instance:   cmd.Instance,
			Property:   cmd.Property,
			ArrayIndex: cmd.ArrayIndex,
		},
	}
	value, err := b.reader.Read(ctx, cmd.PropertyAddress, cmd.Timeout)
	if err != nil {
		b.log.Warn("failed to read property", log.Any("details", rec.Details), log.Error(err))
		rec.Err = err
		rec.Error = err.Error()
		return rec
	}
	rec.Value = value
	return rec
}
