//Package bacip implements a Bacnet/IP client
package bacip

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/baetyl/baetyl-go/v2/log"
	"go.uber.org/atomic"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

var (
	ErrNotRunning     = errors.New("bacnet client is not running")
	ErrAlreadyStarted = errors.New("bacnet client already started")
	ErrStopped        = errors.New("bacnet client stopped")
	ErrQueueFull      = errors.New("bacnet client queue is full")
)

//Config of the client runtime. Address is the local UDP endpoint the
//client binds, port 0 picks any free port. Quarantine delays the reuse
//of invoke IDs whose request got no answer, a negative value disables it.
type Config struct {
	Address    string        `yaml:"address" json:"address" default:"0.0.0.0:0"`
	QueueSize  int           `yaml:"queueSize" json:"queueSize" default:"64"`
	ReadBuffer int           `yaml:"readBuffer" json:"readBuffer" default:"2048"`
	Quarantine time.Duration `yaml:"quarantine" json:"quarantine" default:"5s"`
}

const defaultQuarantine = 5 * time.Second

//Stats are the traffic counters of a client
type Stats struct {
	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

type packet struct {
	src  *net.UDPAddr
	data []byte
}

//Client owns one UDP socket and the loop driving it. One goroutine
//reads datagrams, an other one sends the submitted requests and
//dispatches the responses to their transactions. A stopped client can
//be started again.
type Client struct {
	cfg          Config
	log          *log.Logger
	transactions *Transactions

	sent     atomic.Uint64
	received atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64

	mu      sync.RWMutex
	running bool
	conn    *net.UDPConn
	outbox  chan *Transaction
	quit    chan struct{}
	wg      sync.WaitGroup
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.L()
	}
	if cfg.Address == "" {
		cfg.Address = "0.0.0.0:0"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = 2048
	}
	if cfg.Quarantine == 0 {
		cfg.Quarantine = defaultQuarantine
	}
	return &Client{
		cfg:          cfg,
		log:          logger.With(log.Any("module", "bacip")),
		transactions: NewTransactions(cfg.Quarantine),
	}
}

//Start binds the local address and spawns the client loop
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyStarted
	}
	laddr, err := net.ResolveUDPAddr("udp4", c.cfg.Address)
	if err != nil {
		return fmt.Errorf("local address %q: %w", c.cfg.Address, err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.outbox = make(chan *Transaction, c.cfg.QueueSize)
	c.quit = make(chan struct{})
	c.running = true

	inbox := make(chan packet, c.cfg.QueueSize)
	c.wg.Add(2)
	go c.listen(conn, inbox, c.quit)
	go c.dispatch(conn, c.outbox, inbox, c.quit)
	c.log.Info("bacnet client started", log.Any("address", conn.LocalAddr().String()))
	return nil
}

//LocalAddr is the bound address, nil when not running
func (c *Client) LocalAddr() *net.UDPAddr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.running {
		return nil
	}
	return c.conn.LocalAddr().(*net.UDPAddr)
}

//Submit hands a ReadProperty request for destination to the client
//loop and returns its transaction immediately. The destination is
//parsed by the loop, a malformed one fails the transaction. When the
//queue is full the transaction fails with ErrQueueFull.
func (c *Client) Submit(destination string, request ReadProperty) *Transaction {
	tx := NewTransaction(destination, request)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.running {
		c.failed.Inc()
		tx.Fail(ErrNotRunning)
		return tx
	}
	select {
	case c.outbox <- tx:
	default:
		c.failed.Inc()
		tx.Fail(ErrQueueFull)
	}
	return tx
}

//Stop terminates the client loop. It returns once both goroutines have
//exited and every queued or pending transaction has been failed with
//ErrStopped.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	c.running = false
	close(c.quit)
	err := c.conn.Close()
	c.wg.Wait()

	for drained := false; !drained; {
		select {
		case tx := <-c.outbox:
			tx.Fail(ErrStopped)
		default:
			drained = true
		}
	}
	for _, tx := range c.transactions.Pending() {
		tx.Fail(ErrStopped)
	}
	c.log.Info("bacnet client stopped", log.Any("stats", c.Stats()))
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) Stats() Stats {
	return Stats{
		Sent:     c.sent.Load(),
		Received: c.received.Load(),
		Dropped:  c.dropped.Load(),
		Failed:   c.failed.Load(),
	}
}

// listen for incoming bacnet packets.
func (c *Client) listen(conn *net.UDPConn, inbox chan<- packet, quit <-chan struct{}) {
	defer c.wg.Done()
	for {
		b := make([]byte, c.cfg.ReadBuffer)
		n, addr, err := conn.ReadFromUDP(b)
		if err != nil {
			select {
			case <-quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			c.log.Warn("failed to read datagram", log.Error(err))
			continue
		}
		select {
		case inbox <- packet{src: addr, data: b[:n]}:
		case <-quit:
			return
		}
	}
}

func (c *Client) dispatch(conn *net.UDPConn, outbox <-chan *Transaction, inbox <-chan packet, quit <-chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-quit:
			return
		case tx := <-outbox:
			c.send(conn, tx)
		case p := <-inbox:
			c.handleMessage(p)
		}
	}
}

func (c *Client) send(conn *net.UDPConn, tx *Transaction) {
	select {
	case <-tx.Done():
		//given up by its owner while queued
		return
	default:
	}
	addr, err := bacnet.ParseUDPAddr(tx.Destination)
	if err != nil {
		c.fail(tx, err)
		return
	}
	tx.addr = addr
	invokeID, err := c.transactions.Register(tx)
	if errors.Is(err, errResolved) {
		return
	}
	if err != nil {
		c.fail(tx, err)
		return
	}
	request := tx.Request
	data, err := BVLC{
		Type:     TypeBacnetIP,
		Function: BacFuncUnicast,
		NPDU: NPDU{
			Version:        Version1,
			ExpectingReply: true,
			Priority:       Normal,
			APDU: &APDU{
				DataType:    ConfirmedServiceRequest,
				ServiceType: ServiceConfirmedReadProperty,
				InvokeID:    invokeID,
				Payload:     &request,
			},
		},
	}.MarshalBinary()
	if err != nil {
		c.fail(tx, err)
		return
	}
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		c.fail(tx, fmt.Errorf("send to %s: %w", addr, err))
		return
	}
	c.sent.Inc()
	c.log.Debug("request sent",
		log.Any("address", addr.String()),
		log.Any("invokeID", invokeID),
		log.Any("object", tx.Request.ObjectID.String()),
		log.Any("property", tx.Request.Property.String()))
}

func (c *Client) fail(tx *Transaction, err error) {
	if tx.Fail(err) {
		c.failed.Inc()
	}
}

func (c *Client) handleMessage(p packet) {
	var bvlc BVLC
	err := bvlc.UnmarshalBinary(p.data)
	apdu := bvlc.NPDU.APDU
	if apdu == nil || !apdu.DataType.IsResponse() {
		c.dropped.Inc()
		if err != nil {
			c.log.Debug("dropped undecodable datagram", log.Any("source", p.src.String()), log.Error(err))
		}
		return
	}
	c.received.Inc()
	src := p.src
	if bvlc.Origin != nil {
		origin := bacnet.UDPFromAddress(*bvlc.Origin)
		src = &origin
	}
	tx, ok := c.transactions.Get(apdu.InvokeID)
	if !ok || !sameEndpoint(tx.addr, src) {
		c.dropped.Inc()
		c.log.Debug("dropped unmatched response",
			log.Any("source", src.String()),
			log.Any("invokeID", apdu.InvokeID),
			log.Any("type", apdu.DataType.String()))
		return
	}
	if err != nil {
		c.fail(tx, fmt.Errorf("decode %s: %w", apdu.DataType, err))
		return
	}
	if !tx.Complete(*apdu) {
		c.dropped.Inc()
	}
}

func sameEndpoint(a, b *net.UDPAddr) bool {
	return a != nil && b != nil && a.Port == b.Port && a.IP.Equal(b.IP)
}
