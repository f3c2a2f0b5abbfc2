package bacip

import (
	"errors"
	"net"
	"sync"
	"time"
)

var ErrNoInvokeID = errors.New("no free invoke ID")

//errResolved is returned when registering a transaction that already
//completed, typically failed by its owner while queued
var errResolved = errors.New("transaction already resolved")

//Transaction is one confirmed request in flight. It resolves exactly
//once, either with the response APDU or with an error.
type Transaction struct {
	Destination string
	Request     ReadProperty

	//resolved destination, set by the client loop before registration
	addr *net.UDPAddr

	mu       sync.Mutex
	resolved bool
	done     chan struct{}
	apdu     *APDU
	err      error
	release  func(answered bool)
}

func NewTransaction(destination string, request ReadProperty) *Transaction {
	return &Transaction{
		Destination: destination,
		Request:     request,
		done:        make(chan struct{}),
	}
}

//Done is closed once the transaction is resolved
func (t *Transaction) Done() <-chan struct{} {
	return t.done
}

//Result blocks until the transaction is resolved and returns its outcome
func (t *Transaction) Result() (*APDU, error) {
	<-t.done
	return t.apdu, t.err
}

//Complete resolves the transaction with a response. It returns false if
//the transaction was already resolved.
func (t *Transaction) Complete(apdu APDU) bool {
	return t.resolve(&apdu, nil)
}

//Fail resolves the transaction with err. It returns false if the
//transaction was already resolved.
func (t *Transaction) Fail(err error) bool {
	return t.resolve(nil, err)
}

func (t *Transaction) resolve(apdu *APDU, err error) bool {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return false
	}
	t.resolved = true
	t.apdu, t.err = apdu, err
	release := t.release
	t.release = nil
	close(t.done)
	t.mu.Unlock()
	if release != nil {
		release(apdu != nil)
	}
	return true
}

//bind sets the hook run on resolution, unless already resolved
func (t *Transaction) bind(release func(answered bool)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return false
	}
	t.release = release
	return true
}

//Transactions maps invoke IDs to the transactions waiting for a
//response. Responses are matched on invoke ID and endpoint only, so the
//ID of a transaction resolved without an answer is held back for the
//quarantine duration before reuse: a late reply to it must not resolve
//a newer request to the same device.
type Transactions struct {
	sync.Mutex
	currents     map[byte]*Transaction
	freeInvokeID chan byte
	quarantine   time.Duration
}

//NewTransactions returns a pool of the 256 invoke IDs. A zero
//quarantine frees IDs as soon as their transaction resolves.
func NewTransactions(quarantine time.Duration) *Transactions {
	t := Transactions{
		quarantine:   quarantine,
		currents:     map[byte]*Transaction{},
		freeInvokeID: make(chan byte, 256), //The chan should be able to handle all possible values
	}
	for x := 0; x < 256; x++ {
		t.freeInvokeID <- byte(x)
	}
	return &t
}

//Register allocates an invoke ID for tx. The ID goes back to the pool
//when tx is resolved, after the quarantine unless tx was answered.
func (t *Transactions) Register(tx *Transaction) (byte, error) {
	t.Lock()
	var id byte
	select {
	case id = <-t.freeInvokeID:
	default:
		t.Unlock()
		return 0, ErrNoInvokeID
	}
	t.currents[id] = tx
	t.Unlock()
	if !tx.bind(func(answered bool) { t.remove(id, tx, answered) }) {
		t.remove(id, tx, true)
		return 0, errResolved
	}
	return id, nil
}

func (t *Transactions) remove(id byte, tx *Transaction, answered bool) {
	t.Lock()
	defer t.Unlock()
	if cur, ok := t.currents[id]; !ok || cur != tx {
		return
	}
	delete(t.currents, id)
	if answered || t.quarantine <= 0 {
		t.freeInvokeID <- id
		return
	}
	// the pool holds all 256 IDs, the send never blocks
	time.AfterFunc(t.quarantine, func() { t.freeInvokeID <- id })
}

func (t *Transactions) Get(id byte) (*Transaction, bool) {
	t.Lock()
	defer t.Unlock()
	tx, ok := t.currents[id]
	return tx, ok
}

//Len returns the number of transactions waiting for a response
func (t *Transactions) Len() int {
	t.Lock()
	defer t.Unlock()
	return len(t.currents)
}

//Pending returns a snapshot of the registered transactions
func (t *Transactions) Pending() []*Transaction {
	t.Lock()
	defer t.Unlock()
	txs := make([]*Transaction, 0, len(t.currents))
	for _, tx := range t.currents {
		txs = append(txs, tx)
	}
	return txs
}
