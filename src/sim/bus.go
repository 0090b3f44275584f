// Package sim implements spec.md §4.6 (component C6): the tick-scheduled
// message bus, gossip and delivery policies, and the node runtime with its
// pending-parent reassembly pool. It is the harness that exercises the
// guarantees of the ledger, validation, sybil and selector packages under
// adversarial network conditions.
package sim

import (
	"container/heap"

	"github.com/mosaicnetworks/dvel/src/ledger"
)

// Message is one gossiped envelope: a signed event travelling from one node
// to another.
type Message struct {
	From  string
	To    string
	Event ledger.Event

	deliverTick uint64
	seq         uint64
}

// DeliverTick returns the tick at which the bus will attempt delivery.
func (m Message) DeliverTick() uint64 { return m.deliverTick }

// Seq returns the message's send-order sequence number, used to break
// same-tick delivery ties (spec.md §5).
func (m Message) Seq() uint64 { return m.seq }

// Bus is a tick-scheduled min-heap of (deliver_tick, sequence_number,
// message), per spec.md §4.6. It is driven synchronously by one goroutine;
// spec.md §5 explicitly rules out locking it.
type Bus struct {
	queue       messageQueue
	seqCounter  uint64
	defaultTick uint64
}

// NewBus builds an empty bus. defaultDelay is used by Send when the caller
// passes a nil delay.
func NewBus(defaultDelay uint64) *Bus {
	return &Bus{defaultTick: defaultDelay}
}

// Send enqueues msg for delivery at now+delay (or now+defaultDelay if delay
// is nil), stamping it with the next sequence number.
func (b *Bus) Send(msg Message, now uint64, delay *uint64) {
	d := b.defaultTick
	if delay != nil {
		d = *delay
	}
	msg.deliverTick = now + d
	msg.seq = b.seqCounter
	b.seqCounter++
	heap.Push(&b.queue, msg)
}

// Deliver pops every message with deliverTick <= now, in (deliverTick, seq)
// order, and invokes push for each. Messages a DeliveryPolicy rejects are
// reinserted for a later tick instead of being dropped.
func (b *Bus) Deliver(now uint64, policy DeliveryPolicy, push func(Message)) {
	var deferred []Message

	for b.queue.Len() > 0 && b.queue[0].deliverTick <= now {
		msg := heap.Pop(&b.queue).(Message)
		if policy != nil && !policy.AllowDelivery(msg, now) {
			deferred = append(deferred, msg)
			continue
		}
		push(msg)
	}

	for _, msg := range deferred {
		heap.Push(&b.queue, msg)
	}
}

// Pending reports how many messages are still in flight.
func (b *Bus) Pending() int {
	return b.queue.Len()
}

// messageQueue implements heap.Interface, ordered by (deliverTick, seq) so
// that within a tick delivery is strict FIFO by send order (spec.md §5).
type messageQueue []Message

func (q messageQueue) Len() int { return len(q) }

func (q messageQueue) Less(i, j int) bool {
	if q[i].deliverTick != q[j].deliverTick {
		return q[i].deliverTick < q[j].deliverTick
	}
	return q[i].seq < q[j].seq
}

func (q messageQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *messageQueue) Push(x interface{}) {
	*q = append(*q, x.(Message))
}

func (q *messageQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
