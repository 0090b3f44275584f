package sim

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dvel/src/config"
	"github.com/mosaicnetworks/dvel/src/ledger"
)

// Producer is a scheduled local event emission: at tick Tick, node NodeID
// appends an event under PayloadTag referencing its current tip.
type Producer struct {
	Tick       uint64
	NodeID     string
	PayloadTag string
}

// Network wires a Bus, a set of Nodes and the gossip/delivery policies
// together, and drives them through the three-phase per-tick order of
// spec.md §5: (1) producers emit and gossip, (2) the bus delivers due
// messages, (3) nodes drain their inboxes.
type Network struct {
	Bus           *Bus
	Nodes         map[string]*Node
	Peers         []string
	Gossip        GossipPolicy
	DeliverPolicy DeliveryPolicy

	logger *logrus.Entry
}

// NewNetwork builds an empty network over the given node IDs. Peers is
// recorded in sorted order so that BroadcastAllPolicy/AllowlistOnlyPolicy
// fan-out is itself deterministic.
func NewNetwork(cfg *config.Config, ids []string, gossip GossipPolicy, deliver DeliveryPolicy, logger *logrus.Entry) *Network {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if gossip == nil {
		gossip = BroadcastAllPolicy{}
	}
	if deliver == nil {
		deliver = HonestDeliveryPolicy{}
	}

	peers := append([]string(nil), ids...)
	sort.Strings(peers)

	nodes := make(map[string]*Node, len(ids))

	return &Network{
		Bus:           NewBus(cfg.BusDelay),
		Nodes:         nodes,
		Peers:         peers,
		Gossip:        gossip,
		DeliverPolicy: deliver,
		logger:        logger,
	}
}

// AddNode registers n under its ID.
func (net *Network) AddNode(n *Node) {
	net.Nodes[n.ID] = n
}

// Emit builds a new event on producer's node, links it locally, and gossips
// it to peers via net.Gossip (spec.md §5 phase 1).
func (net *Network) Emit(now uint64, p Producer, prev ledger.Digest, payloadTag string) ledger.Digest {
	node, ok := net.Nodes[p.NodeID]
	if !ok {
		net.logger.WithField("node", p.NodeID).Warn("emit: unknown node")
		return ledger.Digest{}
	}

	e := node.MakeEvent(now, prev, payloadTag)
	digest := node.LocalAppend(now, e)

	net.Gossip.Gossip(p.NodeID, net.Peers, func(to string, delay *uint64) {
		net.Bus.Send(Message{From: p.NodeID, To: to, Event: e}, now, delay)
	})

	return digest
}

// Deliver runs bus delivery for tick now (spec.md §5 phase 2), pushing every
// allowed message straight into its recipient's inbox.
func (net *Network) Deliver(now uint64) {
	net.Bus.Deliver(now, net.DeliverPolicy, func(msg Message) {
		if node, ok := net.Nodes[msg.To]; ok {
			node.InboxPush(msg)
		}
	})
}

// Drain runs inbox processing for every node (spec.md §5 phase 3).
func (net *Network) Drain(now uint64) {
	for _, id := range net.Peers {
		if node, ok := net.Nodes[id]; ok {
			node.ProcessInbox(now, net.DeliverPolicy)
		}
	}
}

// Tick runs one full phase-ordered tick: the caller-supplied emit callback
// (phase 1, producer emission and gossip), then bus delivery (phase 2), then
// every node's inbox drain (phase 3).
func (net *Network) Tick(now uint64, emit func(now uint64)) {
	if emit != nil {
		emit(now)
	}
	net.Deliver(now)
	net.Drain(now)
}

// RunTicks drives the network from startTick through startTick+count-1
// inclusive, running any Producer scheduled for each tick before delivery
// and drain.
func (net *Network) RunTicks(startTick, count uint64, producers []Producer, payloadTag func(Producer) string, prevFor func(nodeID string) ledger.Digest) {
	byTick := make(map[uint64][]Producer)
	for _, p := range producers {
		byTick[p.Tick] = append(byTick[p.Tick], p)
	}

	for tick := startTick; tick < startTick+count; tick++ {
		due := byTick[tick]
		net.Tick(tick, func(now uint64) {
			for _, p := range due {
				tag := p.PayloadTag
				if payloadTag != nil {
					tag = payloadTag(p)
				}
				prev := net.Nodes[p.NodeID].CurrentTipOrZero()
				if prevFor != nil {
					prev = prevFor(p.NodeID)
				}
				net.Emit(now, p, prev, tag)
			}
		})
	}
}

// UniquePreferredTips returns the count of distinct preferred tips across
// every node at tick now — the periodic convergence snapshot of spec.md §7.
func (net *Network) UniquePreferredTips(now uint64) int {
	seen := make(map[ledger.Digest]struct{})
	for _, id := range net.Peers {
		node, ok := net.Nodes[id]
		if !ok {
			continue
		}
		if tip, ok := node.PreferredTip(now); ok {
			seen[tip] = struct{}{}
		}
	}
	return len(seen)
}
