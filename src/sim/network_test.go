package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/dvel/src/config"
	"github.com/mosaicnetworks/dvel/src/crypto"
	"github.com/mosaicnetworks/dvel/src/trace"
)

func testNetwork(t *testing.T, ids []string, gossip GossipPolicy, deliver DeliveryPolicy) *Network {
	cfg := config.NewDefaultConfig()
	cfg.BusDelay = 1
	net := NewNetwork(cfg, ids, gossip, deliver, nil)
	for _, id := range ids {
		var seed [crypto.Size]byte
		seed[0] = byte(len(net.Nodes) + 1)
		node, err := NewNode(id, seed, cfg, trace.NewRecorder(), nil)
		require.NoError(t, err)
		net.AddNode(node)
	}
	return net
}

// TestBaselineThreeNodeHonest covers spec.md §8 scenario 1.
func TestBaselineThreeNodeHonest(t *testing.T) {
	net := testNetwork(t, []string{"A", "B", "C"}, BroadcastAllPolicy{}, HonestDeliveryPolicy{})

	e1 := net.Emit(1, Producer{NodeID: "A"}, crypto.ZeroDigest, "e1")
	net.Tick(2, nil)

	e2 := net.Emit(3, Producer{NodeID: "B"}, e1, "e2")
	net.Tick(4, nil)

	e3 := net.Emit(5, Producer{NodeID: "C"}, e2, "e3")
	for tick := uint64(6); tick <= 9; tick++ {
		net.Tick(tick, nil)
	}

	for _, id := range []string{"A", "B", "C"} {
		node := net.Nodes[id]
		assert.Equal(t, 3, node.Ledger.Len(), "node %s", id)
		tips := node.Ledger.Tips()
		require.Len(t, tips, 1, "node %s", id)
		assert.Equal(t, e3, tips[0], "node %s", id)

		tip, ok := node.PreferredTip(9)
		require.True(t, ok)
		assert.Equal(t, e3, tip, "node %s", id)
	}
}

// TestOutOfOrderDeliveryConverges covers spec.md §8 scenario 2: delivering
// e3, then e2, then e1 — authored by three distinct peers A, B, C exactly as
// in the baseline scenario — to a node still yields the baseline ledger with
// an empty pending pool, since per-author validation contexts never see a
// sibling's timestamp.
func TestOutOfOrderDeliveryConverges(t *testing.T) {
	cfg := config.NewDefaultConfig()
	var seedA, seedB, seedC [crypto.Size]byte
	seedA[0], seedB[0], seedC[0] = 1, 2, 3

	authorA, err := NewNode("A", seedA, cfg, nil, nil)
	require.NoError(t, err)
	authorB, err := NewNode("B", seedB, cfg, nil, nil)
	require.NoError(t, err)
	authorC, err := NewNode("C", seedC, cfg, nil, nil)
	require.NoError(t, err)

	e1 := authorA.MakeEvent(1, crypto.ZeroDigest, "e1")
	d1 := e1.Digest()
	e2 := authorB.MakeEvent(3, d1, "e2")
	d2 := e2.Digest()
	e3 := authorC.MakeEvent(5, d2, "e3")
	d3 := e3.Digest()

	victim, err := NewNode("victim", seedA, cfg, nil, nil)
	require.NoError(t, err)
	victim.InboxPush(Message{Event: e3})
	victim.InboxPush(Message{Event: e2})
	victim.InboxPush(Message{Event: e1})
	victim.ProcessInbox(10, HonestDeliveryPolicy{})

	assert.Equal(t, 0, victim.Pending.Len())
	assert.Equal(t, 3, victim.Ledger.Len())
	tips := victim.Ledger.Tips()
	require.Len(t, tips, 1)
	assert.Equal(t, d3, tips[0])
}

// TestEquivocationQuarantinesAuthor covers spec.md §8 scenario 3.
func TestEquivocationQuarantinesAuthor(t *testing.T) {
	cfg := config.NewDefaultConfig()
	var seed [crypto.Size]byte
	seed[0] = 9

	node, err := NewNode("n", seed, cfg, nil, nil)
	require.NoError(t, err)
	ex := node.MakeEvent(3, crypto.ZeroDigest, "x")
	ey := node.MakeEvent(3, crypto.ZeroDigest, "y")

	node.LocalAppend(3, ex)
	node.LocalAppend(3, ey)

	author := crypto.DerivePublicKey(seed)
	for tick := uint64(3); tick < 15; tick++ {
		assert.Equal(t, int64(0), node.Overlay.AuthorWeightFP(tick, author), "tick %d", tick)
	}
}

// TestSybilFloodDoesNotOvertakeHonestChain covers spec.md §8 scenario 5 in
// miniature: a flooding author that equivocates at a high rate never
// accumulates nonzero weight once quarantined, so it cannot outweigh an
// honest single-parent chain.
func TestSybilFloodDoesNotOvertakeHonestChain(t *testing.T) {
	cfg := config.NewDefaultConfig()

	var honestSeed, sybilSeed [crypto.Size]byte
	honestSeed[0] = 1
	sybilSeed[0] = 2

	node, err := NewNode("observer", honestSeed, cfg, nil, nil)
	require.NoError(t, err)

	honestAuthor, err := NewNode("honest-author", honestSeed, cfg, nil, nil)
	require.NoError(t, err)
	var prev = crypto.ZeroDigest
	var honestTip crypto.Digest
	for tick := uint64(10); tick < 10+cfg.Sybil.WarmupTicks+5; tick++ {
		e := honestAuthor.MakeEvent(tick, prev, "honest")
		honestTip = node.LocalAppend(tick, e)
		prev = honestTip
	}

	sybilAuthor, err := NewNode("sybil-author", sybilSeed, cfg, nil, nil)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		e := sybilAuthor.MakeEvent(10, crypto.ZeroDigest, string(rune('a'+i)))
		node.LocalAppend(10, e)
	}

	tip, ok := node.PreferredTip(10 + cfg.Sybil.WarmupTicks + 5)
	require.True(t, ok)
	assert.Equal(t, honestTip, tip)
}

// eclipseWindow blocks every message addressed to Victim while now falls in
// [Start, End), modeling spec.md §8 scenario 4's eclipse window.
type eclipseWindow struct {
	Victim     string
	Start, End uint64
}

func (p eclipseWindow) AllowDelivery(msg Message, now uint64) bool {
	if msg.To != p.Victim {
		return true
	}
	return now < p.Start || now >= p.End
}

// TestEclipseRecoversAfterWindowCloses covers spec.md §8 scenario 4: once
// the eclipse window closes, the victim's pending backlog drains and its
// ledger converges on the honest tip.
func TestEclipseRecoversAfterWindowCloses(t *testing.T) {
	policy := eclipseWindow{Victim: "V", Start: 20, End: 80}
	net := testNetwork(t, []string{"H", "V"}, BroadcastAllPolicy{}, policy)

	var prev = crypto.ZeroDigest
	var honestTip crypto.Digest
	for tick := uint64(1); tick <= 100; tick += 5 {
		honestTip = net.Emit(tick, Producer{NodeID: "H"}, prev, "honest")
		prev = honestTip
		net.Tick(tick, nil)
	}
	for tick := uint64(101); tick <= 110; tick++ {
		net.Tick(tick, nil)
	}

	victim := net.Nodes["V"]
	assert.Equal(t, 0, victim.Pending.Len(), "backlog fully drained once the window closes")

	tips := victim.Ledger.Tips()
	require.Len(t, tips, 1)
	assert.Equal(t, honestTip, tips[0])

	tip, ok := victim.PreferredTip(110)
	require.True(t, ok)
	assert.Equal(t, honestTip, tip)
}
