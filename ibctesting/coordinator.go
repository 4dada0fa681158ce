// Package ibctesting drives two simulated chains and relays packets between
// them, standing in for relayer infrastructure in tests.
package ibctesting

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/app"
	"github.com/CosmWasm/wasmsim/types"
)

// DefaultBlockTime is how far a chain's clock moves per committed block.
const DefaultBlockTime = 5 * time.Second

// Coordinator owns the chains of one test scenario.
type Coordinator struct {
	t      *testing.T
	chains map[string]*TestChain
}

// NewCoordinator creates n fresh chains named testchain-1..n.
func NewCoordinator(t *testing.T, n int, builders ...*app.Builder) *Coordinator {
	t.Helper()
	chains := make(map[string]*TestChain, n)
	for i := 0; i < n; i++ {
		chainID := chainID(i + 1)
		var builder *app.Builder
		if i < len(builders) && builders[i] != nil {
			builder = builders[i]
		} else {
			builder = app.NewBuilder()
		}
		chains[chainID] = NewTestChain(t, builder.WithIBC().WithChainID(chainID).Build(), chainID)
	}
	return &Coordinator{t: t, chains: chains}
}

func chainID(index int) string {
	return fmt.Sprintf("testchain-%d", index)
}

// GetChain returns the chain by id and fails the test for unknown ids.
func (c *Coordinator) GetChain(chainID string) *TestChain {
	chain, ok := c.chains[chainID]
	require.True(c.t, ok, "chain %s not found", chainID)
	return chain
}

// CommitBlock moves all given chains one block forward.
func (c *Coordinator) CommitBlock(chains ...*TestChain) {
	for _, chain := range chains {
		chain.App.AdvanceBlock(1, DefaultBlockTime)
	}
}

// CreateChannel runs the full four step handshake over the path and fills in
// the channel ids and negotiated versions on both endpoints.
func (c *Coordinator) CreateChannel(path *Path) {
	c.t.Helper()
	a, b := path.EndpointA, path.EndpointB

	var initChannel ibcChannel
	_, err := a.Chain.App.RunTx(func(ctx types.Context) error {
		channel, err := a.Chain.App.IBC.ChanOpenInit(ctx, a.PortID, b.PortID, path.Order, path.Version, a.ConnectionID)
		initChannel = ibcChannel{ID: channel.ChannelID, Version: channel.Version}
		return err
	})
	require.NoError(c.t, err, "chan open init")
	a.ChannelID = initChannel.ID

	var tryChannel ibcChannel
	_, err = b.Chain.App.RunTx(func(ctx types.Context) error {
		channel, err := b.Chain.App.IBC.ChanOpenTry(ctx, b.PortID, a.PortID, a.ChannelID, path.Order, initChannel.Version, b.ConnectionID)
		tryChannel = ibcChannel{ID: channel.ChannelID, Version: channel.Version}
		return err
	})
	require.NoError(c.t, err, "chan open try")
	b.ChannelID = tryChannel.ID

	_, err = a.Chain.App.RunTx(func(ctx types.Context) error {
		return a.Chain.App.IBC.ChanOpenAck(ctx, a.ChannelID, b.ChannelID, tryChannel.Version)
	})
	require.NoError(c.t, err, "chan open ack")

	_, err = b.Chain.App.RunTx(func(ctx types.Context) error {
		return b.Chain.App.IBC.ChanOpenConfirm(ctx, b.ChannelID)
	})
	require.NoError(c.t, err, "chan open confirm")

	path.Version = tryChannel.Version
	c.CommitBlock(a.Chain, b.Chain)
}

type ibcChannel struct {
	ID      string
	Version string
}

// RelayAndAckPendingPackets relays every pending packet from the A side to
// the B side and plays the resulting acks back to A. Packets acknowledged
// asynchronously stay outstanding on A.
func (c *Coordinator) RelayAndAckPendingPackets(path *Path) {
	c.t.Helper()
	a, b := path.EndpointA, path.EndpointB
	relayer := b.Chain.SenderAccount

	pending := a.Chain.App.IBC.PendingSendPackets(a.Chain.App.Context(), a.ChannelID)
	for _, packet := range pending {
		packet := packet
		var ack []byte
		_, err := b.Chain.App.RunTx(func(ctx types.Context) error {
			var err error
			ack, err = b.Chain.App.IBC.RecvPacket(ctx, packet, relayer)
			return err
		})
		require.NoError(c.t, err, "recv packet %d", packet.Sequence)

		_, err = a.Chain.App.RunTx(func(ctx types.Context) error {
			a.Chain.App.IBC.MarkPacketRelayed(ctx, a.ChannelID, packet.Sequence)
			return nil
		})
		require.NoError(c.t, err)

		if ack == nil {
			continue
		}
		_, err = a.Chain.App.RunTx(func(ctx types.Context) error {
			return a.Chain.App.IBC.AcknowledgePacket(ctx, packet, ack, relayer)
		})
		require.NoError(c.t, err, "ack packet %d", packet.Sequence)
	}
	c.CommitBlock(a.Chain, b.Chain)
}

// RelayPendingAcks plays acks written on the B side after the fact (async
// acknowledgements) back to the A side for the given sequences.
func (c *Coordinator) RelayPendingAcks(path *Path, sequences ...uint64) {
	c.t.Helper()
	a, b := path.EndpointA, path.EndpointB

	for _, sequence := range sequences {
		ack, ok := b.Chain.App.IBC.GetAcknowledgement(b.Chain.App.Context(), b.ChannelID, sequence)
		require.True(c.t, ok, "no ack for sequence %d", sequence)

		packet, ok := a.Chain.App.IBC.SentPacket(a.Chain.App.Context(), a.ChannelID, sequence)
		require.True(c.t, ok, "packet %d not outstanding", sequence)

		_, err := a.Chain.App.RunTx(func(ctx types.Context) error {
			return a.Chain.App.IBC.AcknowledgePacket(ctx, packet, ack, b.Chain.SenderAccount)
		})
		require.NoError(c.t, err, "ack packet %d", sequence)
	}
}

// TimeoutPendingPackets expires every pending packet on the A side without
// delivering it. The B chain is moved past each packet's deadline first and
// checked for non-receipt, then the timeout is played on A with B's height
// and time. Ordered channels close as a consequence.
func (c *Coordinator) TimeoutPendingPackets(path *Path) {
	c.t.Helper()
	a, b := path.EndpointA, path.EndpointB
	relayer := a.Chain.SenderAccount

	pending := a.Chain.App.IBC.PendingSendPackets(a.Chain.App.Context(), a.ChannelID)
	for _, packet := range pending {
		packet := packet
		require.False(c.t, packet.Timeout.Timestamp == 0 && packet.Timeout.Block == nil,
			"packet %d has no deadline and can never time out", packet.Sequence)
		c.advancePastDeadline(b.Chain, packet.Timeout)
		require.False(c.t, b.Chain.App.IBC.HasReceipt(b.Chain.App.Context(), packet.Dest.ChannelID, packet.Sequence),
			"packet %d was received on the destination", packet.Sequence)

		destHeight, destTime := b.Chain.App.BlockHeight(), b.Chain.App.BlockTime()
		_, err := a.Chain.App.RunTx(func(ctx types.Context) error {
			a.Chain.App.IBC.MarkPacketRelayed(ctx, a.ChannelID, packet.Sequence)
			return a.Chain.App.IBC.TimeoutPacket(ctx, packet, destHeight, destTime, relayer)
		})
		require.NoError(c.t, err, "timeout packet %d", packet.Sequence)
	}
	c.CommitBlock(a.Chain)
}

// advancePastDeadline commits blocks on the chain until both limits of the
// timeout are behind it.
func (c *Coordinator) advancePastDeadline(chain *TestChain, timeout wasmvmtypes.IBCTimeout) {
	if ts := timeout.Timestamp; ts != 0 {
		if wait := time.Unix(0, int64(ts)).Sub(chain.App.BlockTime()); wait >= 0 {
			chain.App.AdvanceBlock(int64(wait/DefaultBlockTime)+1, DefaultBlockTime)
		}
	}
	if blk := timeout.Block; blk != nil {
		if missing := int64(blk.Height) - chain.App.BlockHeight(); missing >= 0 {
			chain.App.AdvanceBlock(missing+1, DefaultBlockTime)
		}
	}
}

// Path connects two endpoints for one channel.
type Path struct {
	EndpointA *Endpoint
	EndpointB *Endpoint
	Order     wasmvmtypes.IBCOrder
	Version   string
}

// NewPath builds an unordered path between the two chains, ports filled in by
// the caller.
func NewPath(chainA, chainB *TestChain) *Path {
	path := &Path{
		EndpointA: &Endpoint{Chain: chainA, ConnectionID: "connection-0"},
		EndpointB: &Endpoint{Chain: chainB, ConnectionID: "connection-0"},
		Order:     wasmvmtypes.Unordered,
	}
	path.EndpointA.Counterparty = path.EndpointB
	path.EndpointB.Counterparty = path.EndpointA
	return path
}

// Invert flips the path so relay helpers operate in the other direction.
func (p *Path) Invert() *Path {
	return &Path{EndpointA: p.EndpointB, EndpointB: p.EndpointA, Order: p.Order, Version: p.Version}
}

// Endpoint is one side of a path.
type Endpoint struct {
	Chain        *TestChain
	Counterparty *Endpoint
	PortID       string
	ChannelID    string
	ConnectionID string
}
