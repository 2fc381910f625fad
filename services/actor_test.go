package services

import (
	"context"
	"io"
	"testing"

	"nft-wager-arena/models"
	"nft-wager-arena/nft/nfttest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner   models.ActorID = "owner"
	arenaID models.ActorID = "arena"
	nftAddr models.ActorID = "http://nft.local"
)

var testTemplates = map[uint8]models.TokenMetadata{
	0: {Name: "Ember", Description: "fire card", Media: "ember.png", Reference: "ref-0"},
	1: {Name: "Tide", Description: "water card", Media: "tide.png", Reference: "ref-1"},
	2: {Name: "Gale", Description: "air card", Media: "gale.png", Reference: "ref-2"},
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestArena(t *testing.T) (*Actor, *nfttest.Service) {
	t.Helper()
	fake := nfttest.New(arenaID)
	addr := nftAddr
	a := Initialize(owner, testTemplates, &addr, Options{Self: arenaID, Dial: fake.Dialer(), Log: quietLog()})
	return a, fake
}

func handle(t *testing.T, a *Actor, caller models.ActorID, action Action) Reply {
	t.Helper()
	reply, err := a.Handle(context.Background(), caller, action)
	require.NoError(t, err)
	return reply
}

func register(t *testing.T, a *Actor, users ...models.ActorID) {
	t.Helper()
	for _, u := range users {
		require.Equal(t, EventRegistered, handle(t, a, u, Action{Kind: ActionRegister}).Event)
	}
}

// stake gives user a token the arena is approved to move.
func stake(fake *nfttest.Service, user models.ActorID, tokenID models.TokenID) {
	fake.Give(user, tokenID)
	fake.Approve(arenaID, tokenID)
}

func enter(tokenID models.TokenID, power uint8) Action {
	return Action{Kind: ActionEnterMatch, TokenID: tokenID, Power: power}
}

func dump(t *testing.T, a *Actor) models.ArenaState {
	t.Helper()
	st, err := a.Snapshot(context.Background())
	require.NoError(t, err)
	return st
}

func TestRegister(t *testing.T) {
	a, _ := newTestArena(t)

	reply := handle(t, a, "alice", Action{Kind: ActionRegister})
	assert.Equal(t, EventRegistered, reply.Event)
	assert.False(t, reply.Failed())

	reply = handle(t, a, "alice", Action{Kind: ActionRegister})
	assert.Equal(t, EventAlreadyRegistered, reply.Event)
	assert.True(t, reply.Failed())

	st := dump(t, a)
	require.Contains(t, st.Accounts, models.ActorID("alice"))
	assert.Nil(t, st.Accounts["alice"].CurrentMatch)
	assert.Empty(t, st.Accounts["alice"].PastMatches)
	assert.Equal(t, models.DefaultMintState{MintedDefaultIDs: []uint8{}}, st.DefaultMints["alice"])
}

func TestActionsNeedServiceAddress(t *testing.T) {
	fake := nfttest.New(arenaID)
	a := Initialize(owner, nil, nil, Options{Self: arenaID, Dial: fake.Dialer(), Log: quietLog()})

	assert.Equal(t, EventServiceUnavailable, handle(t, a, "alice", Action{Kind: ActionRegister}).Event)

	reply := handle(t, a, "alice", Action{Kind: ActionSetServiceAddress, Address: nftAddr})
	assert.Equal(t, EventNotAuthorized, reply.Event)

	reply = handle(t, a, owner, Action{Kind: ActionSetServiceAddress, Address: nftAddr})
	assert.Equal(t, EventServiceAddressSet, reply.Event)
	assert.Equal(t, EventRegistered, handle(t, a, "alice", Action{Kind: ActionRegister}).Event)

	st := dump(t, a)
	require.NotNil(t, st.NFTService)
	assert.Equal(t, nftAddr, *st.NFTService)
}

func TestUnknownActionIsAborted(t *testing.T) {
	a, _ := newTestArena(t)

	_, err := a.Handle(context.Background(), "alice", Action{Kind: "Dance"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestQuery(t *testing.T) {
	a, _ := newTestArena(t)
	ctx := context.Background()

	out, err := a.Query(ctx, "alice", QueryIdentity)
	require.NoError(t, err)
	assert.Equal(t, models.ActorID("alice"), out.Identity)

	out, err = a.Query(ctx, "alice", QueryDescription)
	require.NoError(t, err)
	assert.Equal(t, Description, out.Description)

	register(t, a, "alice")
	out, err = a.Query(ctx, "bob", QueryAll)
	require.NoError(t, err)
	require.NotNil(t, out.State)
	assert.Equal(t, owner, out.State.Owner)
	assert.Len(t, out.State.Accounts, 1)
	assert.Len(t, out.State.DefaultTemplates, 3)
}

func TestHandleRespectsCancelledContextBeforeStart(t *testing.T) {
	a, _ := newTestArena(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the turn so Handle has to wait for it.
	require.NoError(t, a.turn.acquire(context.Background()))
	defer a.turn.release()

	_, err := a.Handle(ctx, "alice", Action{Kind: ActionRegister})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRestoreKeepsTransactionSequence(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice")
	stake(fake, "alice", 7)
	handle(t, a, "alice", enter(7, 4))

	st := dump(t, a)
	require.Equal(t, uint64(1), st.TransactionID)

	restored := Restore(st, Options{Self: arenaID, Dial: fake.Dialer(), Log: quietLog()})
	register(t, restored, "bob")
	stake(fake, "bob", 8)
	reply := handle(t, restored, "bob", enter(8, 1))
	assert.Equal(t, EventMatchFinished, reply.Event)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []uint64{0, 1, 2}, []uint64{calls[0].TxID, calls[1].TxID, calls[2].TxID})
	assert.Equal(t, uint64(3), dump(t, restored).TransactionID)
}
