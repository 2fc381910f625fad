package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"nft-wager-arena/models"
	"nft-wager-arena/nft"
	"nft-wager-arena/nft/nfttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchHigherPowerWins(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice", "bob")
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)

	reply := handle(t, a, "alice", enter(1, 5))
	assert.Equal(t, EventMatchCreated, reply.Event)
	require.NotNil(t, reply.MatchID)
	assert.Equal(t, models.MatchRef(0), *reply.MatchID)

	st := dump(t, a)
	require.NotNil(t, st.Accounts["alice"].CurrentMatch)
	assert.Equal(t, models.MatchRef(0), *st.Accounts["alice"].CurrentMatch)
	assert.Equal(t, []models.MatchRef{0}, st.WaitingQueue)

	reply = handle(t, a, "bob", enter(2, 3))
	assert.Equal(t, EventMatchFinished, reply.Event)
	assert.Equal(t, models.ActorID("alice"), reply.Winner)
	assert.Equal(t, models.ActorID("bob"), reply.Loser)
	require.NotNil(t, reply.TokenID)
	assert.Equal(t, models.TokenID(2), *reply.TokenID)
	assert.Equal(t, models.ActorID("alice"), fake.OwnerOf(2))

	st = dump(t, a)
	assert.Empty(t, st.WaitingQueue)
	assert.Empty(t, st.PendingTransfers)
	for _, user := range []models.ActorID{"alice", "bob"} {
		assert.Nil(t, st.Accounts[user].CurrentMatch)
		assert.Equal(t, []models.MatchRef{0}, st.Accounts[user].PastMatches)
	}
	match := st.Matches[0]
	require.NotNil(t, match.PlayerTwo)
	assert.Equal(t, models.StakedEntry{User: "bob", StakedTokenID: 2, Power: 3}, *match.PlayerTwo)
	assert.Equal(t, models.MatchState{Kind: models.MatchFinished, Winner: "alice", Loser: "bob"}, match.State)
}

func TestMatchTieGoesToJoiningPlayer(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice", "bob")
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)

	handle(t, a, "alice", enter(1, 4))
	reply := handle(t, a, "bob", enter(2, 4))

	assert.Equal(t, EventMatchFinished, reply.Event)
	assert.Equal(t, models.ActorID("bob"), reply.Winner)
	assert.Equal(t, models.TokenID(1), *reply.TokenID)
	assert.Equal(t, models.ActorID("bob"), fake.OwnerOf(1))
}

func TestEnterMatchRejections(t *testing.T) {
	t.Run("not registered", func(t *testing.T) {
		a, fake := newTestArena(t)
		stake(fake, "alice", 1)

		assert.Equal(t, EventNotRegistered, handle(t, a, "alice", enter(1, 1)).Event)
		assert.Empty(t, fake.Calls())
	})

	t.Run("token not approved", func(t *testing.T) {
		a, fake := newTestArena(t)
		register(t, a, "alice")
		fake.Give("alice", 1)

		assert.Equal(t, EventNotApproved, handle(t, a, "alice", enter(1, 1)).Event)
		assert.Empty(t, dump(t, a).Matches)
	})

	t.Run("service down reads as not approved", func(t *testing.T) {
		a, fake := newTestArena(t)
		register(t, a, "alice")
		stake(fake, "alice", 1)
		fake.Down = true

		assert.Equal(t, EventNotApproved, handle(t, a, "alice", enter(1, 1)).Event)
		assert.Empty(t, dump(t, a).Matches)
	})

	t.Run("already in a match", func(t *testing.T) {
		a, fake := newTestArena(t)
		register(t, a, "alice")
		stake(fake, "alice", 1)
		stake(fake, "alice", 2)

		handle(t, a, "alice", enter(1, 1))
		assert.Equal(t, EventAlreadyInMatch, handle(t, a, "alice", enter(2, 1)).Event)
		assert.Len(t, dump(t, a).Matches, 1)
	})
}

func TestWaitingQueueIsLastInFirstOut(t *testing.T) {
	fake := nfttest.New(arenaID)
	addr := nftAddr
	ref0, ref1 := models.MatchRef(0), models.MatchRef(1)
	a := Restore(models.ArenaState{
		Owner:      owner,
		NFTService: &addr,
		Matches: []models.Match{
			{PlayerOne: models.StakedEntry{User: "alice", StakedTokenID: 1, Power: 2}, State: models.MatchState{Kind: models.MatchInProgress}},
			{PlayerOne: models.StakedEntry{User: "bob", StakedTokenID: 2, Power: 2}, State: models.MatchState{Kind: models.MatchInProgress}},
		},
		WaitingQueue: []models.MatchRef{0, 1},
		Accounts: map[models.ActorID]models.UserAccount{
			"alice": {CurrentMatch: &ref0, PastMatches: []models.MatchRef{}},
			"bob":   {CurrentMatch: &ref1, PastMatches: []models.MatchRef{}},
		},
	}, Options{Self: arenaID, Dial: fake.Dialer(), Log: quietLog()})
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)
	register(t, a, "carol")
	stake(fake, "carol", 3)

	reply := handle(t, a, "carol", enter(3, 1))
	assert.Equal(t, EventMatchFinished, reply.Event)
	assert.Equal(t, ref1, *reply.MatchID)
	assert.Equal(t, models.ActorID("bob"), reply.Winner)

	st := dump(t, a)
	assert.Equal(t, []models.MatchRef{0}, st.WaitingQueue)
	assert.Equal(t, ref0, *st.Accounts["alice"].CurrentMatch)
}

func TestFailedRewardBecomesPendingAndIsRetried(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice", "bob")
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)

	handle(t, a, "alice", enter(1, 9))
	fake.SetFailTransfers(true)

	reply := handle(t, a, "bob", enter(2, 1))
	assert.Equal(t, EventTransferPending, reply.Event)
	assert.Equal(t, models.TokenID(2), *reply.TokenID)

	st := dump(t, a)
	assert.Equal(t, models.PendingTransfer{OwedTo: "alice", TokenID: 2}, st.PendingTransfers["bob"])
	assert.Equal(t, models.MatchFinished, st.Matches[0].State.Kind)
	assert.Nil(t, st.Accounts["bob"].CurrentMatch)

	// Still failing: the entry stays and no new match is created.
	stake(fake, "bob", 3)
	reply = handle(t, a, "bob", enter(3, 1))
	assert.Equal(t, EventTransferStillPending, reply.Event)
	assert.Equal(t, models.TokenID(2), *reply.TokenID)
	st = dump(t, a)
	assert.Equal(t, models.PendingTransfer{OwedTo: "alice", TokenID: 2}, st.PendingTransfers["bob"])
	assert.Len(t, st.Matches, 1)

	fake.SetFailTransfers(false)
	reply = handle(t, a, "bob", enter(3, 1))
	assert.Equal(t, EventTransferSucceeded, reply.Event)
	assert.Equal(t, models.TokenID(2), *reply.TokenID)
	assert.Equal(t, models.ActorID("alice"), fake.OwnerOf(2))

	st = dump(t, a)
	assert.Empty(t, st.PendingTransfers)
	assert.Len(t, st.Matches, 1)
	assert.Nil(t, st.Accounts["bob"].CurrentMatch)
}

func TestUnexpectedReplyAbortsRequest(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice")
	stake(fake, "alice", 1)
	fake.WrongReply = true

	_, err := a.Handle(context.Background(), "alice", enter(1, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedReply)
	assert.True(t, IsAborted(err))
	assert.Empty(t, dump(t, a).Matches)
}

func TestUnexpectedTransferReplyKeepsDebt(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice", "bob")
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)
	handle(t, a, "alice", enter(1, 9))

	// Approval replies stay well-formed; only the transfer answers wrongly.
	a.escrow.client = wrongTransfer{fake}

	_, err := a.Handle(context.Background(), "bob", enter(2, 1))
	assert.ErrorIs(t, err, ErrUnexpectedReply)
	assert.Equal(t, models.PendingTransfer{OwedTo: "alice", TokenID: 2}, dump(t, a).PendingTransfers["bob"])
}

func TestTransactionIDsNeverRepeat(t *testing.T) {
	a, fake := newTestArena(t)
	users := []models.ActorID{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	register(t, a, users...)
	for i, u := range users {
		stake(fake, u, models.TokenID(i+1))
	}

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(u models.ActorID, tokenID models.TokenID, power uint8) {
			defer wg.Done()
			_, err := a.Handle(context.Background(), u, enter(tokenID, power))
			assert.NoError(t, err)
		}(u, models.TokenID(i+1), uint8(i))
	}
	wg.Wait()

	calls := fake.Calls()
	seen := make(map[uint64]bool, len(calls))
	for _, c := range calls {
		assert.False(t, seen[c.TxID], "transaction id %d reused", c.TxID)
		seen[c.TxID] = true
	}
	assert.Equal(t, uint64(len(calls)), dump(t, a).TransactionID)
}

func TestRequestsRunWhileTransferIsInFlight(t *testing.T) {
	a, fake := newTestArena(t)
	register(t, a, "alice", "bob")
	stake(fake, "alice", 1)
	stake(fake, "bob", 2)
	handle(t, a, "alice", enter(1, 9))

	gate := make(chan struct{})
	fake.TransferGate = gate

	done := make(chan Reply, 1)
	go func() {
		reply, err := a.Handle(context.Background(), "bob", enter(2, 1))
		assert.NoError(t, err)
		done <- reply
	}()

	require.Eventually(t, func() bool {
		for _, c := range fake.Calls() {
			if c.Kind == "Transfer" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	// Bob's request is suspended on the reward transfer; the match is already final.
	st := dump(t, a)
	assert.Equal(t, models.MatchFinished, st.Matches[0].State.Kind)
	assert.Nil(t, st.Accounts["alice"].CurrentMatch)
	assert.Equal(t, EventRegistered, handle(t, a, "carol", Action{Kind: ActionRegister}).Event)

	gate <- struct{}{}
	select {
	case reply := <-done:
		assert.Equal(t, EventMatchFinished, reply.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("suspended request never resumed")
	}
	assert.Equal(t, models.ActorID("alice"), fake.OwnerOf(2))
}

// wrongTransfer answers transfers with an approval event.
type wrongTransfer struct {
	*nfttest.Service
}

func (w wrongTransfer) Transfer(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (nft.Event, error) {
	if _, err := w.Service.Transfer(ctx, txID, to, tokenID); err != nil {
		return nft.Event{}, err
	}
	return nft.ApprovalReply(to, tokenID, true), nil
}
