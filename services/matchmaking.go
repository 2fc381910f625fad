package services

import (
	"context"
	"errors"

	"nft-wager-arena/models"

	"github.com/sirupsen/logrus"
)

// MatchmakingEngine pairs staked players and settles the outcome.
type MatchmakingEngine struct {
	state    *State
	registry *Registry
	escrow   *EscrowCoordinator
	log      *logrus.Entry
}

func NewMatchmakingEngine(state *State, registry *Registry, escrow *EscrowCoordinator, log *logrus.Entry) *MatchmakingEngine {
	return &MatchmakingEngine{state: state, registry: registry, escrow: escrow, log: log}
}

// EnterMatch stakes tokenID for user. A debt the user still owes from an
// earlier match is retried first and, if present, consumes the request.
func (m *MatchmakingEngine) EnterMatch(ctx context.Context, user models.ActorID, tokenID models.TokenID, power uint8) (Reply, error) {
	if !m.registry.IsRegistered(user) {
		return Reply{}, ErrNotRegistered
	}

	approved, err := m.escrow.IsDelegateApproved(ctx, m.state.Self, tokenID)
	if errors.Is(err, ErrUnexpectedReply) {
		return Reply{}, err
	}
	if err != nil || !approved {
		return Reply{}, ErrNotApproved
	}

	pending, err := m.escrow.RetryPending(ctx, user)
	if pending != nil {
		switch {
		case err == nil:
			return tokenReply(EventTransferSucceeded, pending.TokenID), nil
		case errors.Is(err, ErrUnexpectedReply):
			return Reply{}, err
		default:
			return tokenReply(EventTransferStillPending, pending.TokenID), nil
		}
	}

	acct := m.registry.Account(user)
	if acct.CurrentMatch != nil {
		return Reply{}, ErrAlreadyInMatch
	}

	entry := models.StakedEntry{User: user, StakedTokenID: tokenID, Power: power}
	if len(m.state.Waiting) == 0 {
		return m.create(entry), nil
	}
	return m.join(ctx, entry)
}

func (m *MatchmakingEngine) create(entry models.StakedEntry) Reply {
	ref := models.MatchRef(len(m.state.Matches))
	m.state.Matches = append(m.state.Matches, models.Match{
		PlayerOne: entry,
		State:     models.MatchState{Kind: models.MatchInProgress},
	})
	m.state.Waiting = append(m.state.Waiting, ref)
	m.registry.SetCurrentMatch(entry.User, ref)
	waitingQueueDepth.Set(float64(len(m.state.Waiting)))

	m.log.WithFields(logrus.Fields{"match_id": ref, "user": entry.User, "token_id": entry.StakedTokenID}).
		Info("[MATCH] 🎮 match created, waiting for opponent")
	return Reply{Event: EventMatchCreated, MatchID: &ref, User: entry.User}
}

// join pairs the joining entry with the most recently queued match.
func (m *MatchmakingEngine) join(ctx context.Context, joining models.StakedEntry) (Reply, error) {
	last := len(m.state.Waiting) - 1
	ref := m.state.Waiting[last]
	m.state.Waiting = m.state.Waiting[:last]
	waitingQueueDepth.Set(float64(len(m.state.Waiting)))

	match := &m.state.Matches[ref]
	match.PlayerTwo = &joining
	waiting := match.PlayerOne

	winner, loser := resolve(waiting, joining)
	match.State = models.MatchState{Kind: models.MatchFinished, Winner: winner.User, Loser: loser.User}
	reward := loser.StakedTokenID

	for _, user := range []models.ActorID{waiting.User, joining.User} {
		m.registry.AppendPastMatch(user, ref)
		m.registry.ClearCurrentMatch(user)
	}

	log := m.log.WithFields(logrus.Fields{"match_id": ref, "winner": winner.User, "loser": loser.User, "token_id": reward})
	log.Info("[MATCH] 🏁 match finished")

	// The match is already final here; other tasks may observe it while the transfer is in flight.
	if err := m.escrow.Transfer(ctx, winner.User, reward); err != nil {
		m.escrow.RecordPending(loser.User, winner.User, reward)
		if errors.Is(err, ErrUnexpectedReply) {
			return Reply{}, err
		}
		reply := tokenReply(EventTransferPending, reward)
		reply.MatchID = &ref
		return reply, nil
	}

	reply := tokenReply(EventMatchFinished, reward)
	reply.MatchID = &ref
	reply.Winner = winner.User
	reply.Loser = loser.User
	return reply, nil
}

// resolve decides the outcome. Strictly higher power wins; a tie goes to the joining player.
func resolve(waiting, joining models.StakedEntry) (winner, loser models.StakedEntry) {
	if waiting.Power > joining.Power {
		return waiting, joining
	}
	return joining, waiting
}
