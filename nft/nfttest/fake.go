// Package nfttest provides an in-memory NFT service for tests.
package nfttest

import (
	"context"
	"fmt"
	"sync"

	"nft-wager-arena/models"
	"nft-wager-arena/nft"
)

// Call is one request received by the fake.
type Call struct {
	Kind    string
	TxID    uint64
	To      models.ActorID
	TokenID models.TokenID
}

// Service is a programmable in-memory NFT service. Tokens are owned by
// actor ids; the arena (Operator) may move a token it owns or was approved for.
type Service struct {
	Operator models.ActorID

	mu        sync.Mutex
	owners    map[models.TokenID]models.ActorID
	approvals map[models.TokenID]map[models.ActorID]bool
	nextToken models.TokenID
	calls     []Call

	// Down makes every call undeliverable.
	Down bool
	// FailTransfers makes the service reject transfers.
	FailTransfers bool
	// WrongReply makes every call answer with an event of the wrong shape.
	WrongReply bool
	// TransferGate, when set, blocks each transfer until a value is received.
	TransferGate chan struct{}
}

func New(operator models.ActorID) *Service {
	return &Service{
		Operator:  operator,
		owners:    make(map[models.TokenID]models.ActorID),
		approvals: make(map[models.TokenID]map[models.ActorID]bool),
		nextToken: 1,
	}
}

// Dialer returns the same fake for every address.
func (s *Service) Dialer() nft.Dialer {
	return func(models.ActorID) nft.Service { return s }
}

// Give assigns a token to owner, as if it had been minted earlier.
func (s *Service) Give(owner models.ActorID, tokenID models.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[tokenID] = owner
	if tokenID >= s.nextToken {
		s.nextToken = tokenID + 1
	}
}

// Approve records that owner approved delegate to move tokenID.
func (s *Service) Approve(delegate models.ActorID, tokenID models.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approvals[tokenID] == nil {
		s.approvals[tokenID] = make(map[models.ActorID]bool)
	}
	s.approvals[tokenID][delegate] = true
}

func (s *Service) SetFailTransfers(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailTransfers = fail
}

func (s *Service) OwnerOf(tokenID models.TokenID) models.ActorID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owners[tokenID]
}

func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Service) record(c Call) (down, wrong bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.Down, s.WrongReply
}

func (s *Service) Mint(_ context.Context, txID uint64, _ models.TokenMetadata) (nft.Event, error) {
	down, wrong := s.record(Call{Kind: "Mint", TxID: txID})
	if down {
		return nft.Event{}, nft.ErrUndeliverable
	}
	if wrong {
		return nft.ApprovalReply(s.Operator, 0, true), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextToken
	s.nextToken++
	s.owners[id] = s.Operator
	return nft.TransferReply("", s.Operator, id), nil
}

func (s *Service) Transfer(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (nft.Event, error) {
	down, wrong := s.record(Call{Kind: "Transfer", TxID: txID, To: to, TokenID: tokenID})
	if s.TransferGate != nil {
		select {
		case <-s.TransferGate:
		case <-ctx.Done():
			return nft.Event{}, fmt.Errorf("%w: %v", nft.ErrUndeliverable, ctx.Err())
		}
	}
	if down {
		return nft.Event{}, nft.ErrUndeliverable
	}
	if wrong {
		return nft.ApprovalReply(to, tokenID, true), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTransfers {
		return nft.Event{}, fmt.Errorf("%w: transfers disabled", nft.ErrRejected)
	}
	from, ok := s.owners[tokenID]
	if !ok {
		return nft.Event{}, fmt.Errorf("%w: token %d does not exist", nft.ErrRejected, tokenID)
	}
	if from != s.Operator && !s.approvals[tokenID][s.Operator] {
		return nft.Event{}, fmt.Errorf("%w: operator may not move token %d", nft.ErrRejected, tokenID)
	}
	s.owners[tokenID] = to
	delete(s.approvals, tokenID)
	return nft.TransferReply(from, to, tokenID), nil
}

func (s *Service) IsApproved(_ context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (nft.Event, error) {
	down, wrong := s.record(Call{Kind: "IsApproved", TxID: txID, To: to, TokenID: tokenID})
	if down {
		return nft.Event{}, nft.ErrUndeliverable
	}
	if wrong {
		return nft.TransferReply(to, to, tokenID), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return nft.ApprovalReply(to, tokenID, s.approvals[tokenID][to]), nil
}
