package services

import (
	"context"
	"errors"
	"fmt"

	"nft-wager-arena/models"
	"nft-wager-arena/nft"

	"github.com/sirupsen/logrus"
)

// EscrowCoordinator issues every call to the NFT service, tags each one with
// the next transaction id and tracks rewards that are still owed.
type EscrowCoordinator struct {
	state *State
	turn  *turn
	dial  nft.Dialer
	log   *logrus.Entry

	client     nft.Service
	clientAddr models.ActorID
}

func NewEscrowCoordinator(state *State, t *turn, dial nft.Dialer, log *logrus.Entry) *EscrowCoordinator {
	return &EscrowCoordinator{state: state, turn: t, dial: dial, log: log}
}

func (c *EscrowCoordinator) service() (nft.Service, error) {
	if c.state.NFTService == nil {
		return nil, ErrServiceUnavailable
	}
	addr := *c.state.NFTService
	if c.client == nil || c.clientAddr != addr {
		c.client = c.dial(addr)
		c.clientAddr = addr
	}
	return c.client, nil
}

// nextTxID hands out the current sequence value and advances the counter.
// It runs while the turn is held, so no two calls ever share an id.
func (c *EscrowCoordinator) nextTxID() uint64 {
	id := c.state.TxSeq
	c.state.TxSeq++
	transactionSequence.Set(float64(c.state.TxSeq))
	return id
}

// call issues one outbound request and suspends the current task until the
// reply arrives. In-flight calls are never cancelled.
func (c *EscrowCoordinator) call(ctx context.Context, kind string, fn func(context.Context, nft.Service, uint64) (nft.Event, error)) (nft.Event, error) {
	svc, err := c.service()
	if err != nil {
		recordNFTCall(kind, "unavailable")
		return nft.Event{}, err
	}
	txID := c.nextTxID()
	callCtx := context.WithoutCancel(ctx)

	ev, err := suspend(c.turn, func() (nft.Event, error) {
		return fn(callCtx, svc, txID)
	})

	entry := c.log.WithFields(logrus.Fields{"call": kind, "transaction_id": txID})
	switch {
	case err == nil:
		recordNFTCall(kind, "ok")
		entry.Debug("[ESCROW] reply received")
	case errors.Is(err, nft.ErrRejected):
		recordNFTCall(kind, "rejected")
		entry.WithError(err).Warn("[ESCROW] ❌ nft service rejected call")
	default:
		recordNFTCall(kind, "undeliverable")
		entry.WithError(err).Warn("[ESCROW] ⚠️ nft service unreachable")
	}
	return ev, err
}

// Mint asks the NFT service to mint a token owned by the arena.
func (c *EscrowCoordinator) Mint(ctx context.Context, metadata models.TokenMetadata) (models.TokenID, error) {
	ev, err := c.call(ctx, "mint", func(ctx context.Context, svc nft.Service, txID uint64) (nft.Event, error) {
		return svc.Mint(ctx, txID, metadata)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if ev.Kind != nft.EventTransfer || ev.Transfer == nil {
		return 0, c.unexpected("mint", ev)
	}
	return ev.Transfer.TokenID, nil
}

// Transfer moves tokenID to the given user.
func (c *EscrowCoordinator) Transfer(ctx context.Context, to models.ActorID, tokenID models.TokenID) error {
	ev, err := c.call(ctx, "transfer", func(ctx context.Context, svc nft.Service, txID uint64) (nft.Event, error) {
		return svc.Transfer(ctx, txID, to, tokenID)
	})
	if err != nil {
		return fmt.Errorf("%w: token %d to %s: %v", ErrTransferFailed, tokenID, to, err)
	}
	if ev.Kind != nft.EventTransfer || ev.Transfer == nil {
		return c.unexpected("transfer", ev)
	}
	return nil
}

// IsDelegateApproved asks whether delegate may move tokenID. Callers treat
// any returned error other than ErrUnexpectedReply as "not approved".
func (c *EscrowCoordinator) IsDelegateApproved(ctx context.Context, delegate models.ActorID, tokenID models.TokenID) (bool, error) {
	ev, err := c.call(ctx, "is_approved", func(ctx context.Context, svc nft.Service, txID uint64) (nft.Event, error) {
		return svc.IsApproved(ctx, txID, delegate, tokenID)
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if ev.Kind != nft.EventIsApproved || ev.IsApproved == nil {
		return false, c.unexpected("is_approved", ev)
	}
	return ev.IsApproved.Approved, nil
}

// RecordPending remembers that owedBy still owes tokenID to owedTo.
func (c *EscrowCoordinator) RecordPending(owedBy, owedTo models.ActorID, tokenID models.TokenID) {
	c.state.Pending[owedBy] = models.PendingTransfer{OwedTo: owedTo, TokenID: tokenID}
	pendingTransfers.Set(float64(len(c.state.Pending)))
	c.log.WithFields(logrus.Fields{"owed_by": owedBy, "owed_to": owedTo, "token_id": tokenID}).
		Warn("[ESCROW] 📌 reward transfer recorded as pending")
}

// RetryPending reissues the transfer owed by owedBy. It returns nil when
// nothing is owed. On failure the entry is left untouched; on success it is
// removed unless another task already replaced or cleared it.
func (c *EscrowCoordinator) RetryPending(ctx context.Context, owedBy models.ActorID) (*models.PendingTransfer, error) {
	p, ok := c.state.Pending[owedBy]
	if !ok {
		return nil, nil
	}
	if err := c.Transfer(ctx, p.OwedTo, p.TokenID); err != nil {
		return &p, err
	}
	if cur, ok := c.state.Pending[owedBy]; ok && cur == p {
		delete(c.state.Pending, owedBy)
		pendingTransfers.Set(float64(len(c.state.Pending)))
	}
	c.log.WithFields(logrus.Fields{"owed_by": owedBy, "owed_to": p.OwedTo, "token_id": p.TokenID}).
		Info("[ESCROW] ✅ pending transfer settled")
	return &p, nil
}

func (c *EscrowCoordinator) unexpected(call string, ev nft.Event) error {
	c.log.WithFields(logrus.Fields{"call": call, "reply": ev.Kind}).Error("[ESCROW] 🚨 unexpected reply shape")
	return fmt.Errorf("%w: %s answered with %q", ErrUnexpectedReply, call, ev.Kind)
}
