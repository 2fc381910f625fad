// Package nft holds the request/reply contract of the external NFT service
// and an HTTP transport for it.
package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nft-wager-arena/models"
)

var (
	// ErrUndeliverable means the request never reached the NFT service.
	ErrUndeliverable = errors.New("nft service unreachable")
	// ErrRejected means the NFT service answered with an error reply.
	ErrRejected = errors.New("nft service rejected request")
)

// Service is every call the arena makes to the NFT service. Each call
// carries the arena's transaction id as a correlation tag.
type Service interface {
	Mint(ctx context.Context, txID uint64, metadata models.TokenMetadata) (Event, error)
	Transfer(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (Event, error)
	IsApproved(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (Event, error)
}

type EventKind string

const (
	EventTransfer   EventKind = "Transfer"
	EventIsApproved EventKind = "IsApproved"
)

type TransferEvent struct {
	From    models.ActorID `json:"from"`
	To      models.ActorID `json:"to"`
	TokenID models.TokenID `json:"token_id"`
}

type ApprovalEvent struct {
	To       models.ActorID `json:"to"`
	TokenID  models.TokenID `json:"token_id"`
	Approved bool           `json:"approved"`
}

// Event is a reply from the NFT service. Exactly one payload is set for the
// kinds the arena understands; any other kind arrives with no payload.
type Event struct {
	Kind       EventKind
	Transfer   *TransferEvent
	IsApproved *ApprovalEvent
}

func TransferReply(from, to models.ActorID, tokenID models.TokenID) Event {
	return Event{Kind: EventTransfer, Transfer: &TransferEvent{From: from, To: to, TokenID: tokenID}}
}

func ApprovalReply(to models.ActorID, tokenID models.TokenID, approved bool) Event {
	return Event{Kind: EventIsApproved, IsApproved: &ApprovalEvent{To: to, TokenID: tokenID, Approved: approved}}
}

// MarshalJSON encodes the event as a single-key object, e.g. {"Transfer":{...}}.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any = struct{}{}
	switch {
	case e.Transfer != nil:
		payload = e.Transfer
	case e.IsApproved != nil:
		payload = e.IsApproved
	}
	return json.Marshal(map[EventKind]any{e.Kind: payload})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode nft event: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("nft event must have exactly one kind, got %d", len(raw))
	}

	*e = Event{}
	for kind, body := range raw {
		e.Kind = EventKind(kind)
		switch e.Kind {
		case EventTransfer:
			e.Transfer = &TransferEvent{}
			if err := json.Unmarshal(body, e.Transfer); err != nil {
				return fmt.Errorf("failed to decode transfer event: %w", err)
			}
		case EventIsApproved:
			e.IsApproved = &ApprovalEvent{}
			if err := json.Unmarshal(body, e.IsApproved); err != nil {
				return fmt.Errorf("failed to decode approval event: %w", err)
			}
		}
	}
	return nil
}

type MintRequest struct {
	TransactionID uint64               `json:"transaction_id"`
	TokenMetadata models.TokenMetadata `json:"token_metadata"`
}

type TransferRequest struct {
	TransactionID uint64         `json:"transaction_id"`
	To            models.ActorID `json:"to"`
	TokenID       models.TokenID `json:"token_id"`
}

type ApprovalRequest struct {
	TransactionID uint64         `json:"transaction_id"`
	To            models.ActorID `json:"to"`
	TokenID       models.TokenID `json:"token_id"`
}
