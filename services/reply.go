package services

import "nft-wager-arena/models"

type EventKind string

const (
	EventRegistered           EventKind = "Registered"
	EventMatchCreated         EventKind = "MatchCreated"
	EventMatchFinished        EventKind = "MatchFinished"
	EventTransferPending      EventKind = "TransferPending"
	EventTransferSucceeded    EventKind = "TransferSucceeded"
	EventTransferStillPending EventKind = "TransferStillPending"
	EventMinted               EventKind = "Minted"
	EventPurchased            EventKind = "Purchased"
	EventServiceAddressSet    EventKind = "ServiceAddressSet"
	EventMinterApproved       EventKind = "MinterApproved"
	EventMinterRevoked        EventKind = "MinterRevoked"

	EventNotRegistered      EventKind = "NotRegistered"
	EventAlreadyRegistered  EventKind = "AlreadyRegistered"
	EventNotAuthorized      EventKind = "NotAuthorized"
	EventAlreadyInMatch     EventKind = "AlreadyInMatch"
	EventNotApproved        EventKind = "NotApproved"
	EventServiceUnavailable EventKind = "ServiceUnavailable"
	EventTransferFailed     EventKind = "TransferFailed"
	EventInsufficientFunds  EventKind = "InsufficientFunds"
	EventNotListed          EventKind = "NotListed"
	EventTemplateNotFound   EventKind = "TemplateNotFound"
	EventMaxMintsReached    EventKind = "MaxMintsReached"
	EventMinterNotFound     EventKind = "MinterNotFound"
)

// Reply is the event returned for every handled action. Error is set only
// for error events; Refund only for Buy.
type Reply struct {
	Event   EventKind        `json:"event"`
	TokenID *models.TokenID  `json:"token_id,omitempty"`
	MatchID *models.MatchRef `json:"match_id,omitempty"`
	Winner  models.ActorID   `json:"winner,omitempty"`
	Loser   models.ActorID   `json:"loser,omitempty"`
	User    models.ActorID   `json:"user,omitempty"`
	Refund  *uint64          `json:"refund,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (r Reply) Failed() bool {
	return r.Error != ""
}

func tokenReply(kind EventKind, tokenID models.TokenID) Reply {
	return Reply{Event: kind, TokenID: &tokenID}
}

func errorReply(err error) Reply {
	code, _ := errorCode(err)
	return Reply{Event: code, Error: err.Error()}
}
