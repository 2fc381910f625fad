package models

// ActorID identifies a user, the arena owner, or a remote service.
type ActorID string

// TokenID identifies an NFT on the NFT service.
type TokenID uint64

// MatchRef is the position of a match in the arena's match list.
type MatchRef uint64

// TokenMetadata is passed through to the NFT service untouched.
type TokenMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Media       string `json:"media" yaml:"media"`
	Reference   string `json:"reference" yaml:"reference"`
}

// StakedEntry is one side of a match.
type StakedEntry struct {
	User          ActorID `json:"user"`
	StakedTokenID TokenID `json:"staked_token_id"`
	Power         uint8   `json:"power"`
}

type MatchStateKind string

const (
	MatchInProgress MatchStateKind = "InProgress"
	MatchFinished   MatchStateKind = "Finished"
	MatchNotExists  MatchStateKind = "NotExists"
)

// MatchState carries winner and loser only once the match is Finished.
type MatchState struct {
	Kind   MatchStateKind `json:"kind"`
	Winner ActorID        `json:"winner,omitempty"`
	Loser  ActorID        `json:"loser,omitempty"`
}

type Match struct {
	PlayerOne StakedEntry  `json:"player_one"`
	PlayerTwo *StakedEntry `json:"player_two,omitempty"`
	State     MatchState   `json:"state"`
}

// UserAccount is created on registration and never deleted.
type UserAccount struct {
	CurrentMatch *MatchRef  `json:"current_match,omitempty"`
	PastMatches  []MatchRef `json:"past_matches"`
}

// DefaultMintState tracks the per-user default mint quota.
// QuotaReached is the gate flag; it starts false and is set when the quota boundary is hit.
// MintedDefaultIDs keeps every consumed template index in mint order.
type DefaultMintState struct {
	MintedDefaultIDs []uint8 `json:"minted_default_ids"`
	QuotaReached     bool    `json:"quota_reached"`
}

// PendingTransfer is a match reward that could not be delivered yet.
type PendingTransfer struct {
	OwedTo  ActorID `json:"owed_to"`
	TokenID TokenID `json:"token_id"`
}
