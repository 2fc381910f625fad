package models

// ArenaState is the full state dump returned by the All query and persisted in snapshots.
type ArenaState struct {
	Owner            ActorID                      `json:"owner"`
	NFTService       *ActorID                     `json:"nft_service,omitempty"`
	Matches          []Match                      `json:"matches"`
	WaitingQueue     []MatchRef                   `json:"waiting_queue"`
	Accounts         map[ActorID]UserAccount      `json:"accounts"`
	NextMatchID      uint64                       `json:"next_match_id"`
	DefaultTemplates map[uint8]TokenMetadata      `json:"default_templates"`
	Listings         map[TokenID]uint64           `json:"listings"`
	DefaultMints     map[ActorID]DefaultMintState `json:"default_mints"`
	ApprovedMinters  []ActorID                    `json:"approved_minters"`
	TransactionID    uint64                       `json:"transaction_id"`
	PendingTransfers map[ActorID]PendingTransfer  `json:"pending_transfers"`
}
