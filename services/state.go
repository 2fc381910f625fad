package services

import (
	"sort"

	"nft-wager-arena/models"
)

// State is the arena's single owned state object. It is only touched by the
// task currently holding the actor's turn.
type State struct {
	Self             models.ActorID
	Owner            models.ActorID
	NFTService       *models.ActorID
	Matches          []models.Match
	Waiting          []models.MatchRef
	Accounts         map[models.ActorID]*models.UserAccount
	DefaultMints     map[models.ActorID]*models.DefaultMintState
	DefaultTemplates map[uint8]models.TokenMetadata
	Listings         map[models.TokenID]uint64
	ApprovedMinters  []models.ActorID
	TxSeq            uint64
	Pending          map[models.ActorID]models.PendingTransfer
}

func NewState(self, owner models.ActorID) *State {
	return &State{
		Self:             self,
		Owner:            owner,
		Accounts:         make(map[models.ActorID]*models.UserAccount),
		DefaultMints:     make(map[models.ActorID]*models.DefaultMintState),
		DefaultTemplates: make(map[uint8]models.TokenMetadata),
		Listings:         make(map[models.TokenID]uint64),
		Pending:          make(map[models.ActorID]models.PendingTransfer),
	}
}

// Dump copies the state into its serializable form.
func (s *State) Dump() models.ArenaState {
	out := models.ArenaState{
		Owner:            s.Owner,
		Matches:          make([]models.Match, len(s.Matches)),
		WaitingQueue:     append([]models.MatchRef{}, s.Waiting...),
		Accounts:         make(map[models.ActorID]models.UserAccount, len(s.Accounts)),
		NextMatchID:      uint64(len(s.Matches)),
		DefaultTemplates: make(map[uint8]models.TokenMetadata, len(s.DefaultTemplates)),
		Listings:         make(map[models.TokenID]uint64, len(s.Listings)),
		DefaultMints:     make(map[models.ActorID]models.DefaultMintState, len(s.DefaultMints)),
		ApprovedMinters:  append([]models.ActorID{}, s.ApprovedMinters...),
		TransactionID:    s.TxSeq,
		PendingTransfers: make(map[models.ActorID]models.PendingTransfer, len(s.Pending)),
	}
	if s.NFTService != nil {
		addr := *s.NFTService
		out.NFTService = &addr
	}
	for i, m := range s.Matches {
		if m.PlayerTwo != nil {
			p2 := *m.PlayerTwo
			m.PlayerTwo = &p2
		}
		out.Matches[i] = m
	}
	for user, acct := range s.Accounts {
		cp := models.UserAccount{PastMatches: append([]models.MatchRef{}, acct.PastMatches...)}
		if acct.CurrentMatch != nil {
			ref := *acct.CurrentMatch
			cp.CurrentMatch = &ref
		}
		out.Accounts[user] = cp
	}
	for idx, meta := range s.DefaultTemplates {
		out.DefaultTemplates[idx] = meta
	}
	for id, price := range s.Listings {
		out.Listings[id] = price
	}
	for user, dm := range s.DefaultMints {
		out.DefaultMints[user] = models.DefaultMintState{
			MintedDefaultIDs: append([]uint8{}, dm.MintedDefaultIDs...),
			QuotaReached:     dm.QuotaReached,
		}
	}
	for user, p := range s.Pending {
		out.PendingTransfers[user] = p
	}
	return out
}

// StateFromDump rebuilds a State from a persisted dump.
func StateFromDump(self models.ActorID, d models.ArenaState) *State {
	s := NewState(self, d.Owner)
	if d.NFTService != nil {
		addr := *d.NFTService
		s.NFTService = &addr
	}
	s.Matches = append(s.Matches, d.Matches...)
	s.Waiting = append(s.Waiting, d.WaitingQueue...)
	for user, acct := range d.Accounts {
		a := acct
		s.Accounts[user] = &a
	}
	for idx, meta := range d.DefaultTemplates {
		s.DefaultTemplates[idx] = meta
	}
	for id, price := range d.Listings {
		s.Listings[id] = price
	}
	for user, dm := range d.DefaultMints {
		m := dm
		s.DefaultMints[user] = &m
	}
	s.ApprovedMinters = append(s.ApprovedMinters, d.ApprovedMinters...)
	s.TxSeq = d.TransactionID
	for user, p := range d.PendingTransfers {
		s.Pending[user] = p
	}
	return s
}

// TemplateIndices returns the configured default template indices in order.
func (s *State) TemplateIndices() []uint8 {
	out := make([]uint8, 0, len(s.DefaultTemplates))
	for idx := range s.DefaultTemplates {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
