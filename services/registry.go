package services

import (
	"nft-wager-arena/models"
)

// Registry is the account registry: known users, their match history and
// default mint quota state.
type Registry struct {
	state *State
}

func NewRegistry(state *State) *Registry {
	return &Registry{state: state}
}

func (r *Registry) Register(user models.ActorID) error {
	if r.IsRegistered(user) {
		return ErrAlreadyRegistered
	}
	r.state.Accounts[user] = &models.UserAccount{PastMatches: []models.MatchRef{}}
	r.state.DefaultMints[user] = &models.DefaultMintState{MintedDefaultIDs: []uint8{}}
	return nil
}

func (r *Registry) IsRegistered(user models.ActorID) bool {
	_, ok := r.state.Accounts[user]
	return ok
}

// Account returns the live account record, or nil for unknown users.
func (r *Registry) Account(user models.ActorID) *models.UserAccount {
	return r.state.Accounts[user]
}

// DefaultMints returns the live quota record, or nil for unknown users.
func (r *Registry) DefaultMints(user models.ActorID) *models.DefaultMintState {
	return r.state.DefaultMints[user]
}

// The mutators below are no-ops for unregistered users.

func (r *Registry) SetCurrentMatch(user models.ActorID, ref models.MatchRef) {
	if acct := r.Account(user); acct != nil {
		acct.CurrentMatch = &ref
	}
}

func (r *Registry) ClearCurrentMatch(user models.ActorID) {
	if acct := r.Account(user); acct != nil {
		acct.CurrentMatch = nil
	}
}

func (r *Registry) AppendPastMatch(user models.ActorID, ref models.MatchRef) {
	if acct := r.Account(user); acct != nil {
		acct.PastMatches = append(acct.PastMatches, ref)
	}
}
