package services

import (
	"context"
	"slices"

	"nft-wager-arena/models"

	"github.com/sirupsen/logrus"
)

// DefaultMintQuota is the number of default mints a user is allowed.
// The gate trips when the attempt that would reach it arrives.
const DefaultMintQuota = 3

// Marketplace mints tokens for sale and for new players, and sells listed tokens.
type Marketplace struct {
	state    *State
	registry *Registry
	escrow   *EscrowCoordinator
	log      *logrus.Entry
}

func NewMarketplace(state *State, registry *Registry, escrow *EscrowCoordinator, log *logrus.Entry) *Marketplace {
	return &Marketplace{state: state, registry: registry, escrow: escrow, log: log}
}

func (m *Marketplace) canMintForSale(caller models.ActorID) bool {
	return caller == m.state.Owner || slices.Contains(m.state.ApprovedMinters, caller)
}

// MintForSale mints a token held by the arena and lists it at price.
func (m *Marketplace) MintForSale(ctx context.Context, caller models.ActorID, template models.TokenMetadata, price uint64) (Reply, error) {
	if !m.canMintForSale(caller) {
		return Reply{}, ErrNotAuthorized
	}
	tokenID, err := m.escrow.Mint(ctx, template)
	if err != nil {
		return Reply{}, err
	}
	m.state.Listings[tokenID] = price

	m.log.WithFields(logrus.Fields{"token_id": tokenID, "price": price, "minter": caller}).
		Info("[MARKET] 🪙 token minted for sale")
	return tokenReply(EventMinted, tokenID), nil
}

// MintDefault mints one of the default templates straight to the caller.
// A failed delivery is final: nothing is recorded and no retry is kept.
func (m *Marketplace) MintDefault(ctx context.Context, caller models.ActorID, index uint8) (Reply, error) {
	mints := m.registry.DefaultMints(caller)
	if mints == nil {
		return Reply{}, ErrNotRegistered
	}
	if mints.QuotaReached {
		return Reply{}, ErrMaxMintsReached
	}
	if len(mints.MintedDefaultIDs)+1 >= DefaultMintQuota {
		mints.QuotaReached = true
		m.log.WithField("user", caller).Info("[MARKET] default mint quota reached")
		return Reply{}, ErrMaxMintsReached
	}
	template, ok := m.state.DefaultTemplates[index]
	if !ok {
		return Reply{}, ErrTemplateNotFound
	}

	tokenID, err := m.escrow.Mint(ctx, template)
	if err != nil {
		return Reply{}, err
	}
	if err := m.escrow.Transfer(ctx, caller, tokenID); err != nil {
		m.log.WithFields(logrus.Fields{"user": caller, "token_id": tokenID}).
			Warn("[MARKET] ❌ default token minted but not delivered")
		return Reply{}, err
	}

	// Re-read after the suspension; the record is never replaced, only mutated.
	mints = m.registry.DefaultMints(caller)
	mints.MintedDefaultIDs = append(mints.MintedDefaultIDs, index)
	return tokenReply(EventMinted, tokenID), nil
}

// Buy sells a listed token to the caller. The listing stays in place.
func (m *Marketplace) Buy(ctx context.Context, caller models.ActorID, tokenID models.TokenID, paid uint64) (Reply, error) {
	if !m.registry.IsRegistered(caller) {
		return Reply{}, ErrNotRegistered
	}
	price, ok := m.state.Listings[tokenID]
	if !ok {
		return Reply{}, ErrNotListed
	}
	if paid < price {
		return Reply{}, ErrInsufficientFunds
	}
	if err := m.escrow.Transfer(ctx, caller, tokenID); err != nil {
		return Reply{}, err
	}

	refund := paid - price
	m.log.WithFields(logrus.Fields{"buyer": caller, "token_id": tokenID, "price": price, "refund": refund}).
		Info("[MARKET] 💸 token sold")
	reply := tokenReply(EventPurchased, tokenID)
	reply.Refund = &refund
	return reply, nil
}

func (m *Marketplace) ApproveMinter(caller, user models.ActorID) (Reply, error) {
	if caller != m.state.Owner {
		return Reply{}, ErrNotAuthorized
	}
	if !slices.Contains(m.state.ApprovedMinters, user) {
		m.state.ApprovedMinters = append(m.state.ApprovedMinters, user)
	}
	return Reply{Event: EventMinterApproved, User: user}, nil
}

func (m *Marketplace) RevokeMinter(caller, user models.ActorID) (Reply, error) {
	if caller != m.state.Owner {
		return Reply{}, ErrNotAuthorized
	}
	i := slices.Index(m.state.ApprovedMinters, user)
	if i < 0 {
		return Reply{}, ErrMinterNotFound
	}
	last := len(m.state.ApprovedMinters) - 1
	m.state.ApprovedMinters[i] = m.state.ApprovedMinters[last]
	m.state.ApprovedMinters = m.state.ApprovedMinters[:last]
	return Reply{Event: EventMinterRevoked, User: user}, nil
}
