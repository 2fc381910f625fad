package services

import (
	"context"
	"errors"
	"fmt"

	"nft-wager-arena/models"
	"nft-wager-arena/nft"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Description is returned by the Description query.
const Description = "NFT wager arena: stake an NFT, get paired with the most recent challenger, and the stronger card takes the other's token."

type ActionKind string

const (
	ActionRegister          ActionKind = "Register"
	ActionEnterMatch        ActionKind = "EnterMatch"
	ActionMintDefault       ActionKind = "MintDefault"
	ActionSetServiceAddress ActionKind = "SetServiceAddress"
	ActionMintForSale       ActionKind = "MintForSale"
	ActionBuy               ActionKind = "Buy"
	ActionApproveMinter     ActionKind = "ApproveMinter"
	ActionRevokeMinter      ActionKind = "RevokeMinter"
)

// Action is an inbound request. Only the fields of its kind are read.
// Value is the amount the caller reports attaching; only Buy reads it. Settlement
// happens outside this service, so Buy refunds are advisory.
type Action struct {
	Kind          ActionKind           `json:"action"`
	TokenID       models.TokenID       `json:"token_id,omitempty"`
	Power         uint8                `json:"power,omitempty"`
	TemplateIndex uint8                `json:"template_index,omitempty"`
	Address       models.ActorID       `json:"address,omitempty"`
	Template      models.TokenMetadata `json:"template"`
	Price         uint64               `json:"price,omitempty"`
	User          models.ActorID       `json:"user,omitempty"`
	Value         uint64               `json:"value,omitempty"`
}

type QueryKind string

const (
	QueryAll         QueryKind = "All"
	QueryIdentity    QueryKind = "Identity"
	QueryDescription QueryKind = "Description"
)

type QueryReply struct {
	State       *models.ArenaState `json:"state,omitempty"`
	Identity    models.ActorID     `json:"identity,omitempty"`
	Description string             `json:"description,omitempty"`
}

type Options struct {
	// Self is the arena's own identity, used as the approved delegate for staked tokens.
	Self models.ActorID
	Dial nft.Dialer
	Log  *logrus.Entry
}

// Actor owns the arena state and serves requests one turn at a time.
type Actor struct {
	state       *State
	turn        *turn
	registry    *Registry
	escrow      *EscrowCoordinator
	matchmaking *MatchmakingEngine
	market      *Marketplace
	log         *logrus.Entry
}

// Initialize creates a fresh arena owned by owner.
func Initialize(owner models.ActorID, templates map[uint8]models.TokenMetadata, nftService *models.ActorID, opts Options) *Actor {
	state := NewState(opts.Self, owner)
	for idx, meta := range templates {
		state.DefaultTemplates[idx] = meta
	}
	if nftService != nil {
		addr := *nftService
		state.NFTService = &addr
	}
	a := newActor(state, opts)
	a.log.WithFields(logrus.Fields{"owner": owner, "templates": state.TemplateIndices()}).
		Info("[ACTOR] ✅ arena initialized")
	return a
}

// Restore rebuilds an arena from a persisted state dump.
func Restore(dump models.ArenaState, opts Options) *Actor {
	a := newActor(StateFromDump(opts.Self, dump), opts)
	a.log.WithFields(logrus.Fields{"matches": len(dump.Matches), "transaction_id": dump.TransactionID}).
		Info("[ACTOR] ♻️ arena restored from snapshot")
	return a
}

func newActor(state *State, opts Options) *Actor {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("arena", state.Self)
	dial := opts.Dial
	if dial == nil {
		dial = nft.HTTPDialer("")
	}

	t := newTurn()
	registry := NewRegistry(state)
	escrow := NewEscrowCoordinator(state, t, dial, log.WithField("component", "escrow"))
	observeState(state)
	return &Actor{
		state:       state,
		turn:        t,
		registry:    registry,
		escrow:      escrow,
		matchmaking: NewMatchmakingEngine(state, registry, escrow, log.WithField("component", "matchmaking")),
		market:      NewMarketplace(state, registry, escrow, log.WithField("component", "marketplace")),
		log:         log,
	}
}

// Handle runs one action for caller. Recoverable failures come back as an
// error reply; the returned error is reserved for requests that had to be
// aborted (ErrUnexpectedReply, ErrUnknownAction, or a cancelled context
// before the request started).
func (a *Actor) Handle(ctx context.Context, caller models.ActorID, action Action) (Reply, error) {
	if err := a.turn.acquire(ctx); err != nil {
		return Reply{}, err
	}
	defer a.turn.release()

	log := a.log.WithFields(logrus.Fields{"request_id": uuid.NewString(), "caller": caller, "action": action.Kind})

	reply, err := a.dispatch(ctx, caller, action)
	if err != nil {
		if !IsRecoverable(err) {
			log.WithError(err).Error("[ACTOR] 🚨 request aborted")
			recordAction(action.Kind, "Aborted")
			return Reply{}, err
		}
		reply = errorReply(err)
		if action.Kind == ActionBuy {
			refund := action.Value
			reply.Refund = &refund
		}
		log.WithField("event", reply.Event).Info("[ACTOR] request rejected")
	} else {
		log.WithField("event", reply.Event).Info("[ACTOR] request handled")
	}
	recordAction(action.Kind, reply.Event)
	return reply, nil
}

func (a *Actor) dispatch(ctx context.Context, caller models.ActorID, action Action) (Reply, error) {
	if a.state.NFTService == nil && action.Kind != ActionSetServiceAddress {
		return Reply{}, ErrServiceUnavailable
	}

	switch action.Kind {
	case ActionRegister:
		if err := a.registry.Register(caller); err != nil {
			return Reply{}, err
		}
		return Reply{Event: EventRegistered, User: caller}, nil
	case ActionEnterMatch:
		return a.matchmaking.EnterMatch(ctx, caller, action.TokenID, action.Power)
	case ActionMintDefault:
		return a.market.MintDefault(ctx, caller, action.TemplateIndex)
	case ActionSetServiceAddress:
		return a.setServiceAddress(caller, action.Address)
	case ActionMintForSale:
		return a.market.MintForSale(ctx, caller, action.Template, action.Price)
	case ActionBuy:
		return a.market.Buy(ctx, caller, action.TokenID, action.Value)
	case ActionApproveMinter:
		return a.market.ApproveMinter(caller, action.User)
	case ActionRevokeMinter:
		return a.market.RevokeMinter(caller, action.User)
	default:
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
}

func (a *Actor) setServiceAddress(caller, address models.ActorID) (Reply, error) {
	if caller != a.state.Owner {
		return Reply{}, ErrNotAuthorized
	}
	a.state.NFTService = &address
	a.log.WithField("address", address).Info("[ACTOR] 🔗 nft service address saved")
	return Reply{Event: EventServiceAddressSet, User: address}, nil
}

// Query reads the arena without changing it.
func (a *Actor) Query(ctx context.Context, caller models.ActorID, kind QueryKind) (QueryReply, error) {
	switch kind {
	case QueryIdentity:
		return QueryReply{Identity: caller}, nil
	case QueryDescription:
		return QueryReply{Description: Description}, nil
	case QueryAll:
		dump, err := a.Snapshot(ctx)
		if err != nil {
			return QueryReply{}, err
		}
		return QueryReply{State: &dump}, nil
	default:
		return QueryReply{}, fmt.Errorf("unknown query %q", kind)
	}
}

// Snapshot takes a turn and copies the current state.
func (a *Actor) Snapshot(ctx context.Context) (models.ArenaState, error) {
	if err := a.turn.acquire(ctx); err != nil {
		return models.ArenaState{}, err
	}
	defer a.turn.release()
	return a.state.Dump(), nil
}

// ID is the arena's own identity.
func (a *Actor) ID() models.ActorID {
	return a.state.Self
}

// IsAborted reports whether err from Handle means the request was aborted
// because of a malformed NFT service reply.
func IsAborted(err error) bool {
	return errors.Is(err, ErrUnexpectedReply)
}
