package services

import "errors"

var (
	ErrNotRegistered      = errors.New("user is not registered")
	ErrAlreadyRegistered  = errors.New("user is already registered")
	ErrNotAuthorized      = errors.New("caller is not authorized")
	ErrAlreadyInMatch     = errors.New("user is already in a match")
	ErrNotApproved        = errors.New("token is not approved for the arena")
	ErrServiceUnavailable = errors.New("nft service unavailable")
	ErrTransferFailed     = errors.New("nft transfer failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotListed          = errors.New("token is not listed for sale")
	ErrTemplateNotFound   = errors.New("default template not found")
	ErrMaxMintsReached    = errors.New("default mint quota reached")
	ErrMinterNotFound     = errors.New("approved minter not found")

	// ErrUnexpectedReply aborts the request instead of becoming a reply.
	ErrUnexpectedReply = errors.New("unexpected reply from nft service")
	ErrUnknownAction   = errors.New("unknown action")
)

// errorCodes maps every recoverable error to the event name reported to the caller.
var errorCodes = []struct {
	err  error
	code EventKind
}{
	{ErrNotRegistered, EventNotRegistered},
	{ErrAlreadyRegistered, EventAlreadyRegistered},
	{ErrNotAuthorized, EventNotAuthorized},
	{ErrAlreadyInMatch, EventAlreadyInMatch},
	{ErrNotApproved, EventNotApproved},
	{ErrServiceUnavailable, EventServiceUnavailable},
	{ErrTransferFailed, EventTransferFailed},
	{ErrInsufficientFunds, EventInsufficientFunds},
	{ErrNotListed, EventNotListed},
	{ErrTemplateNotFound, EventTemplateNotFound},
	{ErrMaxMintsReached, EventMaxMintsReached},
	{ErrMinterNotFound, EventMinterNotFound},
}

// IsRecoverable reports whether err can be answered with an error reply.
func IsRecoverable(err error) bool {
	_, ok := errorCode(err)
	return ok
}

func errorCode(err error) (EventKind, bool) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return "", false
}
