package engine

import "errors"

var (
	// ErrDraftNotActive is returned when a pick, pause or resume is attempted outside a live draft.
	ErrDraftNotActive = errors.New("draft is not active")
	// ErrNotYourTurn is returned when the requester is not the current picker.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrStaleTurn is returned when the expected pick number no longer matches
	// because another write committed first. Refresh and resubmit.
	ErrStaleTurn = errors.New("stale turn")
	// ErrDuplicateSelection is returned when the selection was already picked in this draft.
	ErrDuplicateSelection = errors.New("selection already picked")
	// ErrCategoryAlreadyPicked is returned when the picker already holds a pick in the category.
	ErrCategoryAlreadyPicked = errors.New("category already picked")
	// ErrAlreadyStarted is returned when starting a draft that is not pending or scheduled.
	ErrAlreadyStarted = errors.New("draft already started")
	// ErrInvalidConfiguration is returned for a malformed participant order or unit count.
	ErrInvalidConfiguration = errors.New("invalid draft configuration")
	// ErrInvalidSelection is returned for an empty selection or a missing or disallowed category.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoSelectionAvailable is returned when auto-pick finds nothing left to choose.
	ErrNoSelectionAvailable = errors.New("no selection available")
)

// IsRetryable reports whether err means the caller should refresh state and may resubmit.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleTurn)
}
