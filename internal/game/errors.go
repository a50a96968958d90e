package game

import (
	"errors"
	"fmt"
)

// ErrRuleViolation is the category of every rejected player action. The
// document is left untouched when an action fails with it.
var ErrRuleViolation = errors.New("rule violation")

var (
	ErrWrongPhase          = ruleViolation("action not allowed in the current phase")
	ErrNotSeated           = ruleViolation("player is not seated in this game")
	ErrNotYourTurn         = ruleViolation("not your turn")
	ErrCardNotInHand       = ruleViolation("card not in hand")
	ErrMustFollowTrump     = ruleViolation("must follow trump")
	ErrMustFollowSuit      = ruleViolation("must follow suit")
	ErrTrickPending        = ruleViolation("trick is complete and awaiting resolution")
	ErrUnknownGameType     = ruleViolation("unknown game type")
	ErrSoloRequired        = ruleViolation("forced seat must declare a solo")
	ErrInvalidAnnouncement = ruleViolation("invalid announcement")
	ErrNoAnnouncement      = ruleViolation("no announcement available")
	ErrAnnouncementOrder   = ruleViolation("announcement out of order")
	ErrAlreadyAccepted     = ruleViolation("score already accepted")
	ErrNothingToView       = ruleViolation("no completed trick to view")
	ErrGameFull            = ruleViolation("game has no free seats")
	ErrTableNotFull        = ruleViolation("not all seats are taken")
)

func ruleViolation(msg string) error {
	return fmt.Errorf("%w: %s", ErrRuleViolation, msg)
}

// IntegrityError reports a broken card or point invariant. It means the
// dealing or scoring code is wrong and the result must not be persisted.
type IntegrityError struct {
	GameID string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in game %s: %s", e.GameID, e.Reason)
}

// IsIntegrityError reports whether err carries an *IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
