package game

import (
	"errors"
	"fmt"
)

type Reason string

const (
	NotYourTurn       Reason = "NotYourTurn"
	AlreadyResolved   Reason = "AlreadyResolved"
	RoomFinished      Reason = "RoomFinished"
	WrongStatus       Reason = "WrongStatus"
	InsufficientFunds Reason = "InsufficientFunds"
	InvalidTarget     Reason = "InvalidTarget"
	Blocked           Reason = "Blocked"
	Frozen            Reason = "Frozen"
	NotInRoom         Reason = "NotInRoom"
	RoomFull          Reason = "RoomFull"
	UnknownCommand    Reason = "UnknownCommand"
)

// Rejection is a refused command. The room is left as it was unless Commit
// is set, in which case the changes made before the refusal are kept.
type Rejection struct {
	Reason Reason
	Msg    string
	Commit bool
}

func (r *Rejection) Error() string {
	if r.Msg == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Msg)
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a *Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrInvariant marks a state the rules can never produce. A room hitting it
// is finished without a winner.
var ErrInvariant = errors.New("invariant violated")
