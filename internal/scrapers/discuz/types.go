package discuz

import (
	"errors"
	"time"
)

const (
	ProfilePath = "/home.php?mod=space&do=profile"
	SignPath    = "/plugin.php?id=k_misign:sign"
	CreditPath  = "/home.php?mod=spacecp&ac=credit&showcredit=1"
)

const (
	DefaultPointName    = "天空石"
	DefaultConfirmDelay = 2 * time.Second
	UnknownUser         = "未知用户"
)

var (
	ErrNotAuthenticated = errors.New("discuz: not authenticated")
	ErrCreditNotFound   = errors.New("discuz: credit not found")
)

type CheckinState int

const (
	Unknown CheckinState = iota
	AlreadySigned
	NotSigned
)

func (s CheckinState) String() string {
	switch s {
	case AlreadySigned:
		return "already-signed"
	case NotSigned:
		return "not-signed"
	default:
		return "unknown"
	}
}

// Via names what decided a CheckinOutcome.
type Via string

const (
	ViaNone          Via = ""
	ViaKeyword       Via = "keyword"
	ViaAlreadySigned Via = "already-signed"
	ViaConfirmation  Via = "confirmation"
	ViaOptimistic    Via = "optimistic"
)

type CheckinOutcome struct {
	Success bool
	Via     Via
	// Keyword is the first success keyword found in the response, if any.
	Keyword string
	// Reason is the (truncated) response body or a short explanation when
	// the check-in did not succeed.
	Reason string
}

type Identity struct {
	Name          string
	Authenticated bool
}

type CreditInfo struct {
	Balances    map[string]int
	EarnedToday map[string]int
}
