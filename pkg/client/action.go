package client

import "github.com/keyturn/nukible/pkg/message"

// Category selects the reply pattern a command follows.
type Category int

const (
	// CategoryPlain expects a single data reply.
	CategoryPlain Category = iota
	// CategoryWithChallenge fetches a challenge nonce first.
	CategoryWithChallenge
	// CategoryWithChallengeAndAccept additionally waits for the
	// Accepted and Complete status pair.
	CategoryWithChallengeAndAccept
	// CategoryWithChallengeAndPin appends the security PIN after the
	// challenge nonce.
	CategoryWithChallengeAndPin
)

func (c Category) String() string {
	switch c {
	case CategoryPlain:
		return "Plain"
	case CategoryWithChallenge:
		return "WithChallenge"
	case CategoryWithChallengeAndAccept:
		return "WithChallengeAndAccept"
	case CategoryWithChallengeAndPin:
		return "WithChallengeAndPin"
	default:
		return "Unknown"
	}
}

// Action is one queued command: the wire command, its payload before
// nonce and PIN suffixes, and the reply pattern to drive.
type Action struct {
	Category Category
	Command  message.Command
	Payload  []byte
}

// CmdResult is the terminal outcome of executing an Action.
type CmdResult int

const (
	ResultSuccess CmdResult = iota
	ResultFailed
	ResultTimedOut
	ResultNotPaired
	ResultInvalidArgument
	ResultTransportFailure
)

func (r CmdResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultFailed:
		return "Failed"
	case ResultTimedOut:
		return "TimedOut"
	case ResultNotPaired:
		return "NotPaired"
	case ResultInvalidArgument:
		return "InvalidArgument"
	case ResultTransportFailure:
		return "TransportFailure"
	default:
		return "Unknown"
	}
}
