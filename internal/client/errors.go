package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call the way the storefront screens report it.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindServer is any 5xx.
	KindServer
	// KindNotFound is a 404.
	KindNotFound
	// KindRequest is any other 4xx, including business-rule refusals.
	KindRequest
)

const (
	MsgNetwork = "Check your internet connection."
	MsgServer  = "We will fix it soon."
	MsgGeneric = "failed, please try again."
)

type Error struct {
	Kind    Kind
	Status  int
	Message string // server-provided, may be empty
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("http %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindNotFound
}

// UserMessage turns err into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if !errors.As(err, &ce) {
		return MsgGeneric
	}
	switch ce.Kind {
	case KindNetwork:
		return MsgNetwork
	case KindServer:
		return MsgServer
	}
	if ce.Message != "" {
		return ce.Message
	}
	return MsgGeneric
}
