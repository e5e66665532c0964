package model

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the marketplace protocol operation a transaction performs.
type Action string

const (
	ActionSearch      Action = "search"
	ActionSelect      Action = "select"
	ActionOrderStatus Action = "order_status"
)

// Context identifies one protocol transaction. It is created when an action
// is initiated and carried unchanged through dispatch, callback and every
// response envelope. MessageID is the correlation key linking an initiating
// action to its asynchronous callbacks.
type Context struct {
	MessageID     string    `json:"message_id"`
	TransactionID string    `json:"transaction_id"`
	Action        Action    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewContext creates a fresh context for the given action with generated
// correlation identifiers.
func NewContext(action Action) Context {
	return Context{
		MessageID:     uuid.NewString(),
		TransactionID: uuid.NewString(),
		Action:        action,
		Timestamp:     time.Now().UTC(),
	}
}

// Error is the machine-readable failure detail carried in response
// envelopes. Code and Message are always set together from a fixed catalog.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Ack acknowledges that an initiating action was accepted. The real answer
// arrives later through a callback.
type Ack struct {
	Status string `json:"status"`
}

const (
	AckStatusACK  = "ACK"
	AckStatusNACK = "NACK"
)

// AckMessage is the success payload of an initiate-action response.
type AckMessage struct {
	Ack Ack `json:"ack"`
}

// NewAckMessage returns the standard positive acknowledgement payload.
func NewAckMessage() *AckMessage {
	return &AckMessage{Ack: Ack{Status: AckStatusACK}}
}

// ClientResponse is the outward-facing envelope returned to polling and
// initiating callers. Exactly one of Message and Error is populated.
type ClientResponse[M any] struct {
	Context Context `json:"context"`
	Message *M      `json:"message,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}
