package model

// Persisted record shapes. One callback record variant exists per action
// type; many records may share one MessageID (fan-out) and all are retained.

// InitiatedAction marks that an action was dispatched for a message id.
// Polling does not require its presence; dispatch and retrieval are
// decoupled failure domains.
type InitiatedAction struct {
	MessageID  string `json:"message_id"`
	ActionType Action `json:"action_type"`
}

// CorrelationID returns the message id this record is keyed by.
func (a InitiatedAction) CorrelationID() string { return a.MessageID }

// SearchRecord is a stored on_search callback.
type SearchRecord struct {
	Context Context  `json:"context"`
	Catalog *Catalog `json:"catalog,omitempty"`
	Error   *Error   `json:"error,omitempty"`
}

func (r SearchRecord) CorrelationID() string { return r.Context.MessageID }

// SelectRecord is a stored on_select callback.
type SelectRecord struct {
	Context Context    `json:"context"`
	Quote   *Quotation `json:"quote,omitempty"`
	Error   *Error     `json:"error,omitempty"`
}

func (r SelectRecord) CorrelationID() string { return r.Context.MessageID }

// OrderStatusRecord is a stored on_order_status callback.
type OrderStatusRecord struct {
	Context Context `json:"context"`
	Order   *Order  `json:"order,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}

func (r OrderStatusRecord) CorrelationID() string { return r.Context.MessageID }
