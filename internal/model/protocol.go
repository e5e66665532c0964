package model

// Protocol payload shapes exchanged with downstream providers. The relay
// treats them as opaque beyond the fields required for correlation and
// client-facing mapping.

// Intent describes what a search action is looking for.
type Intent struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

// Item is a single offer inside a provider catalog.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Price  `json:"price"`
}

// Price is a decimal amount with its currency.
type Price struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// ProviderCatalog is one provider's slice of a search result.
type ProviderCatalog struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name,omitempty"`
	Items        []Item `json:"items"`
}

// Catalog aggregates the providers answering a search fan-out.
type Catalog struct {
	Providers []ProviderCatalog `json:"providers"`
}

// Quotation is the priced answer to a select action.
type Quotation struct {
	Items      []Item `json:"items"`
	TotalPrice Price  `json:"total_price"`
}

// Order is the state of a placed order as reported by a provider.
type Order struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	ProviderID string `json:"provider_id,omitempty"`
	Items      []Item `json:"items,omitempty"`
}

// SelectedItems is the payload of a select action: the items the client
// wants quoted.
type SelectedItems struct {
	ProviderID string `json:"provider_id"`
	Items      []Item `json:"items"`
}

// OrderStatusRequest asks a provider for the current state of an order.
type OrderStatusRequest struct {
	OrderID string `json:"order_id"`
}

// OnSearch is the asynchronous callback payload answering a search.
type OnSearch struct {
	Context Context  `json:"context"`
	Catalog *Catalog `json:"message,omitempty"`
	Error   *Error   `json:"error,omitempty"`
}

// OnSelect is the asynchronous callback payload answering a select.
type OnSelect struct {
	Context Context    `json:"context"`
	Quote   *Quotation `json:"message,omitempty"`
	Error   *Error     `json:"error,omitempty"`
}

// OnOrderStatus is the asynchronous callback payload answering an
// order-status query.
type OnOrderStatus struct {
	Context Context `json:"context"`
	Order   *Order  `json:"message,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}
