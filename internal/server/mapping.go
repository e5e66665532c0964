package server

import "marketrelay/internal/model"

// Record-to-envelope transforms used by the poll services. A record that
// stored an explicit provider error maps to an error-bearing envelope.

func searchResponse(r model.SearchRecord) model.ClientResponse[model.Catalog] {
	if r.Error != nil {
		return model.ClientResponse[model.Catalog]{Context: r.Context, Error: r.Error}
	}
	var catalog model.Catalog
	if r.Catalog != nil {
		catalog = *r.Catalog
	}
	return model.ClientResponse[model.Catalog]{Context: r.Context, Message: &catalog}
}

func selectResponse(r model.SelectRecord) model.ClientResponse[model.Quotation] {
	if r.Error != nil {
		return model.ClientResponse[model.Quotation]{Context: r.Context, Error: r.Error}
	}
	var quote model.Quotation
	if r.Quote != nil {
		quote = *r.Quote
	}
	return model.ClientResponse[model.Quotation]{Context: r.Context, Message: &quote}
}

func orderStatusResponse(r model.OrderStatusRecord) model.ClientResponse[model.Order] {
	if r.Error != nil {
		return model.ClientResponse[model.Order]{Context: r.Context, Error: r.Error}
	}
	var order model.Order
	if r.Order != nil {
		order = *r.Order
	}
	return model.ClientResponse[model.Order]{Context: r.Context, Message: &order}
}

// SearchTransform is the transform wired into the on_search poll service.
func SearchTransform() func(model.SearchRecord) model.ClientResponse[model.Catalog] {
	return searchResponse
}

// SelectTransform is the transform wired into the on_select poll service.
func SelectTransform() func(model.SelectRecord) model.ClientResponse[model.Quotation] {
	return selectResponse
}

// OrderStatusTransform is the transform wired into the on_order_status poll
// service.
func OrderStatusTransform() func(model.OrderStatusRecord) model.ClientResponse[model.Order] {
	return orderStatusResponse
}
