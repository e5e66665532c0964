package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"marketrelay/config"
	"marketrelay/internal/auth"
	"marketrelay/internal/dispatch"
	"marketrelay/internal/ingest"
	"marketrelay/internal/model"
	"marketrelay/internal/poll"
	"marketrelay/internal/registry"
	"marketrelay/internal/store"
)

type fixture struct {
	router        *gin.Engine
	statusRecords *store.MemoryRepository[model.OrderStatusRecord]
	selectRecords *store.MemoryRepository[model.SelectRecord]
}

// newFixture wires a full server over memory repositories and an optional
// stub gateway.
func newFixture(t *testing.T, gatewayURL string) *fixture {
	t.Helper()

	actions := store.NewMemoryRepository[model.InitiatedAction]()
	searchRecords := store.NewMemoryRepository[model.SearchRecord]()
	selectRecords := store.NewMemoryRepository[model.SelectRecord]()
	statusRecords := store.NewMemoryRepository[model.OrderStatusRecord]()

	var gateways []registry.Gateway
	if gatewayURL != "" {
		gateways = []registry.Gateway{{ID: "gw-test", URL: gatewayURL}}
	}

	services := Services{
		Dispatcher:   dispatch.NewDispatcher(registry.NewDirectory(gateways), actions, 2*time.Second, 0, nil),
		SearchIngest: ingest.NewService(model.ActionSearch, searchRecords, nil),
		SelectIngest: ingest.NewService(model.ActionSelect, selectRecords, nil),
		StatusIngest: ingest.NewService(model.ActionOrderStatus, statusRecords, nil),
		SearchPoll:   poll.NewService(model.ActionSearch, searchRecords, SearchTransform(), nil),
		SelectPoll:   poll.NewService(model.ActionSelect, selectRecords, SelectTransform(), nil),
		StatusPoll:   poll.NewService(model.ActionOrderStatus, statusRecords, OrderStatusTransform(), nil),
		Resolver: auth.NewResolver(map[string]auth.Identity{
			"tok-1": {UID: "u-1", Name: "John"},
		}),
	}

	srv := NewServer(config.ServerConfig{Address: ":0"}, services, nil)
	router, err := srv.buildRouter()
	if err != nil {
		t.Fatalf("buildRouter failed: %v", err)
	}

	return &fixture{router: router, statusRecords: statusRecords, selectRecords: selectRecords}
}

func (f *fixture) do(t *testing.T, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func insertStatusRecord(t *testing.T, f *fixture, messageID, state string) {
	t.Helper()
	err := f.statusRecords.InsertOne(context.Background(), model.OrderStatusRecord{
		Context: model.Context{MessageID: messageID, Action: model.ActionOrderStatus},
		Order:   &model.Order{ID: "order-1", State: state},
	})
	if err != nil {
		t.Fatalf("insert status record: %v", err)
	}
}

func TestSearchReturnsAck(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ack": model.NewAckMessage()})
	}))
	defer gateway.Close()

	f := newFixture(t, gateway.URL)
	w := f.do(t, http.MethodPost, "/client/v1/search", SearchRequest{Intent: model.Intent{Query: "tea"}}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp model.ClientResponse[model.AckMessage]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("ack response carries error: %+v", resp.Error)
	}
	if resp.Message == nil || resp.Message.Ack.Status != model.AckStatusACK {
		t.Fatalf("response message = %+v, want ACK", resp.Message)
	}
	if resp.Context.MessageID == "" {
		t.Fatal("ack context is missing the correlation id")
	}
}

func TestSearchWithoutGatewaysFails(t *testing.T) {
	f := newFixture(t, "")
	w := f.do(t, http.MethodPost, "/client/v1/search", SearchRequest{}, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp model.ClientResponse[model.AckMessage]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "REL_002" {
		t.Fatalf("error = %+v, want REL_002", resp.Error)
	}
}

func TestCallbackThenPollRoundTrip(t *testing.T) {
	f := newFixture(t, "")

	payload := model.OnSelect{
		Context: model.Context{MessageID: "m-select", Action: model.ActionSelect, Timestamp: time.Now().UTC()},
		Quote: &model.Quotation{
			Items:      []model.Item{{ID: "i1", Name: "Assam tea", Price: model.Price{Currency: "INR", Value: "42.50"}}},
			TotalPrice: model.Price{Currency: "INR", Value: "42.50"},
		},
	}

	w := f.do(t, http.MethodPost, "/protocol/v1/on_select", payload, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("callback status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/client/v1/on_select?messageId=m-select", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("poll status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp model.ClientResponse[model.Quotation]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message == nil {
		t.Fatalf("poll response = %s, want quote payload", w.Body.String())
	}
	if resp.Message.TotalPrice != payload.Quote.TotalPrice {
		t.Fatalf("total price = %+v, want %+v", resp.Message.TotalPrice, payload.Quote.TotalPrice)
	}
	if len(resp.Message.Items) != 1 || resp.Message.Items[0] != payload.Quote.Items[0] {
		t.Fatalf("items = %+v, want ingested content", resp.Message.Items)
	}
}

func TestPollBeforeCallbackIsNoRecord(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/client/v1/on_order_status?messageId=never-sent", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for not-yet-arrived callback", w.Code)
	}

	var resp model.ClientResponse[model.Order]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "REL_005" {
		t.Fatalf("error = %+v, want REL_005", resp.Error)
	}
}

func TestCallbackWithoutMessageIDRejected(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/protocol/v1/on_order_status", model.OnOrderStatus{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBatchPollRequiresIdentity(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/client/v2/on_order_status?messageIds=m1", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for anonymous caller", w.Code)
	}
}

func TestBatchPollEmptyIDs(t *testing.T) {
	f := newFixture(t, "")
	headers := map[string]string{"Authorization": "Bearer tok-1"}

	w := f.do(t, http.MethodGet, "/client/v2/on_order_status?messageIds=", nil, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp []model.ClientResponse[model.Order]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) == 0 || resp[0].Error == nil || resp[0].Error.Code != "REL_006" {
		t.Fatalf("body = %s, want array whose first element carries the bad-request error", w.Body.String())
	}
}

func TestBatchPollPartialResults(t *testing.T) {
	f := newFixture(t, "")
	insertStatusRecord(t, f, "m1", "PACKED")
	insertStatusRecord(t, f, "m2", "DELIVERED")

	headers := map[string]string{"Authorization": "Bearer tok-1"}
	w := f.do(t, http.MethodGet, "/client/v2/on_order_status?messageIds=m1,m2,missing", nil, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; per-item failures must not fail the batch", w.Code)
	}

	var resp []model.ClientResponse[model.Order]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 3 {
		t.Fatalf("batch returned %d elements, want 3", len(resp))
	}
	if resp[0].Message == nil || resp[0].Message.State != "PACKED" {
		t.Fatalf("slot 0 = %+v, want PACKED order", resp[0])
	}
	if resp[1].Message == nil || resp[1].Message.State != "DELIVERED" {
		t.Fatalf("slot 1 = %+v, want DELIVERED order", resp[1])
	}
	if resp[2].Error == nil || resp[2].Error.Code != "REL_005" {
		t.Fatalf("slot 2 = %+v, want per-item REL_005", resp[2])
	}
}

func TestBatchPollOrderIndependence(t *testing.T) {
	f := newFixture(t, "")
	insertStatusRecord(t, f, "m1", "PACKED")

	headers := map[string]string{"Authorization": "Bearer tok-1"}
	w := f.do(t, http.MethodGet, "/client/v2/on_order_status?messageIds=missing,m1", nil, headers)

	var resp []model.ClientResponse[model.Order]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp[0].Error == nil {
		t.Fatalf("slot 0 = %+v, want error for missing id", resp[0])
	}
	if resp[1].Message == nil || resp[1].Message.State != "PACKED" {
		t.Fatalf("slot 1 = %+v, positional correspondence broken", resp[1])
	}
}

func TestPollProviderErrorRecord(t *testing.T) {
	f := newFixture(t, "")

	err := f.selectRecords.InsertOne(context.Background(), model.SelectRecord{
		Context: model.Context{MessageID: "m-err", Action: model.ActionSelect},
		Error:   &model.Error{Code: "PROVIDER_30004", Message: "quote expired"},
	})
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}

	w := f.do(t, http.MethodGet, "/client/v1/on_select?messageId=m-err", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; a stored provider error is a retrievable answer", w.Code)
	}

	var resp model.ClientResponse[model.Quotation]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "PROVIDER_30004" {
		t.Fatalf("error = %+v, want provider error surfaced in envelope", resp.Error)
	}
	if !strings.Contains(w.Body.String(), "quote expired") {
		t.Fatalf("body = %s, want provider message intact", w.Body.String())
	}
}
