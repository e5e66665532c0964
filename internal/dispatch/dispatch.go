// Package dispatch forwards initiating actions to a downstream gateway and
// records that the action happened, so later polls know what to correlate.
// The forward and the poll path share nothing but the store: a poll against
// a message id whose dispatch never completed still answers correctly.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"marketrelay/internal/fault"
	"marketrelay/internal/metrics"
	"marketrelay/internal/model"
	"marketrelay/internal/registry"
	"marketrelay/internal/store"
	"marketrelay/logger"
)

// envelope is the wire shape posted to a gateway and echoed in its
// synchronous acknowledgement.
type envelope struct {
	Context model.Context     `json:"context"`
	Message any               `json:"message,omitempty"`
	Error   *model.Error      `json:"error,omitempty"`
	Ack     *model.AckMessage `json:"ack,omitempty"`
}

// Dispatcher performs provider discovery, forwards the request and records
// the initiated action.
type Dispatcher struct {
	directory *registry.Directory
	actions   store.Repository[model.InitiatedAction]
	client    *http.Client
	limiter   *rate.Limiter
	log       *logger.Log
}

// NewDispatcher builds a dispatcher. Outbound calls are throttled to one
// per minInterval; zero disables throttling.
func NewDispatcher(directory *registry.Directory, actions store.Repository[model.InitiatedAction], timeout time.Duration, minInterval time.Duration, log *logger.Log) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if minInterval <= 0 {
		minInterval = time.Millisecond
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Dispatcher{
		directory: directory,
		actions:   actions,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		log:       log,
	}
}

// Dispatch looks up a gateway, forwards the action payload and records an
// InitiatedAction for the context's message id. The first failing step
// short-circuits the rest and its fault is returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, protoCtx model.Context, payload any) fault.Fault {
	var gateways []registry.Gateway

	flt := fault.Chain(
		func() fault.Fault {
			var f fault.Fault
			gateways, f = d.directory.Lookup()
			return f
		},
		func() fault.Fault {
			return d.forward(ctx, gateways[0], protoCtx, payload)
		},
		func() fault.Fault {
			return d.recordInitiated(ctx, protoCtx)
		},
	)

	if flt != nil {
		metrics.RecordDispatch(string(protoCtx.Action), metrics.OutcomeFailure)
		return flt
	}

	metrics.RecordDispatch(string(protoCtx.Action), metrics.OutcomeSuccess)
	logger.IncrementDispatch()
	d.log.WithComponent("dispatch").WithFields(logger.Fields{
		"action":     protoCtx.Action,
		"message_id": protoCtx.MessageID,
		"gateway":    gateways[0].ID,
	}).Info("action forwarded")
	return nil
}

func (d *Dispatcher) forward(ctx context.Context, gw registry.Gateway, protoCtx model.Context, payload any) fault.Fault {
	if err := d.limiter.Wait(ctx); err != nil {
		return fault.GatewayUnreachable
	}

	body, err := json.Marshal(envelope{Context: protoCtx, Message: payload})
	if err != nil {
		return fault.BadRequest
	}

	url := fmt.Sprintf("%s/%s", gw.URL, protoCtx.Action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fault.GatewayUnreachable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.WithComponent("dispatch").WithError(err).WithFields(logger.Fields{
			"gateway": gw.ID,
			"url":     url,
		}).Warn("gateway request failed")
		return fault.GatewayUnreachable
	}
	defer resp.Body.Close()

	var ack envelope
	if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.Error != nil {
		// Explicit negative acknowledgement; the provider's own code and
		// message travel unchanged.
		return fault.ProviderNack{
			Code:       ack.Error.Code,
			Message:    ack.Error.Message,
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode >= 400 {
		return fault.ProviderNack{
			Code:       "PROVIDER_NACK",
			Message:    fmt.Sprintf("gateway responded with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

func (d *Dispatcher) recordInitiated(ctx context.Context, protoCtx model.Context) fault.Fault {
	record := model.InitiatedAction{MessageID: protoCtx.MessageID, ActionType: protoCtx.Action}
	if err := d.actions.InsertOne(ctx, record); err != nil {
		d.log.WithComponent("dispatch").WithError(err).WithFields(logger.Fields{
			"message_id": protoCtx.MessageID,
		}).Error("failed to record initiated action")
		return fault.WriteFailed
	}
	return nil
}
