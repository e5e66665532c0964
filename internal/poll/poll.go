// Package poll is the correlation and retrieval engine. Given one or more
// message ids it looks up the callback records that have arrived so far,
// maps the first match into the client-facing shape and reports typed
// faults for everything else. The engine holds no state between calls;
// every poll is a fresh read against the store, so a caller retrying after
// a delay observes newly ingested records with no extra synchronization.
package poll

import (
	"context"

	"marketrelay/internal/auth"
	"marketrelay/internal/fault"
	"marketrelay/internal/metrics"
	"marketrelay/internal/model"
	"marketrelay/internal/store"
	"marketrelay/logger"
)

// Transform maps a stored callback record into the client-facing envelope.
// A record carrying an explicit provider error maps to an error-bearing
// envelope; consumers treat presence of the error field as authoritative.
type Transform[R store.Correlated, M any] func(R) model.ClientResponse[M]

// Service retrieves callback records of one shape and renders them as
// client responses carrying payloads of type M.
type Service[R store.Correlated, M any] struct {
	action    model.Action
	repo      store.Repository[R]
	transform Transform[R, M]
	log       *logger.Log
}

// NewService builds a poll service for one action's record shape.
func NewService[R store.Correlated, M any](action model.Action, repo store.Repository[R], transform Transform[R, M], log *logger.Log) *Service[R, M] {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service[R, M]{action: action, repo: repo, transform: transform, log: log}
}

// PollOne retrieves the answer for a single message id. Zero stored
// records yield fault.NoRecord: polling before the callback arrived is not
// a client error, so it keeps the persistence classification. With one or
// more records the first in insertion order is mapped; the rest of a
// fan-out stays retrievable through the batch contract, one id per slot.
func (s *Service[R, M]) PollOne(ctx context.Context, messageID string) (model.ClientResponse[M], fault.Fault) {
	var zero model.ClientResponse[M]

	if messageID == "" {
		return zero, fault.BadRequest
	}

	record, found, err := s.repo.FindOne(ctx, store.Query{MessageID: messageID})
	if err != nil {
		metrics.RecordPoll(string(s.action), metrics.OutcomeFailure)
		s.log.WithComponent("poll").WithError(err).WithFields(logger.Fields{
			"action":     s.action,
			"message_id": messageID,
		}).Error("store read failed")
		return zero, fault.ReadFailed
	}
	if !found {
		metrics.RecordPoll(string(s.action), metrics.OutcomeMiss)
		logger.IncrementPollMiss()
		return zero, fault.NoRecord
	}

	metrics.RecordPoll(string(s.action), metrics.OutcomeSuccess)
	logger.IncrementPollServed()
	return s.transform(record), nil
}

// PollMany retrieves answers for a batch of message ids on behalf of an
// authenticated caller. The identity is an explicit parameter; resolving
// it happens upstream. An empty id list fails fast with a bad-request
// fault before any store access. Per-id lookups are independent: a
// failure for one id becomes an error-bearing slot at that id's position
// and never aborts the batch or affects any other slot.
func (s *Service[R, M]) PollMany(ctx context.Context, identity auth.Identity, messageIDs []string) ([]model.ClientResponse[M], fault.Fault) {
	if len(messageIDs) == 0 {
		return nil, fault.BadRequest
	}

	s.log.WithComponent("poll").WithFields(logger.Fields{
		"action": s.action,
		"caller": identity.UID,
		"ids":    len(messageIDs),
	}).Debug("batch poll")

	responses := make([]model.ClientResponse[M], len(messageIDs))
	for i, messageID := range messageIDs {
		response, flt := s.PollOne(ctx, messageID)
		if flt != nil {
			detail := flt.Detail()
			responses[i] = model.ClientResponse[M]{
				Context: model.Context{MessageID: messageID, Action: s.action},
				Error:   &detail,
			}
			continue
		}
		responses[i] = response
	}
	return responses, nil
}
