// Package ingest accepts inbound asynchronous callback payloads and
// persists them as correlation-keyed records. Repeated callbacks for the
// same message id accumulate as distinct records; a search fan-out
// legitimately produces many records per id, so no deduplication happens
// here. Redelivery on failure is the transport's concern, not ours.
package ingest

import (
	"context"

	"marketrelay/internal/fault"
	"marketrelay/internal/metrics"
	"marketrelay/internal/model"
	"marketrelay/internal/store"
	"marketrelay/logger"
)

// Service persists callback records of one shape.
type Service[R store.Correlated] struct {
	action model.Action
	repo   store.Repository[R]
	log    *logger.Log
}

// NewService builds an ingestion service for the given action's record
// shape. The action type is fixed by the endpoint the service backs, never
// inferred from payload content.
func NewService[R store.Correlated](action model.Action, repo store.Repository[R], log *logger.Log) *Service[R] {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service[R]{action: action, repo: repo, log: log}
}

// Ingest validates and persists one callback record. A missing correlation
// id is a request-shape violation; a store failure surfaces as a
// persistence fault and is not retried here.
func (s *Service[R]) Ingest(ctx context.Context, record R) fault.Fault {
	messageID := record.CorrelationID()
	if messageID == "" {
		return fault.BadRequest
	}

	if err := s.repo.InsertOne(ctx, record); err != nil {
		s.log.WithComponent("ingest").WithError(err).WithFields(logger.Fields{
			"action":     s.action,
			"message_id": messageID,
		}).Error("failed to persist callback record")
		return fault.WriteFailed
	}

	metrics.RecordIngest(string(s.action))
	logger.IncrementIngest()
	s.log.WithComponent("ingest").WithFields(logger.Fields{
		"action":     s.action,
		"message_id": messageID,
	}).Debug("callback record persisted")
	return nil
}
