package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/pkg/jobs"
)

type postingCompleter interface {
	CompletePosting(ctx context.Context, requestID, actorID string) error
}

// PostingWorker drains the posting queue after auto-post final approvals.
type PostingWorker struct {
	approvals postingCompleter
	logger    *zap.Logger
}

// NewPostingWorker constructs a posting worker.
func NewPostingWorker(approvals postingCompleter, logger *zap.Logger) *PostingWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingWorker{approvals: approvals, logger: logger}
}

// Handle posts the request identified by the queue job. Payload carries
// the actor who triggered the auto-post.
func (w *PostingWorker) Handle(ctx context.Context, job jobs.Job) error {
	actorID, ok := job.Payload.(string)
	if !ok || actorID == "" {
		return fmt.Errorf("posting job %s missing actor payload", job.ID)
	}
	if err := w.approvals.CompletePosting(ctx, job.ID, actorID); err != nil {
		w.logger.Warn("posting job failed", zap.String("request_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}

// QueuePostingDispatcher adapts a jobs.Queue to the PostingDispatcher interface.
type QueuePostingDispatcher struct {
	queue *jobs.Queue
}

// NewQueuePostingDispatcher constructs the dispatcher.
func NewQueuePostingDispatcher(queue *jobs.Queue) *QueuePostingDispatcher {
	return &QueuePostingDispatcher{queue: queue}
}

// EnqueuePosting implements PostingDispatcher.
func (d *QueuePostingDispatcher) EnqueuePosting(_ context.Context, requestID, actorID string) error {
	return d.queue.Enqueue(jobs.Job{ID: requestID, Type: "posting", Payload: actorID})
}
