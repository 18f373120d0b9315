package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

type queueFake struct {
	published []string
	err       error
}

func (q *queueFake) PublishRefreshRequested(_ context.Context, jobID string) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, jobID)
	return nil
}

func (q *queueFake) SubscribeRefreshRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestRequestRefreshPublishesJobID(t *testing.T) {
	queue := &queueFake{}
	jobID, err := NewRefreshUseCase(queue).RequestRefresh(context.Background())
	if err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}
	if jobID == "" || len(queue.published) != 1 || queue.published[0] != jobID {
		t.Fatalf("unexpected publish: job=%q published=%v", jobID, queue.published)
	}
}

func TestRequestRefreshKeepsErrorKind(t *testing.T) {
	queue := &queueFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))}
	_, err := NewRefreshUseCase(queue).RequestRefresh(context.Background())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
}
