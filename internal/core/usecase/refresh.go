package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kirillkom/vector-insight/internal/core/ports"
)

// RefreshUseCase hands index rebuilds to the worker through the message queue.
type RefreshUseCase struct {
	queue ports.MessageQueue
}

func NewRefreshUseCase(queue ports.MessageQueue) *RefreshUseCase {
	return &RefreshUseCase{queue: queue}
}

func (uc *RefreshUseCase) RequestRefresh(ctx context.Context) (string, error) {
	jobID := uuid.NewString()
	if err := uc.queue.PublishRefreshRequested(ctx, jobID); err != nil {
		return "", fmt.Errorf("publish refresh request: %w", err)
	}
	slog.Info("index_refresh_requested", "job_id", jobID)
	return jobID, nil
}
