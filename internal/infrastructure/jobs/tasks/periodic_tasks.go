package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/komgasync"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/orchestrator"
)

const (
	// TypeOrchestratorRun is the periodic task type that drives the
	// drive/ingest/archive pass (orchestrator.Orchestrator.Run). The
	// REDESIGN FLAG on insert_h2h_download's original unbounded
	// self-recursion after sleep(1800) is resolved by this task: Run
	// loops in-process only while a pass inserts something, and this
	// periodic task is what re-enters it once a pass goes idle.
	TypeOrchestratorRun = "orchestrator:run"

	// TypeKomgaSync is the periodic task type that drives one pass of
	// the Komga library metadata sync.
	TypeKomgaSync = "komga:sync"

	// DefaultMaxRetry is the default number of retry attempts.
	DefaultMaxRetry = 3

	// DefaultTimeout bounds a single task execution.
	DefaultTimeout = 2 * time.Hour
)

// OrchestratorRunHandler drives one call to Orchestrator.Run per task
// execution; the asynq scheduler re-enqueues it on a fixed interval.
type OrchestratorRunHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
}

// NewOrchestratorRunHandler creates a new orchestrator-run task handler.
func NewOrchestratorRunHandler(o *orchestrator.Orchestrator, logger zerolog.Logger) *OrchestratorRunHandler {
	return &OrchestratorRunHandler{orchestrator: o, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *OrchestratorRunHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	h.logger.Info().Str("task_type", t.Type()).Msg("orchestrator run starting")

	if err := h.orchestrator.Run(ctx); err != nil {
		h.logger.Error().Err(err).Msg("orchestrator run failed")
		return fmt.Errorf("orchestrator run: %w", err)
	}

	h.logger.Info().Dur("duration", time.Since(start)).Msg("orchestrator run finished")
	return nil
}

// NewOrchestratorRunTask builds the periodic orchestrator-run task.
func NewOrchestratorRunTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TypeOrchestratorRun,
		nil,
		asynq.MaxRetry(DefaultMaxRetry),
		asynq.Timeout(DefaultTimeout),
		asynq.Queue("default"),
	), nil
}

// KomgaSyncHandler drives one pass of the Komga metadata sync per task
// execution.
type KomgaSyncHandler struct {
	sync   *komgasync.Sync
	logger zerolog.Logger
}

// NewKomgaSyncHandler creates a new Komga-sync task handler.
func NewKomgaSyncHandler(sync *komgasync.Sync, logger zerolog.Logger) *KomgaSyncHandler {
	return &KomgaSyncHandler{sync: sync, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *KomgaSyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	h.logger.Info().Str("task_type", t.Type()).Msg("komga sync starting")

	if err := h.sync.Run(ctx); err != nil {
		h.logger.Error().Err(err).Msg("komga sync failed")
		return fmt.Errorf("komga sync: %w", err)
	}

	h.logger.Info().Dur("duration", time.Since(start)).Msg("komga sync finished")
	return nil
}

// NewKomgaSyncTask builds the periodic Komga-sync task.
func NewKomgaSyncTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TypeKomgaSync,
		nil,
		asynq.MaxRetry(DefaultMaxRetry),
		asynq.Timeout(DefaultTimeout),
		asynq.Queue("default"),
	), nil
}
