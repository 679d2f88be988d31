package asynq

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// PeriodicTask pairs a cron spec with the task it enqueues. Both
// TypeOrchestratorRun and TypeKomgaSync in jobs/tasks build one of
// these from their NewXTask constructors.
type PeriodicTask struct {
	Cron string
	Task func() (*asynq.Task, error)
}

// staticConfigProvider implements asynq.PeriodicTaskConfigProvider over
// a fixed slice of PeriodicTasks, since h2hdb's schedule comes from the
// config file once at startup rather than from a database table.
type staticConfigProvider struct {
	tasks []PeriodicTask
}

// GetConfigs implements asynq.PeriodicTaskConfigProvider.
func (p *staticConfigProvider) GetConfigs() ([]*asynq.PeriodicTaskConfig, error) {
	configs := make([]*asynq.PeriodicTaskConfig, 0, len(p.tasks))
	for _, pt := range p.tasks {
		task, err := pt.Task()
		if err != nil {
			return nil, fmt.Errorf("build periodic task for %q: %w", pt.Cron, err)
		}
		configs = append(configs, &asynq.PeriodicTaskConfig{Cronspec: pt.Cron, Task: task})
	}
	return configs, nil
}

// Scheduler wraps asynq.PeriodicTaskManager, re-enqueuing each
// registered PeriodicTask on its cron schedule.
type Scheduler struct {
	manager *asynq.PeriodicTaskManager
	logger  zerolog.Logger
}

// NewScheduler builds a Scheduler that shares redisAddr with the
// Server processing the enqueued tasks.
func NewScheduler(redisAddr, redisPassword string, redisDB int, tasks []PeriodicTask, logger zerolog.Logger) (*Scheduler, error) {
	if redisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	mgr, err := asynq.NewPeriodicTaskManager(asynq.PeriodicTaskManagerOpts{
		RedisConnOpt: asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
		PeriodicTaskConfigProvider: &staticConfigProvider{tasks: tasks},
		SyncInterval:               0, // use the package default
	})
	if err != nil {
		return nil, fmt.Errorf("build periodic task manager: %w", err)
	}
	return &Scheduler{manager: mgr, logger: logger}, nil
}

// Run blocks, enqueuing tasks on schedule until the manager is shut
// down with Shutdown.
func (s *Scheduler) Run() error {
	s.logger.Info().Msg("starting asynq periodic task manager")
	if err := s.manager.Run(); err != nil {
		return fmt.Errorf("periodic task manager run: %w", err)
	}
	return nil
}

// Shutdown stops the periodic task manager.
func (s *Scheduler) Shutdown() {
	s.manager.Shutdown()
}
