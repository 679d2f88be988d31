package app

import (
	"context"
	"fmt"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/jobs/asynq"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/jobs/tasks"
)

// RunDaemon runs the orchestrator pass and (when configured) the Komga
// sync on the cron schedule in a.Config.Daemon, via an asynq server and
// periodic task manager sharing the same Redis instance. It blocks
// until ctx is canceled.
func (a *App) RunDaemon(ctx context.Context) error {
	d := a.Config.Daemon
	if !d.Enabled {
		return fmt.Errorf("daemon.enabled must be true to run h2hdb-cbz daemon")
	}

	server, err := asynq.NewServer(asynq.ServerConfig{
		RedisAddr:     d.RedisAddr,
		RedisPassword: d.RedisPassword,
		RedisDB:       d.RedisDB,
		Concurrency:   d.Concurrency,
		Queues:        map[string]int{"default": 1},
		Logger:        a.Logger,
	})
	if err != nil {
		return fmt.Errorf("build asynq server: %w", err)
	}

	server.RegisterHandler(tasks.TypeOrchestratorRun, tasks.NewOrchestratorRunHandler(a.Orchestrator(), a.Logger))

	periodic := []asynq.PeriodicTask{
		{Cron: d.OrchestratorCron, Task: tasks.NewOrchestratorRunTask},
	}

	if a.Komga != nil {
		server.RegisterHandler(tasks.TypeKomgaSync, tasks.NewKomgaSyncHandler(a.Komga, a.Logger))
		periodic = append(periodic, asynq.PeriodicTask{Cron: d.KomgaSyncCron, Task: tasks.NewKomgaSyncTask})
	}

	scheduler, err := asynq.NewScheduler(d.RedisAddr, d.RedisPassword, d.RedisDB, periodic, a.Logger)
	if err != nil {
		return fmt.Errorf("build asynq scheduler: %w", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start() }()
	go func() { errCh <- scheduler.Run() }()

	select {
	case <-ctx.Done():
		scheduler.Shutdown()
		server.Shutdown()
		return nil
	case err := <-errCh:
		scheduler.Shutdown()
		server.Shutdown()
		return err
	}
}
