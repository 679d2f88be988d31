package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/application/gidqueue"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/config"
	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// Queue re-exports gidqueue.Queue so callers of this file don't need
// their own import of the gidqueue package.
type Queue = gidqueue.Queue

// QueueCommands returns the "queue" cobra command group shared by both
// binaries: scheduling or clearing a delete/download request, and
// listing the two queues. configPath is read lazily at RunE time so
// callers can bind it to a shared --config flag.
func QueueCommands(groupID string, configPath *string, logger zerolog.Logger) []*cobra.Command {
	requestDelete := &cobra.Command{
		Use:     "request-delete <gid>",
		Short:   "Schedule a gallery for deletion",
		GroupID: groupID,
		Args:    cobra.ExactArgs(1),
		RunE: withQueue(configPath, logger, func(ctx context.Context, q *Queue, gid h2h.GID, _ string) error {
			return q.RequestDelete(ctx, gid)
		}),
	}

	requestDownload := &cobra.Command{
		Use:     "request-download <gid> [url]",
		Short:   "Schedule a gallery for (re)download",
		GroupID: groupID,
		Args:    cobra.RangeArgs(1, 2),
		RunE: withQueue(configPath, logger, func(ctx context.Context, q *Queue, gid h2h.GID, url string) error {
			return q.RequestDownload(ctx, gid, url)
		}),
	}

	listDeletes := &cobra.Command{
		Use:     "list-deletes",
		Short:   "List every gid scheduled for deletion",
		GroupID: groupID,
		RunE: withOpenQueue(configPath, logger, func(ctx context.Context, q *Queue) error {
			gids, err := q.DeleteQueue(ctx)
			if err != nil {
				return err
			}
			for _, gid := range gids {
				fmt.Println(gid.String())
			}
			return nil
		}),
	}

	listDownloads := &cobra.Command{
		Use:     "list-downloads",
		Short:   "List every gid scheduled for download, with its known url",
		GroupID: groupID,
		RunE: withOpenQueue(configPath, logger, func(ctx context.Context, q *Queue) error {
			urls, err := q.DownloadQueue(ctx)
			if err != nil {
				return err
			}
			for gid, url := range urls {
				fmt.Printf("%s\t%s\n", gid.String(), url)
			}
			return nil
		}),
	}

	return []*cobra.Command{requestDelete, requestDownload, listDeletes, listDownloads}
}

func withQueue(configPath *string, logger zerolog.Logger, fn func(ctx context.Context, q *Queue, gid h2h.GID, arg string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		gid, err := parseGID(args[0])
		if err != nil {
			return err
		}
		arg := ""
		if len(args) > 1 {
			arg = args[1]
		}
		return withOpenQueue(configPath, logger, func(ctx context.Context, q *Queue) error {
			return fn(ctx, q, gid, arg)
		})(cmd, nil)
	}
}

func withOpenQueue(configPath *string, logger zerolog.Logger, fn func(ctx context.Context, q *Queue) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := Build(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		return fn(ctx, a.GidQueue)
	}
}

func parseGID(s string) (h2h.GID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse gid %q: %w", s, err)
	}
	return h2h.GID(n), nil
}
