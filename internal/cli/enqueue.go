package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cog_mailing_sync/internal/bootstrap"
	"cog_mailing_sync/internal/scheduler"
	"cog_mailing_sync/platform/db"
)

var (
	enqueueLimit   int
	enqueueParcels string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue parcels for the worker instead of reconciling them here",
	Args:  cobra.NoArgs,
	RunE:  runEnqueue,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the review queue migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := db.RunMigrations(cmd.Context(), e.cfg); err != nil {
			return err
		}
		e.log.Info("database migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enqueueCmd, migrateCmd)

	enqueueCmd.Flags().IntVar(&enqueueLimit, "limit", 0, "stop after this many parcels (0 = no limit)")
	enqueueCmd.Flags().StringVar(&enqueueParcels, "parcels", "", "YAML file with an explicit parcel id list")
}

// parcelEnqueuer is satisfied by *scheduler.Client.
type parcelEnqueuer interface {
	EnqueueParcel(ctx context.Context, parcelID string) (bool, error)
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	client, err := scheduler.NewClient(e.cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	var ids []string
	if enqueueParcels != "" {
		if ids, err = readParcelList(enqueueParcels); err != nil {
			return err
		}
	} else {
		stack, err := bootstrap.Connect(ctx, e.cfg, e.log)
		if err != nil {
			return err
		}
		defer stack.Close()
		if ids, err = listParcels(ctx, stack.Cog.Repository(), enqueueLimit); err != nil {
			return err
		}
	}
	if enqueueLimit > 0 && len(ids) > enqueueLimit {
		ids = ids[:enqueueLimit]
	}

	queued, duplicates, err := enqueueAll(ctx, client, ids)
	fmt.Fprintf(cmd.OutOrStdout(), "queued=%d already_queued=%d\n", queued, duplicates)
	return err
}

type parcelLister interface {
	ListActiveParcelIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

func listParcels(ctx context.Context, lister parcelLister, limit int) ([]string, error) {
	const page = 1000
	var out []string
	after := ""
	for {
		ids, err := lister.ListActiveParcelIDs(ctx, after, page)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
		if len(ids) < page || (limit > 0 && len(out) >= limit) {
			return out, nil
		}
		after = ids[len(ids)-1]
	}
}

func enqueueAll(ctx context.Context, q parcelEnqueuer, ids []string) (queued, duplicates int, err error) {
	for _, id := range ids {
		ok, err := q.EnqueueParcel(ctx, id)
		if err != nil {
			return queued, duplicates, err
		}
		if ok {
			queued++
		} else {
			duplicates++
		}
	}
	return queued, duplicates, nil
}
