package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cog_mailing_sync/internal/parcelsync"
	"cog_mailing_sync/platform/validator"
)

var (
	runLimit    int
	runSkipTo   int
	runPageSize int
	runParcels  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile every active parcel, one at a time",
	Long: `Run walks the active parcels in Cog in parcel id order and reconciles each
one. A parcel that fails is logged and counted; the run continues.

Example:
  parcel-sync run
  parcel-sync run --skip-to 12000 --limit 500
  parcel-sync run --parcels parcels.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var oneCmd = &cobra.Command{
	Use:   "one <parcel-id>",
	Short: "Reconcile a single parcel and print its report",
	Args:  cobra.ExactArgs(1),
	RunE:  runOne,
}

func init() {
	rootCmd.AddCommand(runCmd, oneCmd)

	runCmd.Flags().IntVar(&runLimit, "limit", 0, "stop after this many parcels (0 = no limit)")
	runCmd.Flags().IntVar(&runSkipTo, "skip-to", 0, "skip this many parcels before starting")
	runCmd.Flags().IntVar(&runPageSize, "page-size", 500, "parcel ids fetched per listing query")
	runCmd.Flags().StringVar(&runParcels, "parcels", "", "YAML file with an explicit parcel id list")
}

// parcelList is the --parcels file format.
type parcelList struct {
	Parcels []string `yaml:"parcels"`
}

func readParcelList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list parcelList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ids := make([]string, 0, len(list.Parcels))
	for _, id := range list.Parcels {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s lists no parcels", path)
	}
	return ids, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	params := parcelsync.RunParams{SkipTo: runSkipTo, Limit: runLimit, PageSize: runPageSize}
	if runParcels != "" {
		ids, err := readParcelList(runParcels)
		if err != nil {
			return err
		}
		params.ParcelIDs = ids
	}
	if err := validator.New().Struct(params); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	stack, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	svc := stack.SyncService(parcelsync.Options{DryRun: dryRun})
	summary, err := parcelsync.NewRunner(svc, stack.Cog.Repository(), stack.Bus, e.log).Run(ctx, params)

	fmt.Fprintf(cmd.OutOrStdout(),
		"run %s: processed=%d applied=%d unchanged=%d skipped=%d flagged=%d failed=%d in %s\n",
		summary.RunID, summary.Processed, summary.Applied, summary.Unchanged,
		summary.Skipped, summary.Flagged, summary.Failed, summary.Duration.Round(time.Millisecond),
	)
	return err
}

func runOne(cmd *cobra.Command, args []string) error {
	parcelID := strings.TrimSpace(args[0])
	if !validator.ParcelID(parcelID) {
		return fmt.Errorf("invalid parcel id %q", args[0])
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	stack, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	report, err := stack.SyncService(parcelsync.Options{DryRun: dryRun}).SyncParcel(ctx, parcelID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
