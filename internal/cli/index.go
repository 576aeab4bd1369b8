package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	quietFlag bool
	watchFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the class hierarchy index",
	Long: `Index regenerates the class map and records, for every class, which
interfaces it implements and which class it extends. 'phpintel ls' and the
ls tools read the result.

Each batch runs in a worker process by default, so a class that crashes the
parser is skipped instead of aborting the run (see index.isolation).

With --watch, phpintel keeps running and reindexes PHP files as they change.

Examples:
  phpintel index
  phpintel index --watch
  phpintel -C path/to/project index --quiet`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress progress output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "keep reindexing changed files")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.ErrOrStderr()
	progress := NewCLIProgressReporter(out, quietFlag)

	stats, err := svc.Index(ctx, progress)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}
	if !quietFlag {
		printStats(cmd.OutOrStdout(), stats)
	}

	if !watchFlag {
		return nil
	}

	if !quietFlag {
		log.Println("Starting watch mode...")
	}
	if err := svc.Watch(ctx, progress); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}
