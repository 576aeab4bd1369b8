package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/phpintel/internal/batch"
	"github.com/mvp-joe/phpintel/internal/config"
	"github.com/spf13/cobra"
)

var (
	workerIndexDir   string
	workerCacheFiles int
)

// workerCmd is started by the index supervisor; it reads a job on stdin and
// reports claims and its handoff on the inherited descriptor.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Index one batch of classes for a supervising process",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVar(&workerIndexDir, "index-dir", "", "hierarchy index directory")
	workerCmd.Flags().IntVar(&workerCacheFiles, "cache-files", config.Default().Cache.Files, "parsed files to keep in memory")
	workerCmd.MarkFlagRequired("index-dir")
}

func runWorker(cmd *cobra.Command, args []string) error {
	pipe, err := batch.HandoffPipe()
	if err != nil {
		return err
	}
	defer pipe.Close()

	env := batch.NewIndexEnvironment(workerIndexDir, workerCacheFiles)
	if err := batch.Serve(cmd.Context(), os.Stdin, pipe, env); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
