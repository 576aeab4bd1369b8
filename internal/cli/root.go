package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/phpintel/internal/config"
	"github.com/mvp-joe/phpintel/internal/service"
	"github.com/spf13/cobra"
)

var (
	rootDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phpintel",
	Short: "phpintel - PHP code intelligence for editors and coding agents",
	Long: `phpintel answers questions about a PHP project: completion candidates,
declaration locations, resolved types, namespace imports and the
class hierarchy.

Run 'phpintel index' once to build the hierarchy index, then query it from
the command line, from an editor over 'phpintel serve', or from a coding
agent over 'phpintel mcp'.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot returns the absolute project root.
func projectRoot() (string, error) {
	if rootDir != "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve project root: %w", err)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// openService loads .phpintel/config.yml from the project root and builds
// the query service. Callers must Close it.
func openService(ctx context.Context) (*service.Service, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	svc, err := service.New(ctx, root, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", root, err)
	}
	if verbose {
		log.Printf("Project %s, index %s", root, svc.IndexDir())
	}
	return svc, nil
}
