package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mvp-joe/phpintel/internal/service"
	"github.com/spf13/cobra"
)

var nsUseCmd = &cobra.Command{
	Use:   "nsuse <file>",
	Short: "Print the namespace, declared class and imports of a PHP file",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), svc.NsUse(path))
	}),
}

var psr4NsCmd = &cobra.Command{
	Use:   "psr4ns <file>",
	Short: "Suggest namespaces for a file from composer.json PSR-4 mappings",
	Long: `Psr4ns prints, one per line, the namespaces the file's directory maps to
under the autoload and autoload-dev psr-4 sections of composer.json. Only
the mappings with the longest matching directory are used.`,
	Args: cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
		namespaces, err := svc.Psr4Ns(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ns := range namespaces {
			fmt.Fprintln(out, ns)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(nsUseCmd, psr4NsCmd)
}
