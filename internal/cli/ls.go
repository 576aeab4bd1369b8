package cli

import (
	"fmt"

	"github.com/mvp-joe/phpintel/internal/service"
	"github.com/spf13/cobra"
)

var (
	lsInterface bool
	lsRecursive bool
)

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls <name>",
	Short: "List implementors of an interface or subclasses of a class",
	Long: `Ls reads the hierarchy index built by 'phpintel index' and prints one class
per line.

Examples:
  phpintel ls 'App\Model\Model'
  phpintel ls --interface 'App\Contracts\Named'
  phpintel ls --interface --recursive 'App\Contracts\Named'`,
	Args: cobra.ExactArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		var names []string
		if lsRecursive {
			var err error
			names, err = svc.Descendants(args[0], lsInterface)
			if err != nil {
				return err
			}
		} else {
			names = svc.Ls(args[0], lsInterface)
		}

		out := cmd.OutOrStdout()
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsInterface, "interface", "i", false, "name is an interface; list its implementors")
	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "include indirect descendants")
}
