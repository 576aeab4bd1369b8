package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mvp-joe/phpintel/internal/service"
	"github.com/spf13/cobra"
)

var (
	infoPattern    string
	infoMode       string
	infoPublicOnly bool
	docMethod      bool
)

var infoCmd = &cobra.Command{
	Use:   "info [class]",
	Short: "List completion candidates of a class, or functions and constants",
	Long: `Info prints completion candidates as JSON. With a class it lists the class's
constants, methods, properties and @property annotations, inherited ones
included. Without a class it lists free functions and global constants
matching --pattern.

Examples:
  phpintel info 'App\Model\User' --mode static
  phpintel info --pattern array_`,
	Args: cobra.MaximumNArgs(1),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		class := argOrEmpty(args, 0)
		if class == "" && infoPattern == "" {
			return fmt.Errorf("a class or --pattern is required")
		}
		items, err := svc.Info(class, infoPattern, infoMode, infoPublicOnly)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), items)
	}),
}

var locationCmd = &cobra.Command{
	Use:   "location <class|-> [member]",
	Short: "Print where a class, member or free function is declared",
	Long: `Location prints the declaration site as JSON. Pass '-' as the class to
locate a free function.

Examples:
  phpintel location 'App\Model\User' getName
  phpintel location - str_contains`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		loc := svc.Location(classArg(args[0]), argOrEmpty(args, 1))
		if loc.IsZero() {
			return fmt.Errorf("declaration not found")
		}
		return printJSON(cmd.OutOrStdout(), loc)
	}),
}

var funcTypeCmd = &cobra.Command{
	Use:   "functype <class|-> <function>",
	Short: "Resolve the return types of a method or free function",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		return printJSON(cmd.OutOrStdout(), svc.FuncType(classArg(args[0]), args[1]))
	}),
}

var propTypeCmd = &cobra.Command{
	Use:   "proptype <class> <property>",
	Short: "Resolve the types of a property",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		return printJSON(cmd.OutOrStdout(), svc.PropType(args[0], args[1]))
	}),
}

// DocOutput is the doc command result.
type DocOutput struct {
	Path string `json:"path"`
	Doc  string `json:"doc"`
}

var docCmd = &cobra.Command{
	Use:   "doc <class> <member>",
	Short: "Print the documentation of a property, or of a method with --method",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(cmd *cobra.Command, svc *service.Service, args []string) error {
		path, doc := svc.Doc(args[0], args[1], docMethod)
		return printJSON(cmd.OutOrStdout(), DocOutput{Path: path, Doc: doc})
	}),
}

func init() {
	rootCmd.AddCommand(infoCmd, locationCmd, funcTypeCmd, propTypeCmd, docCmd)

	infoCmd.Flags().StringVarP(&infoPattern, "pattern", "p", "", "typed prefix to filter by")
	infoCmd.Flags().StringVarP(&infoMode, "mode", "m", "both", "static filter: both, nonstatic or static")
	infoCmd.Flags().BoolVar(&infoPublicOnly, "public-only", false, "only list public members")

	docCmd.Flags().BoolVar(&docMethod, "method", false, "member is a method")
}

// withService opens the project for the duration of one command.
func withService(run func(cmd *cobra.Command, svc *service.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()
		return run(cmd, svc, args)
	}
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// classArg maps the '-' placeholder to the empty class.
func classArg(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
