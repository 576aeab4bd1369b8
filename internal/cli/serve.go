package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mvp-joe/phpintel/internal/rpc"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer editor queries over JSON-RPC on stdio",
	Long: `Serve runs a JSON-RPC 2.0 session on stdin/stdout using Content-Length
framing, for editor plugins. The session ends when the client disconnects.

Methods: info, location, nsuse, functype, proptype, psr4ns, doc, update, ls,
descendants, index. During index the server sends progress/open,
progress/increment and progress/close notifications.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stdio joins stdin and stdout into one connection.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := rpc.NewServer(svc).Serve(ctx, stdio{os.Stdin, os.Stdout}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("rpc server error: %w", err)
	}
	return nil
}
