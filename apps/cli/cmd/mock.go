package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcall-dev/jcall/packages/mock"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve the callfile's mock routes",
	Long: `Serve the mock routes defined in the callfile. Paths support :param
segments, and bodies may reference matched params as {param}.

Examples:
  jcall mock
  jcall mock --port 9090 --delay 200ms --verbose`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

var (
	mockFileFlag    string
	mockPortFlag    int
	mockDelayFlag   time.Duration
	mockVerboseFlag bool
)

func init() {
	mockCmd.Flags().StringVarP(&mockFileFlag, "file", "f", getEnvString("JCALL_FILE", ""), "Callfile path (env: JCALL_FILE)")
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", getEnvInt("JCALL_MOCK_PORT", 8080), "Port to listen on (env: JCALL_MOCK_PORT)")
	mockCmd.Flags().DurationVar(&mockDelayFlag, "delay", 0, "Extra latency added to every response")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every served request")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	f, err := loadCallfile(mockFileFlag)
	if err != nil {
		return err
	}
	if len(f.Mock) == 0 {
		return fmt.Errorf("the callfile defines no mock routes")
	}

	server := mock.NewServer(
		mock.WithPort(mockPortFlag),
		mock.WithDelay(mockDelayFlag),
		mock.WithVerbose(mockVerboseFlag),
	)
	if err := server.LoadRoutes(f.Mock); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Mock server listening on :%d with %d route(s). Press Ctrl+C to stop.\n",
		mockPortFlag, server.RouteCount())

	return server.Start(ctx)
}
