package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcall-dev/jcall/packages/batch"
	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/callfile"
	"github.com/jcall-dev/jcall/packages/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch <call-name>",
	Short: "Repeat one call and report latency and outcome stats",
	Long: `Repeat a named call from the callfile under a configurable load
shape and summarize outcomes and latency percentiles.

Examples:
  jcall batch list-users --count 100
  jcall batch list-users --duration 30s --rate 50
  jcall batch create-user --count 500 --concurrency 20`,
	Args: cobra.ExactArgs(1),
	RunE: batchCommand,
}

var (
	batchFileFlag        string
	batchCountFlag       int
	batchDurationFlag    string
	batchRateFlag        float64
	batchConcurrencyFlag int
	batchOutputFlag      string
	batchNoColorFlag     bool
	batchVerboseFlag     bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchFileFlag, "file", "f", getEnvString("JCALL_FILE", ""), "Callfile path (env: JCALL_FILE)")
	batchCmd.Flags().IntVar(&batchCountFlag, "count", 0, "Number of iterations (0 uses the callfile value or the default)")
	batchCmd.Flags().StringVar(&batchDurationFlag, "duration", "", "Run for a duration instead of a fixed count, e.g. 30s")
	batchCmd.Flags().Float64Var(&batchRateFlag, "rate", 0, "Target iterations per second (0 means unthrottled)")
	batchCmd.Flags().IntVar(&batchConcurrencyFlag, "concurrency", 0, "Max in-flight iterations")
	batchCmd.Flags().StringVarP(&batchOutputFlag, "output", "o", getEnvString("JCALL_OUTPUT", "console"), "Output format: console, json (env: JCALL_OUTPUT)")
	batchCmd.Flags().BoolVar(&batchNoColorFlag, "no-color", getEnvBool("JCALL_NO_COLOR", false), "Disable colored output (env: JCALL_NO_COLOR)")
	batchCmd.Flags().BoolVarP(&batchVerboseFlag, "verbose", "v", false, "Verbose output")
}

func batchCommand(cmd *cobra.Command, args []string) error {
	formatter := newFormatter(batchOutputFlag, batchVerboseFlag, batchNoColorFlag)

	f, err := loadCallfile(batchFileFlag)
	if err != nil {
		return err
	}
	c := f.Find(args[0])
	if c == nil {
		return fmt.Errorf("no call named %q in callfile", args[0])
	}
	spec := c.Spec()

	config, err := batchConfig(c.Batch)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := newTransport()
	runner := batch.NewRunner(config)

	summary := runner.Run(ctx, func(ctx context.Context) (string, time.Duration) {
		start := time.Now()
		res := call.Execute[any, any](ctx, rt, spec)
		return res.Outcome(), time.Since(start)
	})

	method := spec.Method
	if method == "" {
		method = "GET"
	}
	formatter.FormatBatch(&output.BatchReport{
		Name:    c.Name,
		Method:  method,
		URL:     spec.URL,
		Summary: summary,
	})

	if summary.Timeouts > 0 || summary.NetworkErrors > 0 {
		os.Exit(1)
	}
	return nil
}

// batchConfig merges callfile batch settings with the command flags; flags
// win field by field.
func batchConfig(def *callfile.BatchDef) (*batch.Config, error) {
	config := batch.DefaultConfig()

	if def != nil {
		if def.Count > 0 {
			config.Count = def.Count
		}
		if d := def.ParseDuration(); d > 0 {
			config.Count = 0
			config.Duration = d
		}
		if def.Rate > 0 {
			config.Rate = def.Rate
		}
		if def.Concurrency > 0 {
			config.Concurrency = def.Concurrency
		}
	}

	if batchCountFlag > 0 {
		config.Count = batchCountFlag
		config.Duration = 0
	}
	if batchDurationFlag != "" {
		d, err := time.ParseDuration(batchDurationFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", batchDurationFlag, err)
		}
		config.Count = 0
		config.Duration = d
	}
	if batchRateFlag > 0 {
		config.Rate = batchRateFlag
	}
	if batchConcurrencyFlag > 0 {
		config.Concurrency = batchConcurrencyFlag
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
