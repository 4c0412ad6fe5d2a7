// persist-probe issues an HTTP GET under a retry policy and reports the
// attempt timeline. Useful for poking at flaky endpoints and for trying
// out policy documents.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/persistio/persist/observe"
	"github.com/persistio/persist/policy"
	"github.com/persistio/persist/policyfile"
	"github.com/persistio/persist/retry"
	"github.com/persistio/persist/retryhttp"
)

type probeFlags struct {
	policyFile string
	key        string
	retries    int
	minTimeout time.Duration
	maxTimeout time.Duration
	maxElapsed time.Duration
	randomize  bool
	timeout    time.Duration
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &probeFlags{}

	cmd := &cobra.Command{
		Use:           "persist-probe URL",
		Short:         "retry an HTTP GET under a policy and print the timeline",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, flags, args[0])
		},
	}

	bindProbeFlags(cmd, flags)

	return cmd
}

func bindProbeFlags(cmd *cobra.Command, flags *probeFlags) {
	cmd.Flags().StringVarP(&flags.policyFile, "policy-file", "f", "", "YAML policy document; flags override its defaults")
	cmd.Flags().StringVarP(&flags.key, "key", "k", "probe.get", "policy key to resolve and label the run with")
	cmd.Flags().IntVar(&flags.retries, "retries", policy.DefaultRetries, "retry budget, -1 for unlimited")
	cmd.Flags().DurationVar(&flags.minTimeout, "min-timeout", policy.DefaultMinTimeout, "first backoff delay")
	cmd.Flags().DurationVar(&flags.maxTimeout, "max-timeout", 0, "backoff delay cap, 0 for unlimited")
	cmd.Flags().DurationVar(&flags.maxElapsed, "max-retry-time", 0, "overall run deadline, 0 for unlimited")
	cmd.Flags().BoolVar(&flags.randomize, "randomize", false, "apply jitter to delays")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "per-request HTTP timeout")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log every attempt")
}

func runProbe(cmd *cobra.Command, flags *probeFlags, url string) error {
	level := zerolog.WarnLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(level).
		With().Timestamp().Logger()

	exec := retry.NewExecutor(retry.WithObserver(observe.NewLogObserver(log)))

	callOpts := []retry.CallOption{
		retry.WithKey(flags.key),
	}
	if flags.policyFile != "" {
		provider, err := policyfile.Load(flags.policyFile)
		if err != nil {
			return err
		}
		pol, err := provider.Options(cmd.Context(), policy.ParseKey(flags.key))
		if err != nil {
			return err
		}
		callOpts = append(callOpts, retry.WithOptions(pol))
	}
	callOpts = append(callOpts, retry.WithPolicy(probePolicy(cmd, flags)...))

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: flags.timeout}

	start := time.Now()
	resp, tl, err := retryhttp.Do(cmd.Context(), exec, client, req, callOpts...)
	elapsed := time.Since(start)

	if err != nil {
		printTimeline(cmd.OutOrStdout(), tl, elapsed)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	printTimeline(cmd.OutOrStdout(), tl, elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resp.Proto, resp.Status)
	return nil
}

// probePolicy emits only the options the user actually set, so a policy
// file's values survive unless overridden on the command line.
func probePolicy(cmd *cobra.Command, flags *probeFlags) []policy.Option {
	var opts []policy.Option
	if cmd.Flags().Changed("retries") {
		opts = append(opts, policy.Retries(flags.retries))
	}
	if cmd.Flags().Changed("min-timeout") {
		opts = append(opts, policy.MinTimeout(flags.minTimeout))
	}
	if cmd.Flags().Changed("max-timeout") {
		opts = append(opts, policy.MaxTimeout(unlimitedIfZero(flags.maxTimeout)))
	}
	if cmd.Flags().Changed("max-retry-time") {
		opts = append(opts, policy.MaxRetryTime(unlimitedIfZero(flags.maxElapsed)))
	}
	if cmd.Flags().Changed("randomize") {
		opts = append(opts, policy.Randomize(flags.randomize))
	}
	return opts
}

// unlimitedIfZero maps the flag convention, where an explicit 0 means
// "no limit", onto the policy sentinel.
func unlimitedIfZero(d time.Duration) time.Duration {
	if d == 0 {
		return policy.Unlimited
	}
	return d
}

func printTimeline(w io.Writer, tl observe.Timeline, elapsed time.Duration) {
	for _, rec := range tl.Attempts {
		status := rec.Outcome.Reason
		if rec.Skipped {
			status += " (skipped)"
		}
		fmt.Fprintf(w, "attempt %d: %s", rec.Attempt, status)
		if rec.Err != nil {
			fmt.Fprintf(w, ": %v", rec.Err)
		}
		if rec.Delay > 0 {
			fmt.Fprintf(w, " (next in %s)", rec.Delay)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d attempt(s) in %s\n", len(tl.Attempts), elapsed.Round(time.Millisecond))
}
