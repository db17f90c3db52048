package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubmontagne/membercards/internal/config"
	"github.com/clubmontagne/membercards/internal/eligibility"
	"github.com/clubmontagne/membercards/internal/expiry"
	"github.com/clubmontagne/membercards/internal/ledger"
	"github.com/clubmontagne/membercards/internal/logger"
	"github.com/clubmontagne/membercards/internal/mailer"
	"github.com/clubmontagne/membercards/internal/member"
	"github.com/clubmontagne/membercards/internal/page"
	"github.com/clubmontagne/membercards/internal/pipeline"
	"github.com/clubmontagne/membercards/internal/qr"
	"github.com/clubmontagne/membercards/internal/roster"
)

const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitEmailFailures = 2
)

// ErrEmailFailures is returned when the run finished but some cards were not sent
var ErrEmailFailures = errors.New("some cards could not be emailed")

// processOptions holds the process command flags
type processOptions struct {
	outputDir      string
	baseURL        string
	expires        string
	validFor       time.Duration
	dataDir        string
	resend         bool
	noEmail        bool
	dryRun         bool
	attachCalendar bool
	httpTimeout    time.Duration
	smtpTimeout    time.Duration
	format         string
	logFormat      string
	verbose        bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membercards",
		Short: "Verify club members and email their membership cards",
		Long: `A CLI tool to issue Club Montagne membership cards.
Reads the member roster, verifies each member, publishes a card page with a
QR code and emails the card to the member.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newProcessCmd())

	return cmd
}

func newProcessCmd() *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process <roster.csv>",
		Short: "Process a roster and issue membership cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0], opts)
		},
	}

	// Define flags
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", page.DefaultOutputDir, "Directory for member pages and QR images")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", member.DefaultBaseURL, "Public URL prefix of member pages")
	cmd.Flags().StringVar(&opts.expires, "expires", "", "Card expiration date (YYYY.MM.DD or YYYY-MM-DD)")
	cmd.Flags().DurationVar(&opts.validFor, "valid-for", 0, "Card validity counted from verification (e.g. 8760h)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "~/.local/share/membercards", "Data directory for the delivery ledger")
	cmd.Flags().BoolVar(&opts.resend, "resend", false, "Email cards even if already delivered")
	cmd.Flags().BoolVar(&opts.noEmail, "no-email", false, "Write pages and QR codes without sending email")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the emails instead of sending them")
	cmd.Flags().BoolVar(&opts.attachCalendar, "attach-calendar", false, "Attach an expiration reminder (.ics) to each email")
	cmd.Flags().DurationVar(&opts.httpTimeout, "http-timeout", eligibility.Timeout, "Timeout for profile page requests")
	cmd.Flags().DurationVar(&opts.smtpTimeout, "smtp-timeout", mailer.DefaultTimeout, "Timeout for SMTP delivery")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.MarkFlagsMutuallyExclusive("expires", "valid-for")
	cmd.MarkFlagsMutuallyExclusive("no-email", "dry-run")

	return cmd
}

// runProcess is the main command logic
func runProcess(cmd *cobra.Command, rosterPath string, opts *processOptions) error {
	// Validate format
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	policy, err := expiry.Parse(opts.expires, opts.validFor)
	if err != nil {
		return err
	}

	sendForReal := !opts.noEmail && !opts.dryRun
	cfg, err := config.Load(sendForReal)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts); err != nil {
		return err
	}

	members, err := roster.Load(rosterPath)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	logger.Debug("Roster loaded", logger.Fields{
		"path":       rosterPath,
		"members":    len(members),
		"output_dir": opts.outputDir,
	})

	deps := pipeline.Deps{
		Verifier: eligibility.New(opts.httpTimeout),
		Pages:    page.NewWriter(opts.outputDir),
		QR:       qr.NewGenerator(opts.outputDir),
	}

	// Only assign the interfaces when there is something behind them
	switch {
	case opts.noEmail:
		logger.Info("Email disabled", nil)
	case opts.dryRun:
		// Keep JSON output parseable
		preview := cmd.OutOrStdout()
		if format == FormatJSON {
			preview = cmd.ErrOrStderr()
		}
		deps.Notifier = mailer.NewDryRunNotifier(preview, cfg.Sender())
	default:
		smtp := cfg.SMTP()
		smtp.Timeout = opts.smtpTimeout
		notifier, err := mailer.NewSMTPNotifier(smtp, cfg.Sender())
		if err != nil {
			return fmt.Errorf("initializing mailer: %w", err)
		}
		deps.Notifier = notifier
	}

	if deps.Notifier != nil {
		l, err := ledger.Open(opts.dataDir, cfg.LedgerKey)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		logger.Debug("Ledger opened", logger.Fields{"path": l.Path(), "entries": l.Len()})
		deps.Ledger = l
	}

	processor := pipeline.New(deps, pipeline.Options{
		BaseURL:        opts.baseURL,
		Policy:         policy,
		Resend:         opts.resend,
		DryRun:         opts.dryRun,
		AttachCalendar: opts.attachCalendar,
	})

	report, runErr := processor.ProcessAll(cmd.Context(), members)

	// The partial report is still worth printing when the run aborts
	if err := WriteOutput(cmd.OutOrStdout(), report, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if report.HasEmailFailures() {
		return ErrEmailFailures
	}
	return nil
}

func setupLogger(w io.Writer, envLevel string, opts *processOptions) error {
	level := logger.ParseLevel(envLevel)
	if opts.verbose {
		level = logger.LevelDebug
	}

	switch strings.ToLower(opts.logFormat) {
	case "text":
		logger.SetDefault(logger.New(level, w))
	case "json":
		logger.SetDefault(logger.NewJSON(level, w))
	default:
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", opts.logFormat)
	}
	return nil
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrEmailFailures):
		return ExitEmailFailures
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
