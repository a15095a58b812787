package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shabbat_deactivate/internal/app"
	"shabbat_deactivate/internal/domain/subscription"
	"shabbat_deactivate/internal/infra/auditlog"
	"shabbat_deactivate/internal/infra/config"
	idb "shabbat_deactivate/internal/infra/database"
	"shabbat_deactivate/internal/infra/logger"
	"shabbat_deactivate/internal/infra/scheduler"
	"shabbat_deactivate/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const prog = "shabbat_deactivate"

type options struct {
	dryRun    bool
	quiet     bool
	count     int
	reasons   string
	iniPath   string
	sleepTime string
	logDir    string
	schedule  string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout))
}

// execute runs the command and returns the process exit code.
func execute(args []string, out io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)

	err := cmd.ExecuteContext(ctx)
	if help, _ := cmd.Flags().GetBool("help"); help {
		return 1
	}
	if err != nil {
		logger.Log.WithError(err).Error("Deactivation job failed")
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   prog + " [options]",
		Short: "Deactivate email subscriptions with too many bounces",
		Long: `Marks active Shabbat email subscriptions as bounced when they have more than
--count non-deactivated bounces for one of --reasons, or any amzn_abuse bounce,
and appends one line per address to subscribers.log.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&o.dryRun, "dryrun", false, "Prints the actions that "+prog+" would take but does not remove anything")
	flags.BoolVar(&o.quiet, "quiet", false, "Quiet mode (do not print per-address bounce counts)")
	flags.IntVar(&o.count, "count", subscription.DefaultThreshold, "Threshold is `n` for bounces")
	flags.StringVar(&o.reasons, "reasons", subscription.DefaultReasons, "Use any of comma-separated list of `reasons` for bounces")
	flags.StringVar(&o.iniPath, "ini", config.DefaultIniPath, "Path to the ini file holding database credentials")
	flags.StringVar(&o.sleepTime, "sleeptime", "", "Accepted for compatibility and ignored")
	flags.StringVar(&o.logDir, "logdir", config.DefaultLogDir, "Preferred directory for subscribers.log (falls back to the working directory)")
	flags.StringVar(&o.schedule, "schedule", "", "Run repeatedly on this cron spec until interrupted (default $CRON_SPEC)")

	return cmd
}

func run(ctx context.Context, o *options) error {
	policy, err := subscription.NewPolicy(o.reasons, o.count)
	if err != nil {
		return err
	}

	cfg, err := config.Load(o.iniPath)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	logger.Init(cfg)
	log := logger.Get()

	driver, dsn := cfg.Database.DriverAndDSN()
	db, err := idb.NewConnection(ctx, driver, dsn)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()
	log.Debugf("Database connection established (%s)", driver)

	repo := idb.NewSQLSubscriptionRepository(db, idb.DialectFor(driver), log)
	sink := auditlog.NewFileSink(auditlog.ResolveDir(o.logDir))
	svc := app.NewDeactivationService(repo, sink, newReporter(cfg, log), log)

	runOpts := app.RunOptions{Policy: policy, DryRun: o.dryRun, Quiet: o.quiet}

	spec := o.schedule
	if spec == "" {
		spec = cfg.CronSpec
	}
	if spec != "" {
		return runScheduled(ctx, svc, runOpts, log, spec)
	}

	if _, err := svc.Run(ctx, runOpts); err != nil {
		return err
	}
	log.Info("Success!")
	return nil
}

// newReporter returns nil unless Telegram reporting is configured and usable.
func newReporter(cfg *config.AppConfig, log logrus.FieldLogger) app.Reporter {
	if !cfg.ReportingEnabled() {
		return nil
	}
	bot, err := telegram.NewBot(cfg.TelegramToken)
	if err != nil {
		log.WithError(err).Warn("Telegram reporting disabled")
		return nil
	}
	return telegram.NewSummaryReporter(telegram.NewTelebotAdapter(bot), cfg.ReportTelegramID)
}

func runScheduled(ctx context.Context, svc *app.DeactivationService, opts app.RunOptions, log logrus.FieldLogger, spec string) error {
	sched := scheduler.NewJobScheduler(svc, opts, log, spec)
	if err := sched.Start(); err != nil {
		return err
	}
	<-ctx.Done() // SIGINT or SIGTERM
	log.Info("Shutting down...")
	sched.Stop()
	return nil
}
