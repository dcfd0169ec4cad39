package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hometax_automation/application/triage"
	"hometax_automation/application/workflow"
	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/browser"
	"hometax_automation/infrastructure/security"
	"hometax_automation/infrastructure/storage"
	"hometax_automation/presentation/terminal"
)

// runOptions are the flags of the workflow run
type runOptions struct {
	baseDir       string
	period        string
	allowOverride bool
	noPause       bool
	payment       bool
	// paymentSet is true when --payment was given; otherwise the operator is asked
	paymentSet bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.baseDir, "base", "", "output base directory (asked when empty)")
	cmd.Flags().StringVar(&o.period, "period", "", "period (2024-05, 202405) or identifier (asked when empty)")
	cmd.Flags().BoolVar(&o.allowOverride, "allow-override", false, "offer to continue with a resident number that fails validation")
	cmd.Flags().BoolVar(&o.noPause, "no-pause", false, "close the browser without waiting for Enter")
	cmd.Flags().BoolVar(&o.payment, "payment", false, "also export the payment slip (asked when not given)")
}

// fromFlags - records which flags were given explicitly
func (o *runOptions) fromFlags(cmd *cobra.Command) *runOptions {
	o.paymentSet = cmd.Flags().Changed("payment")
	return o
}

// NewRunCommand - runs the income-tax workflow (also the default command)
func NewRunCommand(opts *globalOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "종합소득세 신고서/납부서 수집",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), opts, run.fromFlags(cmd))
		},
	}
	run.bind(cmd)
	return cmd
}

func runWorkflow(ctx context.Context, opts *globalOptions, run *runOptions) error {
	env, err := newEnvironment(opts, nil)
	if err != nil {
		return err
	}
	cfg, logger, console := env.cfg, env.logger, env.console

	layout, err := entities.ParseLayout(cfg.Layout)
	if err != nil {
		return err
	}

	term := terminal.NewTerminalInterface(os.Stdin, console, logger)
	term.Banner()

	baseDir := run.baseDir
	if baseDir == "" {
		if baseDir, err = term.AskBaseDir(ctx, cfg.DownloadPath); err != nil {
			return err
		}
	}
	rawPeriod := run.period
	if rawPeriod == "" {
		if rawPeriod, err = term.AskPeriod(ctx); err != nil {
			return err
		}
	}
	resident, err := term.AskResidentNumber(ctx, run.allowOverride)
	if err != nil {
		return err
	}
	payment := run.payment
	if !run.paymentSet {
		if payment, err = term.AskYesNo(ctx, "납부서도 다운로드하시겠습니까?"); err != nil {
			return err
		}
	}

	now := time.Now()
	period := entities.ParsePeriod(rawPeriod, now)
	outputDir := filepath.Join(baseDir, period.Label(layout, now))

	logger.WithFields(logrus.Fields{
		"run_id": env.runID,
		"period": period.String(),
		"output": outputDir,
	}).Info("Starting income tax run")
	console.Info("")
	console.Info("저장 위치: %s", outputDir)
	console.Info("브라우저를 시작합니다 (%s)...", cfg.Driver)

	session, err := browser.NewSession(cfg.BrowserOptions(cfg.Triage.SourceDir), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close browser")
		}
	}()

	loop := buildLoop(cfg, session, term, logger)
	runner := workflow.NewRunner(session, loop, term, triage.New(storage.NewRelocator(), logger), console, logger,
		workflow.WithGuard(security.NewActionGuard(logger)),
		workflow.WithPopupWait(cfg.Locator.PopupWaitDuration()),
	)

	report, runErr := runner.Run(ctx, workflow.Params{
		Steps: workflow.IncomeTaxPlan(workflow.PlanParams{
			PortalURL: cfg.PortalURL,
			Resident:  resident,
			Now:       now,
			Payment:   payment,
		}),
		OutputDir: outputDir,
		Triage: triage.Options{
			SourceDir: cfg.Triage.SourceDir,
			Window:    cfg.Triage.Window(),
			SameDay:   cfg.Triage.SameDay,
			Keywords:  cfg.Triage.Keywords,
		},
	})

	if runErr != nil {
		if !errors.Is(runErr, entities.ErrSessionUnusable) {
			return runErr
		}
		console.Fail("브라우저 세션을 더 이상 사용할 수 없습니다: %v", runErr)
		if report.Fault != nil {
			console.Info("   URL: %s", report.Fault.URL)
			console.Info("   제목: %s", report.Fault.Title)
		}
		logger.WithError(runErr).Error("Run stopped by a session fault")
	}

	term.PrintReport(report, outputDir)

	if runErr == nil && !run.noPause && !cfg.Headless && stdinIsTerminal() {
		term.Pause(ctx)
	}
	if runErr != nil {
		return fmt.Errorf("run stopped: %w", runErr)
	}
	return nil
}
