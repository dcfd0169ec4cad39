package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hometax_automation/application/triage"
	"hometax_automation/application/workflow"
	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/storage"
	"hometax_automation/presentation/terminal"
)

type triageOptions struct {
	sourceDir string
	baseDir   string
	period    string
	window    time.Duration
	sameDay   bool
	dryRun    bool
}

// NewTriageCommand - files recent downloads into the period folder without opening a browser
func NewTriageCommand(opts *globalOptions) *cobra.Command {
	t := &triageOptions{}
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "최근 다운로드 파일을 기간 폴더로 정리",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd.Context(), opts, t, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&t.sourceDir, "source", "", "directory to scan (default triage.source_dir)")
	cmd.Flags().StringVar(&t.baseDir, "base", "", "output base directory (default download_path)")
	cmd.Flags().StringVar(&t.period, "period", "", "period or identifier (default today)")
	cmd.Flags().DurationVar(&t.window, "window", 0, "how recent a file must be (default triage.window_minutes)")
	cmd.Flags().BoolVar(&t.sameDay, "same-day", false, "pick up every file modified today")
	cmd.Flags().BoolVar(&t.dryRun, "dry-run", false, "only list the files that would be moved")
	return cmd
}

func runTriage(ctx context.Context, opts *globalOptions, t *triageOptions, out io.Writer) error {
	env, err := newEnvironment(opts, out)
	if err != nil {
		return err
	}
	cfg, console := env.cfg, env.console

	layout, err := entities.ParseLayout(cfg.Layout)
	if err != nil {
		return err
	}

	triageOpts := triage.Options{
		SourceDir: firstNonEmpty(t.sourceDir, cfg.Triage.SourceDir),
		Window:    cfg.Triage.Window(),
		SameDay:   t.sameDay || cfg.Triage.SameDay,
		Keywords:  cfg.Triage.Keywords,
	}
	if t.window > 0 {
		triageOpts.Window = t.window
	}

	now := time.Now()
	period := entities.ParsePeriod(t.period, now)
	triageOpts.DestDir = filepath.Join(firstNonEmpty(t.baseDir, cfg.DownloadPath), period.Label(layout, now))

	tr := triage.New(storage.NewRelocator(), env.logger)
	console.Title("다운로드 파일 정리")
	console.Info("검색 위치: %s", triageOpts.SourceDir)

	if t.dryRun {
		names, err := tr.Candidates(triageOpts)
		if err != nil {
			return err
		}
		for _, name := range names {
			console.Info("   %s", name)
		}
		console.Info("대상 파일: %d개 -> %s", len(names), triageOpts.DestDir)
		return nil
	}

	if err := os.MkdirAll(triageOpts.DestDir, 0755); err != nil {
		return err
	}
	result, err := tr.Run(ctx, triageOpts)
	if err != nil {
		return err
	}

	pdfs, err := workflow.ListPDFs(triageOpts.DestDir)
	if err != nil {
		console.Warn("%v", err)
	}
	terminal.NewTerminalInterface(os.Stdin, console, env.logger).
		PrintReport(workflow.Report{Relocated: result, PDFs: pdfs}, triageOpts.DestDir)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
