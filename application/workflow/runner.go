package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hometax_automation/application/triage"
	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultPopupWait bounds the wait for a popup window
const DefaultPopupWait = 10 * time.Second

// Locator performs one locate-and-act call
type Locator interface {
	LocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error)
	// TryLocateAndAct returns RequiresOperator on a miss without asking the operator
	TryLocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error)
}

// Guard flags clicks that must stay with the operator
type Guard interface {
	RequiresApproval(req entities.LocateRequest, action entities.Action) (bool, string)
}

// Reporter prints operator-facing progress
type Reporter interface {
	Step(n, total int, format string, v ...interface{})
	Success(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Fail(format string, v ...interface{})
	Info(format string, v ...interface{})
}

// Params are the inputs of one run
type Params struct {
	Steps []entities.Step
	// OutputDir is the period folder exports and triaged files end up in
	OutputDir string
	// Triage is skipped when its SourceDir is empty
	Triage triage.Options
}

// Report summarizes a run
type Report struct {
	Steps     []entities.Step
	Relocated triage.Result
	PDFs      []string
	Fault     *entities.PageInfo
}

// Counts - number of steps per status
func (r Report) Counts() map[entities.StepStatus]int {
	counts := make(map[entities.StepStatus]int)
	for _, s := range r.Steps {
		counts[s.Status]++
	}
	return counts
}

// Runner executes a plan step by step through the locator loop
type Runner struct {
	session   interfaces.BrowserSession
	locator   Locator
	operator  interfaces.Operator
	triage    *triage.Triage
	guard     Guard
	reporter  Reporter
	popupWait time.Duration
	logger    *logrus.Logger
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithGuard - routes risky clicks to the operator
func WithGuard(g Guard) RunnerOption {
	return func(r *Runner) { r.guard = g }
}

// WithPopupWait - overrides DefaultPopupWait
func WithPopupWait(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.popupWait = d
		}
	}
}

// NewRunner - creates a plan runner
func NewRunner(session interfaces.BrowserSession, locator Locator, operator interfaces.Operator, tr *triage.Triage, reporter Reporter, logger *logrus.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:   session,
		locator:   locator,
		operator:  operator,
		triage:    tr,
		reporter:  reporter,
		popupWait: DefaultPopupWait,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run - executes every step, then triages downloads and lists the exported PDFs.
// Step failures fall back to the operator; only session faults and interruptions end the run early.
func (r *Runner) Run(ctx context.Context, params Params) (Report, error) {
	report := Report{Steps: params.Steps}
	for i := range report.Steps {
		report.Steps[i].Status = entities.StepStatusPending
	}

	if err := os.MkdirAll(params.OutputDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create output folder: %w", err)
	}

	state := &runState{completed: make(map[string]bool)}
	total := len(report.Steps)
	for i := range report.Steps {
		step := &report.Steps[i]

		select {
		case <-ctx.Done():
			return report, fmt.Errorf("run canceled: %w", ctx.Err())
		default:
		}

		r.reporter.Step(i+1, total, "%s", step.Name)
		if step.SkipAfter != "" && state.completed[step.SkipAfter] {
			step.Status = entities.StepStatusSkipped
			r.reporter.Info("%s 완료로 생략합니다", step.SkipAfter)
			continue
		}
		step.Status = entities.StepStatusInProgress

		err := r.execute(ctx, step, params.OutputDir, state)
		if err != nil {
			if entities.IsFatal(ctx, err) {
				step.Status = entities.StepStatusFailed
				if errors.Is(err, entities.ErrSessionUnusable) {
					report.Fault = r.describeFault(ctx, err)
				}
				return report, err
			}
			r.logger.WithError(err).WithField("step", step.Name).Warn("Step failed")
			if step.Optional {
				step.Status = entities.StepStatusFailed
				r.reporter.Warn("%s: %v", step.Name, err)
				continue
			}
			if err := r.manual(ctx, step, step.Name, []string{
				fmt.Sprintf("자동 처리 실패: %v", err),
				"수동으로 진행합니다",
			}); err != nil {
				step.Status = entities.StepStatusFailed
				return report, err
			}
			continue
		}

		switch step.Status {
		case entities.StepStatusCompleted:
			state.completed[step.Name] = true
			r.reporter.Success("%s", step.Name)
		case entities.StepStatusSkipped:
			r.reporter.Warn("%s: 건너뜀", step.Name)
		}
	}

	if params.Triage.SourceDir != "" && r.triage != nil {
		opts := params.Triage
		opts.DestDir = params.OutputDir
		result, err := r.triage.Run(ctx, opts)
		report.Relocated = result
		if err != nil {
			if entities.IsFatal(ctx, err) {
				return report, err
			}
			r.reporter.Warn("다운로드 파일 정리 실패: %v", err)
		} else {
			r.reporter.Info("정리된 파일: %d개 (이동 %d, 복사 %d, 실패 %d)",
				len(result.Files),
				result.Count(entities.RelocationMoved),
				result.Count(entities.RelocationCopied),
				result.Count(entities.RelocationFailed))
		}
	}

	pdfs, err := ListPDFs(params.OutputDir)
	if err != nil {
		r.reporter.Warn("%v", err)
	}
	report.PDFs = pdfs
	return report, nil
}

// runState is what later steps need to know about earlier ones
type runState struct {
	popupOpen bool
	completed map[string]bool
}

// execute - runs one step and sets its final status
func (r *Runner) execute(ctx context.Context, step *entities.Step, outputDir string, state *runState) error {
	switch step.Kind {
	case entities.StepNavigate:
		if err := r.session.Navigate(ctx, step.URL); err != nil {
			if entities.IsFatal(ctx, err) {
				return err
			}
			return r.manual(ctx, step, fmt.Sprintf("open %s", step.URL), []string{
				fmt.Sprintf("브라우저에서 %s 에 접속합니다 (%v)", step.URL, err),
			})
		}
		step.Status = entities.StepStatusCompleted
		return nil

	case entities.StepLocate:
		if step.Locate == nil {
			return fmt.Errorf("step %q has no target", step.Name)
		}
		req, action := step.Locate()
		if r.guard != nil {
			if risky, keyword := r.guard.RequiresApproval(req, action); risky {
				if step.TryOnly {
					step.Status = entities.StepStatusSkipped
					return nil
				}
				return r.manual(ctx, step, req.Label(), []string{
					fmt.Sprintf("'%s' 동작은 자동으로 실행하지 않습니다", keyword),
					action.Describe(req.Label()),
				})
			}
		}
		locate := r.locator.LocateAndAct
		if step.TryOnly {
			locate = r.locator.TryLocateAndAct
		}
		outcome, err := locate(ctx, req, action)
		if err != nil {
			return err
		}
		switch {
		case outcome.Automated():
			step.Status = entities.StepStatusCompleted
			r.logger.WithFields(logrus.Fields{"step": step.Name, "via": outcome.Via}).Debug("Step automated")
		case step.TryOnly:
			step.Status = entities.StepStatusSkipped
		default:
			step.Status = entities.StepStatusManual
		}
		return nil

	case entities.StepManual:
		return r.manual(ctx, step, step.Name, step.Instructions)

	case entities.StepPopup:
		found, err := r.session.SwitchToPopup(ctx, r.popupWait)
		if err != nil {
			return err
		}
		state.popupOpen = found
		if !found {
			step.Status = entities.StepStatusSkipped
			return nil
		}
		step.Status = entities.StepStatusCompleted
		return nil

	case entities.StepClosePopup:
		if !state.popupOpen {
			step.Status = entities.StepStatusSkipped
			return nil
		}
		state.popupOpen = false
		if err := r.session.ClosePopup(ctx); err != nil {
			return err
		}
		step.Status = entities.StepStatusCompleted
		return nil

	case entities.StepExportPDF:
		path := filepath.Join(outputDir, step.FileName)
		instructions := append(append([]string{}, step.Instructions...), "저장 위치: "+outputDir)

		exporter, ok := r.session.(interfaces.PDFExporter)
		if !ok || !state.popupOpen {
			return r.manual(ctx, step, step.FileName, instructions)
		}
		if err := exporter.ExportPDF(ctx, path); err != nil {
			if entities.IsFatal(ctx, err) {
				return err
			}
			r.logger.WithError(err).Warn("PDF export failed, asking operator")
			return r.manual(ctx, step, step.FileName, instructions)
		}
		step.Status = entities.StepStatusCompleted
		return nil
	}

	return fmt.Errorf("unknown step kind %q", step.Kind)
}

// manual - hands the step to the operator and marks it manual
func (r *Runner) manual(ctx context.Context, step *entities.Step, description string, instructions []string) error {
	if err := r.operator.Confirm(ctx, entities.OperatorPrompt{
		Description:  description,
		Action:       entities.Click(),
		Instructions: instructions,
	}); err != nil {
		return err
	}
	step.Status = entities.StepStatusManual
	return nil
}

// describeFault - reports where the session was when it failed; the page may be gone too
func (r *Runner) describeFault(ctx context.Context, err error) *entities.PageInfo {
	info, infoErr := r.session.PageInfo(context.WithoutCancel(ctx))
	fields := logrus.Fields{"url": info.URL, "title": info.Title}
	if infoErr != nil {
		fields["page_error"] = infoErr.Error()
	}
	r.logger.WithError(err).WithFields(fields).Error("Browser session became unusable")
	r.reporter.Fail("브라우저 세션 오류: %v", err)
	if info.URL != "" || info.Title != "" {
		r.reporter.Info("  페이지: %s (%s)", info.Title, info.URL)
	}
	return &info
}

// ListPDFs - names of the PDF files in dir, sorted
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
