package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hometax_automation/application/triage"
	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeSession struct {
	navigateErr error
	popup       bool
	exportErr   error
	navigated   []string
	exported    []string
	closed      int
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navigateErr
}
func (s *fakeSession) TryQuery(ctx context.Context, q entities.StructuralQuery, a entities.Action) (bool, error) {
	return false, nil
}
func (s *fakeSession) TryLinkText(ctx context.Context, text string, a entities.Action) (bool, error) {
	return false, nil
}
func (s *fakeSession) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (s *fakeSession) Viewport(ctx context.Context) (entities.Size, error) {
	return entities.Size{}, nil
}
func (s *fakeSession) ClickAt(ctx context.Context, p entities.Point) error { return nil }
func (s *fakeSession) TypeAt(ctx context.Context, p entities.Point, text string) error {
	return nil
}
func (s *fakeSession) PageInfo(ctx context.Context) (entities.PageInfo, error) {
	return entities.PageInfo{URL: "https://www.hometax.go.kr/websquare", Title: "홈택스"}, nil
}
func (s *fakeSession) SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error) {
	return s.popup, nil
}
func (s *fakeSession) ClosePopup(ctx context.Context) error {
	s.closed++
	return nil
}
func (s *fakeSession) Close() error { return nil }

// pdfSession also prints pages to PDF
type pdfSession struct {
	fakeSession
}

func (s *pdfSession) ExportPDF(ctx context.Context, path string) error {
	if s.exportErr != nil {
		return s.exportErr
	}
	s.exported = append(s.exported, filepath.Base(path))
	return os.WriteFile(path, []byte("%PDF-1.4\n"), 0644)
}

type fakeLocator struct {
	manual  bool
	tryMiss bool
	failOn  string
	err     error
	targets []string
	tried   []string
}

func (l *fakeLocator) TryLocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error) {
	l.tried = append(l.tried, req.Label())
	if l.failOn != "" && req.Label() == l.failOn {
		return entities.Outcome{}, l.err
	}
	if l.tryMiss {
		return entities.NewRequiresOperator(), nil
	}
	return entities.NewSucceeded(entities.Target{Kind: entities.FinderLinkText, Query: req.LinkText}), nil
}

func (l *fakeLocator) LocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error) {
	l.targets = append(l.targets, req.Label())
	if l.failOn != "" && req.Label() == l.failOn {
		return entities.Outcome{}, l.err
	}
	if l.manual {
		return entities.NewRequiresOperator(), nil
	}
	return entities.NewSucceeded(entities.Target{Kind: entities.FinderStructural, Query: string(req.Structural)}), nil
}

type fakeOperator struct {
	err     error
	prompts []entities.OperatorPrompt
}

func (o *fakeOperator) Confirm(ctx context.Context, p entities.OperatorPrompt) error {
	o.prompts = append(o.prompts, p)
	return o.err
}

type nopReporter struct{}

func (nopReporter) Step(n, total int, format string, v ...interface{}) {}
func (nopReporter) Success(format string, v ...interface{})            {}
func (nopReporter) Warn(format string, v ...interface{})               {}
func (nopReporter) Fail(format string, v ...interface{})               {}
func (nopReporter) Info(format string, v ...interface{})               {}

type keywordGuard string

func (g keywordGuard) RequiresApproval(req entities.LocateRequest, action entities.Action) (bool, string) {
	if req.LinkText == string(g) {
		return true, string(g)
	}
	return false, ""
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.Local)

func testPlan(t *testing.T) []entities.Step {
	resident, err := entities.ParseResidentNumber("900101-1234567")
	require.NoError(t, err)
	return IncomeTaxPlan(PlanParams{PortalURL: "https://www.hometax.go.kr/", Resident: resident, Now: testNow, Payment: true})
}

func newRunner(session *fakeSession, locator *fakeLocator, operator *fakeOperator, opts ...RunnerOption) *Runner {
	logger := quietLogger()
	return NewRunner(session, locator, operator, triage.New(storage.NewRelocator(), logger), nopReporter{}, logger, opts...)
}

func stepByName(t *testing.T, steps []entities.Step, name string) entities.Step {
	for _, s := range steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("step %q not found", name)
	return entities.Step{}
}

func TestIncomeTaxPlan(t *testing.T) {
	steps := testPlan(t)

	require.Len(t, steps, 22)
	assert.Equal(t, entities.StepNavigate, steps[0].Kind)
	assert.Equal(t, "https://www.hometax.go.kr/", steps[0].URL)

	for _, s := range steps {
		if s.Kind != entities.StepLocate {
			continue
		}
		req, _ := s.Locate()
		assert.NoError(t, req.Validate(), s.Name)
	}

	req, action := stepByName(t, steps, "주민등록번호 앞자리").Locate()
	assert.Equal(t, entities.StructuralQuery("input[name='txppTin1'], #txppTin1"), req.Structural)
	assert.Equal(t, "900101", action.Text)
	assert.True(t, action.Sensitive)

	_, action = stepByName(t, steps, "주민등록번호 뒷자리").Locate()
	assert.Equal(t, "1234567", action.Text)

	_, action = stepByName(t, steps, "조회 시작일").Locate()
	assert.Equal(t, "20260213", action.Text)
	_, action = stepByName(t, steps, "조회 종료일").Locate()
	assert.Equal(t, "20260315", action.Text)

	req, _ = stepByName(t, steps, "조회 버튼").Locate()
	assert.True(t, req.Structural.IsXPath())
	assert.Equal(t, "조회.png", req.Image.Name)
}

func TestIncomeTaxPlan_PeriodButtonWithTypedFallback(t *testing.T) {
	steps := testPlan(t)

	button := stepByName(t, steps, PeriodButtonStep)
	assert.True(t, button.TryOnly)
	req, action := button.Locate()
	assert.True(t, req.Structural.IsXPath())
	assert.Contains(t, string(req.Structural), "@value='1개월'")
	assert.Equal(t, "1개월", req.LinkText)
	assert.Equal(t, "1개월", req.OCRText)
	assert.Equal(t, entities.ActionClick, action.Type)

	assert.Equal(t, PeriodButtonStep, stepByName(t, steps, "조회 시작일").SkipAfter)
	assert.Equal(t, PeriodButtonStep, stepByName(t, steps, "조회 종료일").SkipAfter)
}

func TestIncomeTaxPlan_PaymentIsOptIn(t *testing.T) {
	resident, err := entities.ParseResidentNumber("900101-1234567")
	require.NoError(t, err)
	steps := IncomeTaxPlan(PlanParams{PortalURL: "https://www.hometax.go.kr/", Resident: resident, Now: testNow})

	require.Len(t, steps, 18)
	for _, s := range steps {
		assert.NotContains(t, s.Name, "납부서", "payment steps only run when asked")
	}
}

func TestRun_Automated(t *testing.T) {
	out := filepath.Join(t.TempDir(), "20260315")
	downloads := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(downloads, "hometax_신고내역.xlsx"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(downloads, "holiday.jpg"), []byte("x"), 0644))

	session := &pdfSession{fakeSession{popup: true}}
	locator := &fakeLocator{}
	operator := &fakeOperator{}
	runner := NewRunner(session, locator, operator, triage.New(storage.NewRelocator(), quietLogger()), nopReporter{}, quietLogger())

	report, err := runner.Run(context.Background(), Params{
		Steps:     testPlan(t),
		OutputDir: out,
		Triage:    triage.Options{SourceDir: downloads, Window: time.Hour},
	})

	require.NoError(t, err)
	counts := report.Counts()
	assert.Equal(t, 18, counts[entities.StepStatusCompleted])
	assert.Equal(t, 2, counts[entities.StepStatusManual])
	assert.Equal(t, 2, counts[entities.StepStatusSkipped], "typed dates skipped after the 1개월 button")
	assert.Equal(t, []string{"'1개월' period button"}, locator.tried)
	assert.NotContains(t, locator.targets, "조회 시작일 (srtDt)")
	assert.Len(t, operator.prompts, 2)
	assert.Equal(t, []string{ReturnPDFName, PaymentPDFName}, session.exported)
	assert.Equal(t, 2, session.closed)
	assert.Equal(t, []string{PaymentPDFName, ReturnPDFName}, report.PDFs)

	require.Len(t, report.Relocated.Files, 1)
	assert.Equal(t, entities.RelocationMoved, report.Relocated.Files[0].Method)
	assert.FileExists(t, filepath.Join(out, "hometax_신고내역.xlsx"))
	assert.FileExists(t, filepath.Join(downloads, "holiday.jpg"))
	assert.Nil(t, report.Fault)
}

func TestRun_PeriodButtonMissTypesDates(t *testing.T) {
	locator := &fakeLocator{tryMiss: true}
	operator := &fakeOperator{}
	runner := newRunner(&fakeSession{}, locator, operator)

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusSkipped, stepByName(t, report.Steps, PeriodButtonStep).Status)
	assert.Equal(t, entities.StepStatusCompleted, stepByName(t, report.Steps, "조회 시작일").Status)
	assert.Equal(t, entities.StepStatusCompleted, stepByName(t, report.Steps, "조회 종료일").Status)
	assert.Contains(t, locator.targets, "조회 시작일 (srtDt)")
	assert.Contains(t, locator.targets, "조회 종료일 (endDt)")
	for _, p := range operator.prompts {
		assert.NotContains(t, p.Description, "1개월", "a missed shortcut never reaches the operator")
	}
}

func TestRun_RequiresOperatorMarksManual(t *testing.T) {
	operator := &fakeOperator{}
	runner := newRunner(&fakeSession{}, &fakeLocator{manual: true}, operator)

	report, err := runner.Run(context.Background(), Params{
		Steps:     []entities.Step{click("조회 버튼", entities.LocateRequest{OCRText: "조회"})},
		OutputDir: t.TempDir(),
	})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusManual, report.Steps[0].Status)
	assert.Empty(t, operator.prompts, "the loop itself prompts the operator")
}

func TestRun_SessionFaultStopsRun(t *testing.T) {
	fault := fmt.Errorf("%w: browser has been closed", entities.ErrSessionUnusable)
	locator := &fakeLocator{failOn: "'종합소득세' menu", err: fault}
	runner := newRunner(&fakeSession{}, locator, &fakeOperator{})

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.ErrorIs(t, err, entities.ErrSessionUnusable)
	require.NotNil(t, report.Fault)
	assert.Equal(t, "홈택스", report.Fault.Title)
	assert.Equal(t, entities.StepStatusFailed, stepByName(t, report.Steps, "종합소득세 메뉴").Status)
	assert.Equal(t, entities.StepStatusPending, stepByName(t, report.Steps, "신고내역 조회 메뉴").Status)
}

func TestRun_OperatorInterrupt(t *testing.T) {
	operator := &fakeOperator{err: entities.ErrOperatorInterrupt}
	runner := newRunner(&fakeSession{}, &fakeLocator{}, operator)

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.ErrorIs(t, err, entities.ErrOperatorInterrupt)
	assert.Nil(t, report.Fault)
	assert.Len(t, operator.prompts, 1)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := newRunner(&fakeSession{}, &fakeLocator{}, &fakeOperator{})

	_, err := runner.Run(ctx, Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingPopupFallsBackToOperator(t *testing.T) {
	session := &pdfSession{fakeSession{popup: false}}
	operator := &fakeOperator{}
	runner := NewRunner(session, &fakeLocator{}, operator, nil, nopReporter{}, quietLogger())

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusSkipped, stepByName(t, report.Steps, "신고서 팝업").Status)
	assert.Equal(t, entities.StepStatusManual, stepByName(t, report.Steps, "신고서 PDF 저장").Status)
	assert.Equal(t, entities.StepStatusSkipped, stepByName(t, report.Steps, "신고서 팝업 닫기").Status)
	assert.Empty(t, session.exported)
	assert.Zero(t, session.closed)
	assert.Len(t, operator.prompts, 4)
}

func TestRun_SessionWithoutPDFExport(t *testing.T) {
	operator := &fakeOperator{}
	runner := newRunner(&fakeSession{popup: true}, &fakeLocator{}, operator)

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusManual, stepByName(t, report.Steps, "납부서 PDF 저장").Status)
	last := operator.prompts[len(operator.prompts)-1]
	assert.Contains(t, last.Instructions[len(last.Instructions)-1], "저장 위치")
}

func TestRun_ExportFailureAsksOperator(t *testing.T) {
	session := &pdfSession{fakeSession{popup: true, exportErr: errors.New("PDF generation is only supported for headless chromium")}}
	operator := &fakeOperator{}
	runner := NewRunner(session, &fakeLocator{}, operator, nil, nopReporter{}, quietLogger())

	report, err := runner.Run(context.Background(), Params{Steps: testPlan(t), OutputDir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusManual, stepByName(t, report.Steps, "신고서 PDF 저장").Status)
	assert.Equal(t, 2, session.closed)
}

func TestRun_GuardKeepsRiskyClickWithOperator(t *testing.T) {
	locator := &fakeLocator{}
	operator := &fakeOperator{}
	runner := newRunner(&fakeSession{}, locator, operator, WithGuard(keywordGuard("신고하기")))

	report, err := runner.Run(context.Background(), Params{
		Steps: []entities.Step{
			click("제출", entities.LocateRequest{LinkText: "신고하기"}),
			click("조회", entities.LocateRequest{LinkText: "조회"}),
		},
		OutputDir: t.TempDir(),
	})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusManual, report.Steps[0].Status)
	assert.Equal(t, entities.StepStatusCompleted, report.Steps[1].Status)
	assert.Equal(t, []string{"'조회'"}, locator.targets)
	assert.Len(t, operator.prompts, 1)
}

func TestRun_NavigationErrorFallsBackToOperator(t *testing.T) {
	session := &fakeSession{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	operator := &fakeOperator{}
	runner := newRunner(session, &fakeLocator{}, operator)

	report, err := runner.Run(context.Background(), Params{
		Steps:     []entities.Step{{Name: "홈택스 접속", Kind: entities.StepNavigate, URL: "https://www.hometax.go.kr/"}},
		OutputDir: t.TempDir(),
	})

	require.NoError(t, err)
	assert.Equal(t, entities.StepStatusManual, report.Steps[0].Status)
	require.Len(t, operator.prompts, 1)
	assert.Contains(t, operator.prompts[0].Instructions[0], "ERR_NAME_NOT_RESOLVED")
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PDF", "a.pdf", "note.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.pdf"), 0755))

	names, err := ListPDFs(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.PDF"}, names)
}
