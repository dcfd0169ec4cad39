package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"hometax_automation/application/workflow"
	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/logging"

	"github.com/sirupsen/logrus"
)

// TerminalInterface talks to the operator: it asks for the run inputs and
// blocks on acknowledgements when automation hands a step over.
type TerminalInterface struct {
	reader  *lineReader
	console *logging.Console
	logger  *logrus.Logger
}

func NewTerminalInterface(in io.Reader, console *logging.Console, logger *logrus.Logger) *TerminalInterface {
	return &TerminalInterface{
		reader:  newLineReader(in),
		console: console,
		logger:  logger,
	}
}

// Banner prints the program header
func (t *TerminalInterface) Banner() {
	t.console.Title("홈택스 종합소득세 자료 수집")
	t.console.Info("브라우저 자동화 + 이미지/문자 인식 + 수동 확인")
	t.console.Info("")
}

// AskBaseDir - output base directory; blank keeps def
func (t *TerminalInterface) AskBaseDir(ctx context.Context, def string) (string, error) {
	t.console.Info("다운로드 기본 경로 (예: C:/내부페이지/홈택스_종합소득세)")
	t.console.Prompt("  경로 입력 (Enter = %s): ", def)
	line, err := t.reader.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskPeriod - year/month or identifier; blank means today
func (t *TerminalInterface) AskPeriod(ctx context.Context) (string, error) {
	t.console.Info("기간 또는 식별자 (예: 2024-05, 202405, 고객명)")
	t.console.Prompt("  입력 (Enter = 오늘): ")
	return t.reader.readLine(ctx)
}

// AskResidentNumber - re-prompts until the number is valid, or until the
// operator accepts an invalid one when allowOverride is set
func (t *TerminalInterface) AskResidentNumber(ctx context.Context, allowOverride bool) (entities.ResidentNumber, error) {
	t.console.Info("주민등록번호 (형식: 123456-1234567)")
	for {
		t.console.Prompt("  입력: ")
		line, err := t.reader.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line == "" {
			t.console.Fail("주민등록번호는 필수입니다")
			continue
		}

		number, invalid := entities.ParseResidentNumber(line)
		if invalid == nil {
			t.console.Success("주민등록번호: %s", number.Masked())
			return number, nil
		}
		t.console.Fail("%v", invalid)

		if !allowOverride {
			continue
		}
		ok, err := t.AskYesNo(ctx, "그래도 진행하시겠습니까?")
		if err != nil {
			return "", err
		}
		if ok {
			t.logger.WithError(invalid).Warn("Proceeding with an unvalidated resident number")
			return number, nil
		}
	}
}

// AskYesNo - y/yes/예 answer true; anything else false
func (t *TerminalInterface) AskYesNo(ctx context.Context, question string) (bool, error) {
	t.console.Prompt("  %s (y/N): ", question)
	line, err := t.reader.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes", "예", "ㅛ":
		return true, nil
	}
	return false, nil
}

// Confirm - shows what the operator has to do and waits for Enter
func (t *TerminalInterface) Confirm(ctx context.Context, prompt entities.OperatorPrompt) error {
	t.console.Info("")
	t.console.Warn("수동 작업이 필요합니다: %s", prompt.Description)
	if len(prompt.Instructions) > 0 {
		for i, line := range prompt.Instructions {
			t.console.Info("   %d. %s", i+1, line)
		}
	} else {
		t.console.Info("   %s", prompt.Summary())
	}
	if len(prompt.Attempted) > 0 {
		kinds := make([]string, len(prompt.Attempted))
		for i, k := range prompt.Attempted {
			kinds[i] = string(k)
		}
		t.console.Info("   (자동 시도: %s)", strings.Join(kinds, ", "))
	}
	t.console.Prompt("완료 후 Enter 키를 눌러주세요...")

	_, err := t.reader.readLine(ctx)
	return err
}

// PrintReport - summary of a finished or stopped run
func (t *TerminalInterface) PrintReport(report workflow.Report, outputDir string) {
	counts := report.Counts()
	t.console.Info("")
	t.console.Title("작업 결과")
	t.console.Info("자동 %d / 수동 %d / 건너뜀 %d / 실패 %d",
		counts[entities.StepStatusCompleted],
		counts[entities.StepStatusManual],
		counts[entities.StepStatusSkipped],
		counts[entities.StepStatusFailed])
	t.console.Info("저장 위치: %s", outputDir)

	for _, f := range report.Relocated.Files {
		if f.Err != nil {
			t.console.Fail("%s: %v", f.Name, f.Err)
			continue
		}
		t.console.Success("%s (%s, %s)", f.Name, f.Method, f.MIME)
	}

	if len(report.PDFs) == 0 {
		t.console.Warn("PDF 파일이 없습니다. 수동으로 저장했는지 확인해주세요.")
		return
	}
	t.console.Info("PDF 파일: %d개", len(report.PDFs))
	for i, name := range report.PDFs {
		t.console.Info("   %d. %s", i+1, name)
	}
}

// Pause - waits for Enter before the browser closes; EOF ends the wait
func (t *TerminalInterface) Pause(ctx context.Context) {
	t.console.Prompt("\nEnter 키를 눌러 브라우저를 닫고 종료합니다...")
	if _, err := t.reader.readLine(ctx); err != nil && !errors.Is(err, entities.ErrOperatorInterrupt) {
		t.logger.WithError(err).Debug("Final pause ended")
	}
	t.console.Info("")
}

type lineResult struct {
	line string
	err  error
}

// lineReader turns blocking reads into context-aware ones.
// A single goroutine, started on the first read, reads ahead at most one line.
type lineReader struct {
	lines chan lineResult
	r     *bufio.Reader
	start sync.Once
	err   error
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{lines: make(chan lineResult), r: bufio.NewReader(in)}
}

func (l *lineReader) pump() {
	defer close(l.lines)
	for {
		s, err := l.r.ReadString('\n')
		if s != "" {
			l.lines <- lineResult{line: s}
		}
		if err != nil {
			l.lines <- lineResult{err: err}
			return
		}
	}
}

// readLine - next trimmed line; a closed input is an operator interrupt
func (l *lineReader) readLine(ctx context.Context) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.start.Do(func() { go l.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok || res.err != nil {
			cause := io.EOF
			if ok {
				cause = res.err
			}
			l.err = fmt.Errorf("%w: input closed (%v)", entities.ErrOperatorInterrupt, cause)
			return "", l.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
