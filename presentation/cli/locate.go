package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/browser"
	"hometax_automation/infrastructure/security"
	"hometax_automation/presentation/terminal"
)

type locateOptions struct {
	url        string
	css        string
	xpath      string
	link       string
	image      string
	threshold  float64
	ocr        string
	text       string
	wait       time.Duration
	allowRisky bool
}

// NewLocateCommand - runs one locate-and-act call, for checking finders after the portal changes
func NewLocateCommand(opts *globalOptions) *cobra.Command {
	l := &locateOptions{}
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "한 개의 요소를 찾아 클릭/입력 (선택자 점검용)",
		Example: `  hometax locate --link 로그인
  hometax locate --xpath "//a[contains(text(), '신고/납부')]" --image 신고납부.png
  hometax locate --css "#txppTin1" --type 900101`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd.Context(), opts, l, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&l.url, "url", "", "page to open (default portal_url)")
	cmd.Flags().StringVar(&l.css, "css", "", "CSS selector")
	cmd.Flags().StringVar(&l.xpath, "xpath", "", "XPath expression")
	cmd.Flags().StringVar(&l.link, "link", "", "link text substring")
	cmd.Flags().StringVar(&l.image, "image", "", "reference image name in images_dir")
	cmd.Flags().Float64Var(&l.threshold, "threshold", entities.DefaultImageThreshold, "minimum image similarity")
	cmd.Flags().StringVar(&l.ocr, "ocr", "", "text to find by recognition")
	cmd.Flags().StringVar(&l.text, "type", "", "type this text instead of clicking")
	cmd.Flags().DurationVar(&l.wait, "wait", 0, "structural finder wait (default locator.structural_wait)")
	cmd.Flags().BoolVar(&l.allowRisky, "allow-risky", false, "allow clicks on submit/pay/delete targets")
	cmd.MarkFlagsMutuallyExclusive("css", "xpath")
	return cmd
}

// request - builds the locate request and action from the flags
func (l *locateOptions) request() (entities.LocateRequest, entities.Action) {
	req := entities.LocateRequest{
		LinkText: l.link,
		OCRText:  l.ocr,
		Wait:     l.wait,
	}
	switch {
	case l.css != "":
		req.Structural = entities.StructuralQuery(l.css)
	case l.xpath != "":
		req.Structural = entities.StructuralQuery("xpath=" + l.xpath)
	}
	if l.image != "" {
		req.Image = &entities.ImageTarget{Name: l.image, Threshold: l.threshold}
	}

	var parts []string
	for _, k := range req.FinderKinds() {
		switch k {
		case entities.FinderStructural:
			parts = append(parts, string(req.Structural))
		case entities.FinderLinkText:
			parts = append(parts, req.LinkText)
		case entities.FinderImage:
			parts = append(parts, req.Image.Name)
		case entities.FinderOCR:
			parts = append(parts, req.OCRText)
		}
	}
	req.Description = strings.Join(parts, " / ")

	if l.text != "" {
		return req, entities.TypeText(l.text)
	}
	return req, entities.Click()
}

func runLocate(ctx context.Context, opts *globalOptions, l *locateOptions, out io.Writer) error {
	env, err := newEnvironment(opts, out)
	if err != nil {
		return err
	}
	cfg, logger, console := env.cfg, env.logger, env.console

	req, action := l.request()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: pass at least one of --css, --xpath, --link, --image, --ocr", err)
	}
	if !l.allowRisky {
		if risky, keyword := security.NewActionGuard(logger).RequiresApproval(req, action); risky {
			return fmt.Errorf("target matches %q; rerun with --allow-risky to click it", keyword)
		}
	}

	session, err := browser.NewSession(cfg.BrowserOptions(cfg.Triage.SourceDir), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close browser")
		}
	}()

	url := firstNonEmpty(l.url, cfg.PortalURL)
	if err := session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}

	term := terminal.NewTerminalInterface(os.Stdin, console, logger)
	loop := buildLoop(cfg, session, term, logger)
	console.Info("대상: %s", action.Describe(req.Label()))

	outcome, err := loop.LocateAndAct(ctx, req, action)
	if err != nil {
		return err
	}

	if !outcome.Automated() {
		console.Warn("자동으로 찾지 못해 수동으로 처리했습니다")
		return nil
	}
	console.Success("%s 방식으로 처리했습니다", outcome.Via)
	if t := outcome.Target; t != nil {
		if t.Query != "" {
			console.Info("   query: %s", t.Query)
		}
		if t.Point != nil {
			console.Info("   point: %s (score %.3f)", t.Point, t.Score)
		}
	}
	return nil
}
