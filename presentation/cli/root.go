package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/config"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand - the hometax command; without a subcommand it runs the income-tax workflow
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	run := &runOptions{}

	cmd := &cobra.Command{
		Use:           "hometax",
		Short:         "홈택스 종합소득세 신고자료 수집 도구",
		Long:          "Opens the Hometax portal in a browser, walks the income-tax report menus and files the downloaded documents into a period folder.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), opts, run.fromFlags(cmd))
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml or "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging (same as DEBUG=true)")
	run.bind(cmd)

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTriageCommand(opts))
	cmd.AddCommand(NewLocateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	return cmd
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	code := ExitCode(err)
	switch code {
	case ExitOK:
	case ExitInterrupted:
		fmt.Fprintln(stderr, "\n사용자에 의해 중단되었습니다.")
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var missing *entities.MissingDependencyError
		if errors.As(err, &missing) && missing.Install != "" {
			fmt.Fprintf(stderr, "설치 방법: %s\n", missing.Install)
		}
	}
	return code
}

// ExitCode - maps a command error to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, entities.ErrOperatorInterrupt), errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, entities.ErrSessionUnusable):
		// already reported with the page URL and title
		return ExitOK
	}
	return ExitFailure
}
