package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/app"
	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/config"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/session"
	"github.com/garyjia/payroll-console/pkg/utils"
)

// cli carries what every command shares. The app is opened lazily before a command runs.
type cli struct {
	configPath string
	envFiles   []string
	jsonOut    bool

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	app    *app.App
	logger *zap.Logger
}

// commandError attaches the attempted action so the user sees one readable message
type commandError struct {
	action string
	err    error
}

func (e *commandError) Error() string {
	switch {
	case errors.Is(e.err, session.ErrNotAuthenticated):
		return "Not logged in. Run \"payroll-console login\" first."
	case errors.Is(e.err, session.ErrForbidden):
		return "This command is only available to admins."
	}
	return apperr.UserMessage(e.err, e.action)
}
func (e *commandError) Unwrap() error { return e.err }

func failed(action string, err error) error {
	if err == nil {
		return nil
	}
	return &commandError{action: action, err: err}
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "payroll-console",
		Short:         "Salary slips and expense reimbursements from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (optional)")
	cmd.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	cmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newLoginCmd(c),
		newSignupCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newDashboardCmd(c),
		newSlipsCmd(c),
		newExpensesCmd(c),
		newEmployeesCmd(c),
		newExportCmd(c),
		newServeCmd(c),
	)
	return cmd
}

func (c *cli) open() error {
	if c.app != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath, c.envFiles...)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.LoggerSettings())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	a.Notifier.AddSink(&terminalSink{w: c.errOut})
	c.app = a
	c.logger = logger
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	_ = c.logger.Sync()
	c.app = nil
	return err
}

// prompt asks a question on the terminal and returns the trimmed answer
func (c *cli) prompt(question string) (string, error) {
	fmt.Fprint(c.errOut, question)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y or yes is a no
func (c *cli) confirm(_ context.Context, question string) (bool, error) {
	answer, err := c.prompt(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// terminalSink prints notifications as one-line toasts on stderr. Errors are left to the
// command's own return value so they are not shown twice.
type terminalSink struct {
	w io.Writer
}

func (s *terminalSink) Name() string { return "terminal" }

func (s *terminalSink) Deliver(_ context.Context, n notify.Notification) error {
	var mark string
	switch n.Level {
	case notify.LevelSuccess:
		mark = "✓"
	case notify.LevelInfo:
		mark = "i"
	case notify.LevelWarning:
		mark = "!"
	default:
		return nil
	}
	_, err := fmt.Fprintf(s.w, "%s %s\n", mark, n.Message)
	return err
}

// execute runs the command line and returns the process exit code
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: bufio.NewReader(in), out: out, errOut: errOut}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	// The session teardown already told the user
	if !apperr.IsUnauthorized(err) {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return 1
}
