package conversation

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	yellow = "\033[33m"
	bell   = "\a"
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes alarm notifications to the terminal with ANSI
// formatting and, optionally, the terminal bell.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
	bell    bool
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc, ringBell bool) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn, bell: ringBell}
}

// Notify prints the alarm title in bold red followed by the body.
func (n *CLINotifier) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Debug("notify: %s / %s", title, body)

	prefix := ""
	if n.bell {
		prefix = bell
	}
	n.printFn("%s%s%s%s%s %s%s%s", prefix, red, bold, title, reset, yellow, body, reset)
	return nil
}
