package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"kai/internal/assistant"
	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/reminder"
	"kai/internal/scheduler"
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func printReply(out io.Writer, reply assistant.Reply) {
	switch reply.Kind {
	case assistant.ReplyConfirmed:
		fmt.Fprintln(out, green("✓ "+reply.Message))
		if reply.Notification != nil {
			fmt.Fprintln(out, gray("  id: "+reply.Notification.ID))
		}
	case assistant.ReplyClarify:
		fmt.Fprintln(out, yellow("? "+reply.Message))
	case assistant.ReplyFailed:
		fmt.Fprintln(out, red("✗ "+reply.Message))
	default:
		fmt.Fprintln(out, cyan(reply.Message))
	}
}

func printParsed(out io.Writer, parsed *reminder.ParsedReminder, now time.Time) {
	rows := [][2]string{{"Title", parsed.Title}}
	if parsed.Description != "" {
		rows = append(rows, [2]string{"Description", parsed.Description})
	}
	rows = append(rows,
		[2]string{"Category", assistant.CategoryLabel(parsed.Category)},
		[2]string{"When", assistant.DescribeSchedule(parsed.Frequency, parsed.ScheduledFor, now)},
		[2]string{"Scheduled", parsed.ScheduledFor.Format(time.RFC3339)},
		[2]string{"Frequency", string(parsed.Frequency)},
		[2]string{"Confidence", fmt.Sprintf("%.2f", parsed.Confidence)},
	)
	for _, row := range rows {
		fmt.Fprintf(out, "%s %s\n", bold(fmt.Sprintf("%-12s", row[0]+":")), row[1])
	}
}

func printNotifications(out io.Writer, list []notification.Notification, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(out, gray("No reminders."))
		return
	}
	for _, n := range list {
		status := green(string(n.Status))
		if n.Status != notification.StatusPending {
			status = gray(string(n.Status))
		}
		fmt.Fprintf(out, "%s  %s  %s\n", bold(n.ID), status, n.Title)
		fmt.Fprintf(out, "    %s\n", gray(fmt.Sprintf("%s, %s",
			assistant.CategoryLabel(n.Category),
			assistant.DescribeSchedule(n.Payload.Frequency, n.ScheduledFor, now))))
	}
}

func errorLine(err error) string {
	return red("Error: " + strings.TrimSpace(err.Error()))
}

// consoleLogger prints info and above to the terminal for `kai serve`.
type consoleLogger struct {
	out io.Writer
}

func (l consoleLogger) Debug(string, ...any) {}

func (l consoleLogger) Info(format string, args ...any) {
	fmt.Fprintln(l.out, cyan(fmt.Sprintf(format, args...)))
}

func (l consoleLogger) Warn(format string, args ...any) {
	fmt.Fprintln(l.out, yellow(fmt.Sprintf(format, args...)))
}

func (l consoleLogger) Error(format string, args ...any) {
	fmt.Fprintln(l.out, red(fmt.Sprintf(format, args...)))
}

// newDeliveryNotifier reports due reminders on the structured log and on out.
func newDeliveryNotifier(out io.Writer, logger logging.Logger) scheduler.Notifier {
	return scheduler.NewLogNotifier(logging.Multi(logger, consoleLogger{out: out}))
}
