package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"kai/internal/assistant"
)

func (cli *CLI) newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the reminder assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runChat(cmd)
		},
	}
}

// lineReader yields one line of user input; io.EOF ends the session.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

type readlineReader struct {
	rl *readline.Instance
}

func (r *readlineReader) ReadLine() (string, error) {
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return "", io.EOF
			}
			continue
		}
		return line, err
	}
}

func (r *readlineReader) Close() error { return r.rl.Close() }

type scannerReader struct {
	scanner *bufio.Scanner
}

func (r *scannerReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) Close() error { return nil }

func (cli *CLI) newLineReader(cmd *cobra.Command) (lineReader, error) {
	if !isTerminal(cmd.InOrStdin()) || !isTTY() {
		return &scannerReader{scanner: bufio.NewScanner(cmd.InOrStdin())}, nil
	}
	homeDir, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       filepath.Join(homeDir, ".kai-history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             readline.NewCancelableStdin(os.Stdin),
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

// runChat reads utterances until exit. Low-confidence drafts stay pending
// until the user answers yes or no.
func (cli *CLI) runChat(cmd *cobra.Command) error {
	ctx := cmd.Context()
	c, err := cli.container(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	reader, err := cli.newLineReader(cmd)
	if err != nil {
		return err
	}
	defer reader.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold("Kai")+gray(" - tell me what to remind you about. /list shows your reminders, exit quits."))

	for {
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out, gray("Goodbye!"))
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit", "q":
			fmt.Fprintln(out, gray("Goodbye!"))
			return nil
		case "/list":
			items, err := c.Notifications.List(ctx, cli.userID)
			if err != nil {
				fmt.Fprintln(out, errorLine(err))
				continue
			}
			printNotifications(out, items, cli.now())
			continue
		}

		reply, err := c.Assistant.Handle(ctx, assistant.Request{UserID: cli.userID, Text: input, Now: cli.now()})
		if err != nil {
			c.Logger.Debug("chat reply failed", "error", err)
		}
		printReply(out, reply)
	}
}
