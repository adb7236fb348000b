package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kai/internal/assistant"
	"kai/internal/notification"
	"kai/internal/reminder"
)

func (cli *CLI) newParseCommand() *cobra.Command {
	var (
		asJSON bool
		nowArg string
	)
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how a request would be understood without saving it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Assistant.Location()
			if err != nil {
				return err
			}
			now := cli.now().In(loc)
			if nowArg != "" {
				if now, err = time.Parse(time.RFC3339, nowArg); err != nil {
					return fmt.Errorf("--now must be RFC3339: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			parsed := reminder.Parse(strings.Join(args, " "), now)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(parsed)
			}
			if parsed == nil {
				fmt.Fprintln(out, gray("Not a reminder."))
				return nil
			}
			printParsed(out, parsed, now)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parse result as JSON")
	cmd.Flags().StringVar(&nowArg, "now", "", "Reference time in RFC3339 (default: current time)")
	return cmd
}

func (cli *CLI) newSchemaCommand() *cobra.Command {
	var tool string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the function-calling tool definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := assistant.NewToolRegistry(nil, nil, nil).Definitions()
			var payload any = defs
			if tool != "" {
				payload = nil
				for _, def := range defs {
					if def.Name == tool {
						payload = def
					}
				}
				if payload == nil {
					return fmt.Errorf("unknown tool %q", tool)
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "Only print the named tool")
	return cmd
}

func (cli *CLI) newRemindersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"r"},
		Short:   "List, cancel or update saved reminders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.container(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			items, err := c.Notifications.List(cmd.Context(), cli.userID)
			if err != nil {
				return err
			}
			printNotifications(cmd.OutOrStdout(), items, cli.now())
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel one of your reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.container(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			n, err := c.Notifications.Cancel(cmd.Context(), cli.userID, args[0])
			if err != nil {
				return managementError(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓ Cancelled "+n.Title))
			return nil
		},
	}

	var title, at, frequency string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the title, time or frequency of a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := assistant.PatchFromArguments(map[string]any{
				"title":        title,
				"scheduledFor": at,
				"frequency":    frequency,
			})
			if err != nil {
				return err
			}
			c, err := cli.container(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			n, err := c.Notifications.Update(cmd.Context(), cli.userID, args[0], patch)
			if err != nil {
				return managementError(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓ Updated"))
			printNotifications(cmd.OutOrStdout(), []notification.Notification{n}, cli.now())
			return nil
		},
	}
	update.Flags().StringVar(&title, "title", "", "New title")
	update.Flags().StringVar(&at, "at", "", "New time in RFC3339")
	update.Flags().StringVar(&frequency, "frequency", "", "CUSTOM, DAILY, WEEKLY or MULTIPLE")

	cmd.AddCommand(list, cancel, update)
	return cmd
}

// managementError reports another user's reminder as missing.
func managementError(id string, err error) error {
	if errors.Is(err, notification.ErrNotFound) || errors.Is(err, notification.ErrForbidden) {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return err
}
