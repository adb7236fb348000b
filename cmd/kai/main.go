package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kai/internal/assistant"
	"kai/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

// CLI holds the command line interface state
type CLI struct {
	viper      *viper.Viper
	configPath string
	userID     string
	verbose    bool
	noColor    bool
	assumeYes  bool

	// now returns the current time; injectable for testing.
	now func() time.Time
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&CLI{viper: viper.New(), now: time.Now})
}

func newRootCommand(cli *CLI) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "kai",
		Short:   "Turn plain-language requests into scheduled reminders",
		Version: version,
		Long: fmt.Sprintf(`%s

Kai recognises reminder requests such as "remind me to stretch every day at 7am",
works out what, when and how often, and saves them as scheduled notifications.

%s
  kai "remind me to practice serves tomorrow at 3pm"   # Single request
  kai chat                                            # Interactive assistant
  kai parse "ping me to hydrate in 2 hours" --json    # Dry-run the parser
  kai serve                                           # HTTP API and dispatcher
  kai reminders list                                  # Manage saved reminders`,
			bold("Kai "+version), bold("EXAMPLES:")),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cli.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cli.runOnce(cmd, strings.Join(args, " "))
			}
			if !isTTY() {
				return cmd.Help()
			}
			return cli.runChat(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cli.configPath, "config", "c", "", "Config file (default ./kai.yaml or ~/.kai/kai.yaml)")
	flags.StringVarP(&cli.userID, "user", "u", defaultUser(), "User that owns the reminders")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&cli.noColor, "no-color", false, "Disable colored output")
	flags.String("store-driver", "", "Notification store: memory, file or postgres")
	flags.String("store-dir", "", "Directory for the file store")
	flags.String("store-dsn", "", "Postgres connection string")
	flags.String("timezone", "", "IANA zone used to resolve relative times")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().BoolVarP(&cli.assumeYes, "yes", "y", false, "Save low-confidence reminders without asking")

	for key, flag := range map[string]string{
		"store.driver":                "store-driver",
		"store.dir":                   "store-dir",
		"store.dsn":                   "store-dsn",
		"assistant.timezone":          "timezone",
		"observability.logging.level": "log-level",
	} {
		_ = cli.viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		cli.newParseCommand(),
		cli.newChatCommand(),
		cli.newServeCommand(),
		cli.newSchemaCommand(),
		cli.newRemindersCommand(),
	)
	return rootCmd
}

func defaultUser() string {
	if user := strings.TrimSpace(os.Getenv("KAI_USER")); user != "" {
		return user
	}
	if user := strings.TrimSpace(os.Getenv("USER")); user != "" {
		return user
	}
	return "local"
}

func (cli *CLI) loadConfig() (config.Config, error) {
	opts := []config.Option{config.WithViper(cli.viper)}
	if cli.configPath != "" {
		opts = append(opts, config.WithConfigPath(cli.configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return config.Config{}, err
	}
	if cli.verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg, nil
}

// container loads configuration and wires the runtime for interactive commands.
func (cli *CLI) container(ctx context.Context, cmd *cobra.Command) (*Container, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	return BuildContainer(ctx, cfg, containerOptions{
		logOutput: cmd.ErrOrStderr(),
		quiet:     !cli.verbose && !cmd.Flags().Changed("log-level"),
		now:       cli.now,
	})
}

// runOnce handles a single request, asking before saving a low-confidence draft.
func (cli *CLI) runOnce(cmd *cobra.Command, text string) error {
	ctx := cmd.Context()
	c, err := cli.container(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	out := cmd.OutOrStdout()
	reply, err := c.Assistant.Handle(ctx, assistant.Request{UserID: cli.userID, Text: text, Now: cli.now()})
	printReply(out, reply)
	if err != nil || reply.Kind != assistant.ReplyClarify {
		return err
	}

	confirm := cli.assumeYes
	if !confirm && isTerminal(cmd.InOrStdin()) {
		fmt.Fprint(out, bold("Save it? [y/N] "))
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		confirm = answer == "y" || answer == "yes"
	}
	if !confirm {
		reply, _ = c.Assistant.Discard(ctx, cli.userID)
		printReply(out, reply)
		return nil
	}
	reply, err = c.Assistant.Confirm(ctx, cli.userID)
	if err != nil {
		return err
	}
	printReply(out, reply)
	return nil
}
