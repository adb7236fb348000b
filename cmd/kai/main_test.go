package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kai/internal/assistant"
	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
	"kai/internal/reminder"
)

var cliNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`store:
  driver: file
  dir: %s
assistant:
  timezone: UTC
observability:
  metrics:
    enabled: false
`, filepath.Join(dir, "notifications"))
	path := filepath.Join(dir, "kai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(&CLI{viper: viper.New(), now: func() time.Time { return cliNow }})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath, "--no-color", "--user", "tester"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestParseCommandJSON(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "", "parse", "--json", "Remind me to practice serves tomorrow at 3 PM")
	require.NoError(t, err)

	var parsed reminder.ParsedReminder
	require.NoError(t, json.Unmarshal([]byte(out), &parsed), out)
	assert.Equal(t, "Practice serves", parsed.Title)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), parsed.ScheduledFor.UTC())
	assert.Equal(t, "15:00", parsed.TimeOfDay)
}

func TestParseCommandHumanOutput(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "", "parse", "--now", "2024-01-01T10:00:00Z", "remind me to stretch every day at 7am")
	require.NoError(t, err)
	assert.Contains(t, out, "Stretch")
	assert.Contains(t, out, "every day at 7 AM")
	assert.Contains(t, out, "DAILY")

	out, err = runCLI(t, cfg, "", "parse", "what's the weather like?")
	require.NoError(t, err)
	assert.Contains(t, out, "Not a reminder.")

	_, err = runCLI(t, cfg, "", "parse", "--now", "yesterday", "remind me to stretch")
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "", "schema", "--tool", assistant.ToolCreateReminder)
	require.NoError(t, err)
	var def assistant.ToolDefinition
	require.NoError(t, json.Unmarshal([]byte(out), &def), out)
	assert.Equal(t, assistant.ToolCreateReminder, def.Name)
	assert.ElementsMatch(t, []string{"title", "scheduledFor"}, def.Parameters.Required)

	_, err = runCLI(t, cfg, "", "schema", "--tool", "nope")
	assert.Error(t, err)
}

var idPattern = regexp.MustCompile(`id: (\S+)`)

func TestSingleRequestThenManageReminders(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "", "Remind me to practice serves tomorrow at 3 PM")
	require.NoError(t, err)
	assert.Contains(t, out, `Got it! I'll remind you to "Practice serves" tomorrow at 3 PM.`)
	match := idPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)
	id := match[1]

	out, err = runCLI(t, cfg, "", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Practice serves")

	out, err = runCLI(t, cfg, "", "reminders", "update", id, "--frequency", "daily", "--at", "2024-01-02T08:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "every day at 8 AM")

	_, err = runCLI(t, cfg, "", "--user", "someone-else", "reminders", "cancel", id)
	require.Error(t, err)
	assert.Equal(t, "reminder not found: "+id, err.Error())

	out, err = runCLI(t, cfg, "", "reminders", "cancel", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled Practice serves")

	out, err = runCLI(t, cfg, "", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")
}

func TestSingleLowConfidenceRequest(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "", "notify me to stretch")
	require.NoError(t, err)
	assert.Contains(t, out, "Just to check")

	out, err = runCLI(t, cfg, "", "reminders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")

	out, err = runCLI(t, cfg, "", "--yes", "notify me to stretch")
	require.NoError(t, err)
	assert.Contains(t, out, "Got it!")
}

func TestChatCommand(t *testing.T) {
	cfg := writeTestConfig(t)
	stdin := "notify me to stretch\nyes\nwhat's for dinner?\n/list\nexit\n"

	out, err := runCLI(t, cfg, stdin, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Just to check")
	assert.Contains(t, out, `Got it! I'll remind you to "Stretch"`)
	assert.Contains(t, out, "Goodbye!")
	assert.Regexp(t, `ntf-\S+\s+pending\s+Stretch`, out)
}

func TestDeliveryNotifierWritesLogAndConsole(t *testing.T) {
	var logBuf, console bytes.Buffer
	structured := observability.NewLogger(observability.LogConfig{Level: "info", Format: "text", Output: &logBuf})
	notifier := newDeliveryNotifier(&console, logging.FromObservabilityWithComponent(structured, "Dispatcher"))

	err := notifier.Notify(context.Background(), notification.Notification{
		ID:             "ntf-9",
		UserID:         "tester",
		Message:        "Practice serves",
		DeliveryMethod: notification.DeliveryPush,
		ScheduledFor:   cliNow,
	})
	require.NoError(t, err)

	assert.Contains(t, logBuf.String(), "component=Dispatcher")
	assert.Contains(t, logBuf.String(), "ntf-9 -> tester: Practice serves")
	assert.Contains(t, console.String(), "Notify [push] ntf-9 -> tester: Practice serves")
}
