package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/config"
	"github.com/hy4ri/slack-tui/internal/directory"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// isolate points every per-user path at a temp dir and installs an empty
// in-memory keyring.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(config.TokenEnv, "")
	keyring.MockInit()
	return dir
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// slackServer serves the given methods plus auth.test.
func slackServer(t *testing.T, routes map[string]http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/")
		if method == "auth.test" {
			writeJSON(w, map[string]any{"ok": true, "user": "bot", "user_id": "U0", "team": "Acme", "team_id": "T0"})
			return
		}
		h, ok := routes[method]
		if !ok {
			t.Errorf("unexpected call to %s", method)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func channelList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"ok": true,
		"channels": []map[string]any{
			{"id": "C1", "name": "general", "is_member": true, "num_members": 4},
			{"id": "G2", "name": "secret", "is_private": true, "num_members": 2},
		},
		"response_metadata": map[string]any{"next_cursor": ""},
	})
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "xoxb-test")
	url := slackServer(t, map[string]http.HandlerFunc{"conversations.list": channelList})

	out, err := run(t, "", "--api-url", url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ #general")
	assert.Contains(t, out, "ID: C1")
	assert.Contains(t, out, "members: 4")
	assert.Contains(t, out, "🔒secret")
	assert.Contains(t, out, "Total: 2 channels")
}

func TestHistoryCommand(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "xoxb-test")
	url := slackServer(t, map[string]http.HandlerFunc{
		"conversations.list": channelList,
		"conversations.history": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "C1", r.FormValue("channel"))
			assert.Equal(t, "2", r.FormValue("limit"))
			writeJSON(w, map[string]any{
				"ok": true,
				"messages": []map[string]any{
					{"type": "message", "user": "U1", "text": "second", "ts": "1700000060.000000"},
					{"type": "message", "subtype": "channel_join", "user": "U3", "text": "<@U3> has joined the channel", "ts": "1700000030.000000"},
					{"type": "message", "user": "U1", "text": "first", "ts": "1700000000.000000"},
				},
			})
		},
		"users.info": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": true, "user": map[string]any{"id": "U1", "name": "alex"}})
		},
	})

	out, err := run(t, "", "--api-url", url, "history", "#general", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#general (latest 2)")
	first, second := strings.Index(out, "alex: first"), strings.Index(out, "alex: second")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second, "oldest first")
	assert.NotContains(t, out, "joined")
	assert.Contains(t, out, time.Unix(1700000000, 0).Format("[2006-01-02 15:04:05]"))
}

func TestSendCommand(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "xoxb-test")
	url := slackServer(t, map[string]http.HandlerFunc{
		"conversations.list": channelList,
		"chat.postMessage": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "C1", r.FormValue("channel"))
			assert.Equal(t, "hello team", r.FormValue("text"))
			writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "1700000100.000100"})
		},
	})

	out, err := run(t, "", "--api-url", url, "send", "general", "hello", "team")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Message sent to #general (ts: 1700000100.000100)")
}

func TestSendUnknownChannel(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "xoxb-test")
	url := slackServer(t, map[string]http.HandlerFunc{"conversations.list": channelList})

	_, err := run(t, "", "--api-url", url, "send", "nowhere", "hi")
	assert.ErrorIs(t, err, directory.ErrChannelNotFound)
}

func TestMissingToken(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Slack token configured")
	assert.Contains(t, err.Error(), "slack-tui login")
}

func TestInitCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "config.yaml")

	out, err := run(t, "", "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file created: "+path)

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o600))
	out, err = run(t, "n\n", "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	_, err = run(t, "", "--config", path, "init", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))
}

func TestLoginAndLogout(t *testing.T) {
	isolate(t)
	url := slackServer(t, nil)

	out, err := run(t, "xoxb-abc\n", "--api-url", url, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in as bot in Acme")
	assert.Contains(t, out, "Token stored in the keyring.")

	token, src, err := config.LookupToken(nil)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-abc", token)
	assert.Equal(t, config.SourceKeyring, src)

	out, err = run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored token removed.")
	token, _, err = config.LookupToken(nil)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLoginFallsBackToFile(t *testing.T) {
	isolate(t)
	keyring.MockInitWithError(errors.New("no keyring"))
	url := slackServer(t, nil)

	out, err := run(t, "", "--api-url", url, "login", "xoxb-abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Token stored in the credentials file.")
}

func TestLoginRejectsMalformedToken(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "login", "not-a-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token must start with")
}

func TestPrintError(t *testing.T) {
	var b bytes.Buffer
	PrintError(&b, &api.APIError{Method: "conversations.history", Code: "not_in_channel"})
	assert.Contains(t, b.String(), "Error: conversations.history: API error: not_in_channel")
	assert.Contains(t, b.String(), "/invite @your-bot-name")

	b.Reset()
	PrintError(&b, fmt.Errorf("%w: nowhere", directory.ErrChannelNotFound))
	assert.Contains(t, b.String(), "slack-tui list")

	b.Reset()
	PrintError(&b, errors.New("plain"))
	assert.Equal(t, "Error: plain\n", b.String())
}

func TestCommandTree(t *testing.T) {
	cmd := NewRootCmd("1.2.3")
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"list", "send", "history", "chat", "init", "login", "logout"} {
		assert.Contains(t, names, want)
	}
	assert.Equal(t, "1.2.3", cmd.Version)
}
