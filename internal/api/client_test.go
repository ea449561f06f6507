package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer routes Slack method names to handlers.
func mockServer(t *testing.T, routes map[string]http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/")
		h, ok := routes[method]
		if !ok {
			t.Errorf("unexpected call to %s", method)
			http.NotFound(w, r)
			return
		}
		if tokenOf(r) != "xoxb-test" {
			t.Errorf("%s: missing token", method)
		}
		h(w, r)
	}))
	t.Cleanup(server.Close)

	return NewClient("xoxb-test", WithBaseURL(server.URL+"/"), WithRateLimit(0, 1))
}

func tokenOf(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.FormValue("token")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthTest(t *testing.T) {
	client := mockServer(t, map[string]http.HandlerFunc{
		"auth.test": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": true, "user": "bot", "user_id": "U0", "team": "Acme", "team_id": "T0"})
		},
	})

	id, err := client.AuthTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "U0", User: "bot", TeamID: "T0", Team: "Acme"}, id)
}

func TestListChannels_FollowsCursor(t *testing.T) {
	var pages int
	client := mockServer(t, map[string]http.HandlerFunc{
		"conversations.list": func(w http.ResponseWriter, r *http.Request) {
			pages++
			if r.FormValue("cursor") == "" {
				writeJSON(w, map[string]any{
					"ok":                true,
					"channels":          []map[string]any{{"id": "C1", "name": "general", "is_member": true, "num_members": 4}},
					"response_metadata": map[string]any{"next_cursor": "page2"},
				})
				return
			}
			assert.Equal(t, "page2", r.FormValue("cursor"))
			writeJSON(w, map[string]any{
				"ok":                true,
				"channels":          []map[string]any{{"id": "C2", "name": "secret", "is_private": true}},
				"response_metadata": map[string]any{"next_cursor": ""},
			})
		},
	})

	chs, err := client.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []Channel{
		{ID: "C1", Name: "general", IsMember: true, NumMembers: 4},
		{ID: "C2", Name: "secret", IsPrivate: true},
	}, chs)
}

func TestListUsers(t *testing.T) {
	client := mockServer(t, map[string]http.HandlerFunc{
		"users.list": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"ok": true,
				"members": []map[string]any{
					{"id": "U1", "name": "alex", "real_name": "Alex Smith", "profile": map[string]any{"display_name": "al"}},
					{"id": "U2", "name": "bot", "is_bot": true, "profile": map[string]any{}},
				},
				"response_metadata": map[string]any{"next_cursor": ""},
			})
		},
	})

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "al", users[0].Label())
	assert.Equal(t, "Alex Smith", users[0].RealName)
	assert.Equal(t, "bot", users[1].Label())
	assert.True(t, users[1].IsBot)
}

func TestFetchMessages_OldestFirst(t *testing.T) {
	client := mockServer(t, map[string]http.HandlerFunc{
		"conversations.history": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "C1", r.FormValue("channel"))
			assert.Equal(t, "1700000000.000100", r.FormValue("oldest"))
			writeJSON(w, map[string]any{
				"ok": true,
				"messages": []map[string]any{
					{"type": "message", "user": "U2", "text": "second", "ts": "1700000002.000000"},
					{"type": "message", "user": "U1", "text": "first", "ts": "1700000001.000000"},
					{"type": "message", "user": "U1", "text": "boundary", "ts": "1700000000.000100"},
				},
				"has_more": false,
			})
		},
	})

	msgs, err := client.FetchMessages(context.Background(), Scope{ChannelID: "C1"}, "1700000000.000100", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
}

func TestFetchMessages_Thread(t *testing.T) {
	client := mockServer(t, map[string]http.HandlerFunc{
		"conversations.replies": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1.000000", r.FormValue("ts"))
			writeJSON(w, map[string]any{
				"ok": true,
				"messages": []map[string]any{
					{"user": "U1", "text": "parent", "ts": "1.000000", "thread_ts": "1.000000", "reply_count": 2},
					{"user": "U2", "text": "r1", "ts": "2.000000", "thread_ts": "1.000000"},
					{"user": "U3", "text": "r2", "ts": "3.000000", "thread_ts": "1.000000"},
				},
				"has_more": false,
			})
		},
	})

	msgs, err := client.FetchMessages(context.Background(), Scope{ChannelID: "C1", ThreadTS: "1.000000"}, "", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"r1", "r2"}, []string{msgs[0].Text, msgs[1].Text})
}

func TestSendMessage_Thread(t *testing.T) {
	client := mockServer(t, map[string]http.HandlerFunc{
		"chat.postMessage": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "C1", r.FormValue("channel"))
			assert.Equal(t, "hi <@U1>", r.FormValue("text"))
			assert.Equal(t, "1.000000", r.FormValue("thread_ts"))
			writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "5.000000"})
		},
	})

	msg, err := client.SendMessage(context.Background(), Scope{ChannelID: "C1", ThreadTS: "1.000000"}, "hi <@U1>")
	require.NoError(t, err)
	assert.Equal(t, Message{TS: "5.000000", Text: "hi <@U1>", ThreadTS: "1.000000"}, msg)
}

func TestUpdateAndDeleteMessage(t *testing.T) {
	var calls []string
	client := mockServer(t, map[string]http.HandlerFunc{
		"chat.update": func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "update:"+r.FormValue("ts")+":"+r.FormValue("text"))
			writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "5.000000", "text": "fixed"})
		},
		"chat.delete": func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "delete:"+r.FormValue("ts"))
			writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "5.000000"})
		},
	})

	require.NoError(t, client.UpdateMessage(context.Background(), "C1", "5.000000", "fixed"))
	require.NoError(t, client.DeleteMessage(context.Background(), "C1", "5.000000"))
	assert.Equal(t, []string{"update:5.000000:fixed", "delete:5.000000"}, calls)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, e *APIError)
	}{
		{
			name: "missing scope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{"ok": false, "error": "missing_scope"})
			},
			check: func(t *testing.T, e *APIError) {
				assert.True(t, e.IsMissingScope())
				assert.Equal(t, "conversations.list", e.Method)
				assert.NotEmpty(t, e.Remediation())
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			check: func(t *testing.T, e *APIError) {
				assert.True(t, e.IsRateLimited())
				assert.Equal(t, 3*time.Second, e.RetryAfter)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			check: func(t *testing.T, e *APIError) {
				assert.True(t, e.IsServerError())
				assert.Empty(t, e.Remediation())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mockServer(t, map[string]http.HandlerFunc{"conversations.list": tt.handler})
			_, err := client.ListChannels(context.Background())
			require.Error(t, err)
			apiErr, ok := IsAPIError(err)
			require.True(t, ok, "got %T: %v", err, err)
			tt.check(t, apiErr)
		})
	}
}

func TestAPIError_Classification(t *testing.T) {
	tests := []struct {
		err          APIError
		notFound     bool
		unauthorized bool
		notInChannel bool
	}{
		{err: APIError{Code: "channel_not_found"}, notFound: true},
		{err: APIError{StatusCode: 404}, notFound: true},
		{err: APIError{Code: "invalid_auth"}, unauthorized: true},
		{err: APIError{Code: "not_in_channel"}, notInChannel: true},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.notFound, tt.err.IsNotFound())
			assert.Equal(t, tt.unauthorized, tt.err.IsUnauthorized())
			assert.Equal(t, tt.notInChannel, tt.err.IsNotInChannel())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestParseTS(t *testing.T) {
	got := ParseTS("1700000000.000123")
	assert.Equal(t, int64(1700000000), got.Unix())
	assert.Equal(t, 123*time.Microsecond, time.Duration(got.Nanosecond()))
	assert.True(t, ParseTS("garbage").IsZero())
}

func TestScope(t *testing.T) {
	assert.Equal(t, "C1", Scope{ChannelID: "C1"}.Key())
	assert.Equal(t, "C1/1.0", Scope{ChannelID: "C1", ThreadTS: "1.0"}.Key())
	assert.True(t, Scope{ChannelID: "C1", ThreadTS: "1.0"}.IsThread())
}

func TestMessageKinds(t *testing.T) {
	assert.True(t, Message{Subtype: "channel_join", User: "U1"}.IsMembership())
	assert.True(t, Message{Text: "topic changed"}.IsSystem())
	assert.False(t, Message{BotID: "B1"}.IsSystem())
	assert.True(t, Message{TS: "1.0", ThreadTS: "1.0", ReplyCount: 2}.HasThread())
	assert.False(t, Message{TS: "2.0", ThreadTS: "1.0"}.HasThread())
}
