package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

type recorded struct {
	auth string
	body string
	form url.Values
}

// newTestClient serves canned responses per Web API method and records the
// last request of each method.
func newTestClient(t *testing.T, responses map[string]string) (*Client, map[string]*recorded) {
	t.Helper()
	seen := map[string]*recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/api/")
		rec := &recorded{auth: r.Header.Get("Authorization")}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			b, _ := io.ReadAll(r.Body)
			rec.body = string(b)
		} else {
			_ = r.ParseForm()
			rec.form = r.PostForm
		}
		seen[method] = rec

		resp, ok := responses[method]
		if !ok {
			t.Errorf("unexpected call to %s", method)
			resp = `{"ok":false,"error":"unknown_method"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	return New("xoxb-test", Options{APIURL: srv.URL + "/api/", HTTPClient: srv.Client(), Logger: zerolog.Nop()}), seen
}

func TestListOwnedTriggers(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"workflows.triggers.list": `{"ok":true,"triggers":[
			{"id":"Ft1","type":"event","name":"reaction_added event trigger","event_type":"slack#/events/reaction_added",
			 "channel_ids":["C1","C2"],"workflow":{"callback_id":"reacjilator"},
			 "filter":{"version":1,"root":{"operator":"OR","inputs":[{"statement":"{{data.reaction}} == jp"},{"statement":"{{data.reaction}} == fr"}]}}},
			{"id":"Ft2","type":"shortcut","name":"configurator","workflow":{"callback_id":"configurator"}}
		],"response_metadata":{"next_cursor":""}}`,
	})

	triggers, err := c.ListOwnedTriggers(context.Background())
	if err != nil {
		t.Fatalf("ListOwnedTriggers() error = %v", err)
	}

	expected := []domain.Trigger{
		{
			ID: "Ft1", Type: "event", Name: "reaction_added event trigger",
			WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType,
			ChannelIDs: []string{"C1", "C2"}, Reactions: []string{"jp", "fr"},
		},
		{ID: "Ft2", Type: "shortcut", Name: "configurator", WorkflowCallbackID: "configurator"},
	}
	if !reflect.DeepEqual(triggers, expected) {
		t.Errorf("ListOwnedTriggers() = %+v, want %+v", triggers, expected)
	}

	rec := seen["workflows.triggers.list"]
	if rec.auth != "Bearer xoxb-test" {
		t.Errorf("Authorization = %q", rec.auth)
	}
	if !strings.Contains(rec.body, `"is_owner":true`) {
		t.Errorf("list request = %s, want is_owner", rec.body)
	}
}

func TestCreateTriggerPayload(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"workflows.triggers.create": `{"ok":true,"trigger":{"id":"Ft9","type":"event","event_type":"slack#/events/reaction_added","channel_ids":["C1"],"workflow":{"callback_id":"reacjilator"}}}`,
	})

	created, err := c.CreateTrigger(context.Background(), domain.TriggerRequest{
		Type:               "event",
		Name:               "reaction_added event trigger",
		WorkflowCallbackID: "reacjilator",
		EventType:          domain.ReactionAddedEventType,
		ChannelIDs:         []string{"C1"},
		Reactions:          []string{"jp"},
		Inputs:             map[string]string{"channelId": "{{data.channel_id}}"},
	})
	if err != nil {
		t.Fatalf("CreateTrigger() error = %v", err)
	}
	if created.ID != "Ft9" {
		t.Errorf("created = %+v", created)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(seen["workflows.triggers.create"].body), &got); err != nil {
		t.Fatalf("request body: %v", err)
	}
	expected := map[string]any{
		"type":     "event",
		"name":     "reaction_added event trigger",
		"workflow": "#/workflows/reacjilator",
		"event": map[string]any{
			"event_type":  "slack#/events/reaction_added",
			"channel_ids": []any{"C1"},
			"filter": map[string]any{
				"version": float64(1),
				"root": map[string]any{
					"operator": "OR",
					"inputs":   []any{map[string]any{"statement": "{{data.reaction}} == jp"}},
				},
			},
		},
		"inputs": map[string]any{"channelId": map[string]any{"value": "{{data.channel_id}}"}},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("request = %v, want %v", got, expected)
	}
}

func TestUpdateTriggerWithoutFilter(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"workflows.triggers.update": `{"ok":true,"trigger":{"id":"Ft1"}}`,
	})

	if _, err := c.UpdateTrigger(context.Background(), domain.TriggerRequest{TriggerID: "Ft1", WorkflowCallbackID: "reacjilator"}); err != nil {
		t.Fatalf("UpdateTrigger() error = %v", err)
	}

	body := seen["workflows.triggers.update"].body
	if !strings.Contains(body, `"trigger_id":"Ft1"`) {
		t.Errorf("update request = %s, want trigger_id", body)
	}
	if strings.Contains(body, `"filter"`) {
		t.Errorf("update request = %s, want no filter", body)
	}
	if !strings.Contains(body, `"channel_ids":[]`) {
		t.Errorf("update request = %s, want an empty channel list", body)
	}
}

func TestCallErrors(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"workflows.triggers.list": `{"ok":false,"error":"invalid_auth"}`,
	})

	_, err := c.ListOwnedTriggers(context.Background())
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_auth" {
		t.Errorf("ListOwnedTriggers() error = %v, want invalid_auth", err)
	}
}

func TestJoinConversationErrorCode(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"conversations.join": `{"ok":false,"error":"method_not_supported_for_channel_type"}`,
		"conversations.info": `{"ok":true,"channel":{"id":"G1","is_private":true}}`,
		"auth.test":          `{"ok":true,"user_id":"UBOT","user":"reacjilator"}`,
	})

	err := c.JoinConversation(context.Background(), "G1")
	if code := domain.APIErrorCode(err); code != "method_not_supported_for_channel_type" {
		t.Errorf("JoinConversation() error = %v", err)
	}
	if got := seen["conversations.join"].form.Get("channel"); got != "G1" {
		t.Errorf("join channel = %q", got)
	}

	if err := c.ConversationInfo(context.Background(), "G1"); err != nil {
		t.Errorf("ConversationInfo() error = %v", err)
	}
	if user, err := c.ActorUserID(context.Background()); err != nil || user != "UBOT" {
		t.Errorf("ActorUserID() = %q, %v", user, err)
	}
}

func TestFetchMessage(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"conversations.history": `{"ok":true,"messages":[{"type":"message","ts":"100.1","text":"hello <@U1>"}],"has_more":false}`,
	})

	msg, err := c.FetchMessage(context.Background(), "C1", "100.1", "")
	if err != nil {
		t.Fatalf("FetchMessage() error = %v", err)
	}
	expected := domain.Message{ChannelID: "C1", Ts: "100.1", Text: "hello <@U1>"}
	if msg != expected {
		t.Errorf("FetchMessage() = %+v, want %+v", msg, expected)
	}
}

func TestFetchMessageFindsThreadReplies(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"conversations.history": `{"ok":true,"messages":[],"has_more":false}`,
		"conversations.replies": `{"ok":true,"messages":[
			{"type":"message","ts":"100.1","thread_ts":"100.1","text":"parent"},
			{"type":"message","ts":"200.2","thread_ts":"100.1","text":"reply"}
		],"has_more":false}`,
	})

	msg, err := c.FetchMessage(context.Background(), "C1", "200.2", "")
	if err != nil {
		t.Fatalf("FetchMessage() error = %v", err)
	}
	if msg.Text != "reply" || msg.ThreadRoot() != "100.1" {
		t.Errorf("FetchMessage() = %+v", msg)
	}
	if got := seen["conversations.replies"].form.Get("ts"); got != "200.2" {
		t.Errorf("replies ts = %q", got)
	}
}

func TestFetchMessageNotFound(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"conversations.history": `{"ok":true,"messages":[],"has_more":false}`,
		"conversations.replies": `{"ok":false,"error":"thread_not_found"}`,
	})

	_, err := c.FetchMessage(context.Background(), "C1", "100.1", "")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("FetchMessage() error = %v, want *domain.NotFoundError", err)
	}
}

func TestThreadRepliesAndPostReply(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"conversations.replies": `{"ok":true,"messages":[{"ts":"100.1","text":"parent"},{"ts":"100.2","text":"こんにちは"}],"has_more":false}`,
		"chat.postMessage":      `{"ok":true,"channel":"C1","ts":"100.3"}`,
	})

	replies, err := c.ThreadReplies(context.Background(), "C1", "100.1")
	if err != nil {
		t.Fatalf("ThreadReplies() error = %v", err)
	}
	if len(replies) != 2 || replies[1].Text != "こんにちは" {
		t.Errorf("ThreadReplies() = %+v", replies)
	}

	ts, err := c.PostReply(context.Background(), "C1", "100.1", "Guten Tag")
	if err != nil {
		t.Fatalf("PostReply() error = %v", err)
	}
	if ts != "100.3" {
		t.Errorf("PostReply() ts = %q", ts)
	}
	form := seen["chat.postMessage"].form
	if form.Get("thread_ts") != "100.1" || form.Get("text") != "Guten Tag" {
		t.Errorf("chat.postMessage form = %v", form)
	}
}

func TestCompleteSuccessSendsEmptyOutputs(t *testing.T) {
	c, seen := newTestClient(t, map[string]string{
		"functions.completeSuccess": `{"ok":true}`,
	})

	if err := c.CompleteSuccess(context.Background(), "Fx1", nil); err != nil {
		t.Fatalf("CompleteSuccess() error = %v", err)
	}
	if body := seen["functions.completeSuccess"].body; body != `{"function_execution_id":"Fx1","outputs":{}}` {
		t.Errorf("completeSuccess body = %s", body)
	}
}
