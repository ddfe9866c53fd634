package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/pricofy/slack-translator/internal/dispatch"
	"github.com/pricofy/slack-translator/internal/handler"
	"github.com/pricofy/slack-translator/internal/router"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type fakeRouter struct {
	calls []router.Call
}

func (f *fakeRouter) Dispatch(ctx context.Context, call router.Call) error {
	f.calls = append(f.calls, call)
	return nil
}

type fakeHandler struct {
	interactions []slack.InteractionCallback
	interaction  *slack.ViewSubmissionResponse
	maintain     *handler.Response
	maintained   int
}

func (f *fakeHandler) HandleInteraction(ctx context.Context, cb slack.InteractionCallback) (*slack.ViewSubmissionResponse, error) {
	f.interactions = append(f.interactions, cb)
	return f.interaction, nil
}

func (f *fakeHandler) MaintainMembership(ctx context.Context, req handler.MaintainRequest) (*handler.Response, error) {
	f.maintained++
	return f.maintain, nil
}

type fakeInvoker struct {
	enqueued [][]byte
	fanouts  int
	err      error
}

func (f *fakeInvoker) EnqueueEvent(ctx context.Context, event json.RawMessage) error {
	f.enqueued = append(f.enqueued, event)
	return f.err
}

func (f *fakeInvoker) Fanout(ctx context.Context, payload any, count int) error {
	f.fanouts += count
	return nil
}

func newServer() (*server, *fakeRouter, *fakeHandler) {
	r := &fakeRouter{}
	h := &fakeHandler{maintain: &handler.Response{Outputs: map[string]string{}}}
	return &server{router: r, handler: h, signingSecret: testSecret, logger: zerolog.Nop()}, r, h
}

func signedRequest(t *testing.T, contentType, body string) json.RawMessage {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)

	req := events.LambdaFunctionURLRequest{
		Version: "2.0",
		RawPath: "/",
		Headers: map[string]string{
			"content-type":              contentType,
			"x-slack-request-timestamp": ts,
			"x-slack-signature":         "v0=" + hex.EncodeToString(mac.Sum(nil)),
		},
		RequestContext: events.LambdaFunctionURLRequestContext{RequestID: "req-1"},
		Body:           body,
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return raw
}

func httpResponse(t *testing.T, out any, err error) events.LambdaFunctionURLResponse {
	t.Helper()
	if err != nil {
		t.Fatalf("handleRequest() error: %v", err)
	}
	resp, ok := out.(events.LambdaFunctionURLResponse)
	if !ok {
		t.Fatalf("handleRequest() = %T, want a function URL response", out)
	}
	return resp
}

const functionExecuted = `{
	"type": "event_callback",
	"token": "x",
	"event": {
		"type": "function_executed",
		"function": {"callback_id": "translate"},
		"inputs": {"channelId": "C1", "messageTs": "1.1"},
		"function_execution_id": "Fx1"
	}
}`

func TestURLVerification(t *testing.T) {
	s, _, _ := newServer()

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/json", `{"type":"url_verification","challenge":"abc123","token":"x"}`))
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusOK || resp.Body != "abc123" {
		t.Errorf("response = %d %q, want 200 abc123", resp.StatusCode, resp.Body)
	}
}

func TestBadSignature(t *testing.T) {
	s, r, _ := newServer()
	raw := signedRequest(t, "application/json", functionExecuted)

	var req events.LambdaFunctionURLRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatal(err)
	}
	req.Headers["x-slack-signature"] = "v0=deadbeef"
	raw, _ = json.Marshal(req)

	out, err := s.handleRequest(context.Background(), raw)
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if len(r.calls) != 0 {
		t.Errorf("dispatched %d calls, want 0", len(r.calls))
	}
}

func TestUnparseableBody(t *testing.T) {
	s, _, _ := newServer()

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/json", `{not json`))
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFunctionExecuted_InlineWithoutInvoker(t *testing.T) {
	s, r, _ := newServer()

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/json", functionExecuted))
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(r.calls) != 1 || r.calls[0].CallbackID != "translate" || r.calls[0].ExecutionID != "Fx1" {
		t.Errorf("calls = %+v, want the translate execution", r.calls)
	}
}

func TestFunctionExecuted_SelfDispatch(t *testing.T) {
	s, r, _ := newServer()
	inv := &fakeInvoker{}
	s.invoker = inv

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/json", functionExecuted))
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if len(r.calls) != 0 {
		t.Errorf("dispatched inline %d times, want 0", len(r.calls))
	}
	if len(inv.enqueued) != 1 {
		t.Fatalf("enqueued %d events, want 1", len(inv.enqueued))
	}

	// The enqueued body comes back wrapped in an envelope.
	envelope, _ := json.Marshal(dispatch.Envelope{Source: dispatch.EnvelopeSource, Event: inv.enqueued[0]})
	if _, err := s.handleRequest(context.Background(), envelope); err != nil {
		t.Fatalf("handleRequest(envelope) error: %v", err)
	}
	if len(r.calls) != 1 || r.calls[0].Inputs["channelId"] != "C1" {
		t.Errorf("calls = %+v, want the translate execution", r.calls)
	}
}

func TestFunctionExecuted_FallsBackInline(t *testing.T) {
	s, r, _ := newServer()
	s.invoker = &fakeInvoker{err: errors.New("throttled")}

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/json", functionExecuted))
	httpResponse(t, out, err)
	if len(r.calls) != 1 {
		t.Errorf("dispatched %d calls, want 1", len(r.calls))
	}
}

func TestInteraction(t *testing.T) {
	s, _, h := newServer()
	h.interaction = slack.NewErrorsViewSubmissionResponse(map[string]string{"reactions_block": "too many"})

	payload := `{"type":"view_submission","view":{"callback_id":"configure-workflow","private_metadata":"{}"}}`
	body := url.Values{"payload": {payload}}.Encode()

	out, err := s.handleRequest(context.Background(), signedRequest(t, "application/x-www-form-urlencoded", body))
	resp := httpResponse(t, out, err)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got slack.ViewSubmissionResponse
	if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatalf("body: %v", err)
	}
	if got.ResponseAction != slack.RAErrors || got.Errors["reactions_block"] != "too many" {
		t.Errorf("response = %+v", got)
	}
	if len(h.interactions) != 1 || h.interactions[0].Type != slack.InteractionTypeViewSubmission {
		t.Errorf("interactions = %+v", h.interactions)
	}
}

func TestScheduledEvent(t *testing.T) {
	s, _, h := newServer()
	event := json.RawMessage(`{"source":"aws.events","detail-type":"Scheduled Event","detail":{}}`)

	if _, err := s.handleRequest(context.Background(), event); err != nil {
		t.Fatalf("handleRequest() error: %v", err)
	}
	if h.maintained != 1 {
		t.Errorf("maintenance runs = %d, want 1", h.maintained)
	}

	h.maintain = &handler.Response{Error: "Maintenance job failed!"}
	if _, err := s.handleRequest(context.Background(), event); err == nil {
		t.Error("handleRequest() should fail when maintenance fails")
	}
}

func TestWarmupEvent(t *testing.T) {
	s, _, _ := newServer()
	inv := &fakeInvoker{}
	s.invoker = inv

	out, err := s.handleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":2}`))
	if err != nil {
		t.Fatalf("handleRequest() error: %v", err)
	}
	body := out.(map[string]any)["body"].(dispatch.WarmupResponse)
	if body.InstancesWarmed != 3 || inv.fanouts != 2 {
		t.Errorf("warmed = %d fanouts = %d, want 3 and 2", body.InstancesWarmed, inv.fanouts)
	}
}

func TestUnknownEvent(t *testing.T) {
	s, _, _ := newServer()

	if _, err := s.handleRequest(context.Background(), json.RawMessage(`{"source":"aws.s3"}`)); err == nil {
		t.Error("handleRequest() should reject unknown events")
	}
}

func TestFlushesSpansAfterEveryInvocation(t *testing.T) {
	s, _, _ := newServer()
	flushes := 0
	s.flush = func(ctx context.Context) error {
		flushes++
		return nil
	}

	events := []json.RawMessage{
		signedRequest(t, "application/json", functionExecuted),
		json.RawMessage(`{"source":"aws.events","detail-type":"Scheduled Event","detail":{}}`),
		json.RawMessage(`{"source":"aws.s3"}`),
	}
	for i, event := range events {
		_, _ = s.handleRequest(context.Background(), event)
		if flushes != i+1 {
			t.Errorf("flushes after invocation %d = %d, want %d", i+1, flushes, i+1)
		}
	}
}
