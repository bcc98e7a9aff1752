package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
	"github.com/qq8244353/lineWorkflowBridge/pkg/wftask"
)

const testSecret = "channel-secret"

type fakeInvoker struct {
	requests []wftask.Request
	result   *wftask.Result
	err      error
}

func (f *fakeInvoker) Invoke(_ context.Context, req wftask.Request) (*wftask.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReplier struct {
	replies []*msgtask.Response
	status  int
	err     error
}

func (f *fakeReplier) Reply(_ context.Context, reqStruct *msgtask.Response) (int, error) {
	f.replies = append(f.replies, reqStruct)
	return f.status, f.err
}

func outputResult(output string) *wftask.Result {
	return &wftask.Result{Data: wftask.ResultData{Outputs: map[string]any{"output": output}}}
}

func newTestHandler(inv *fakeInvoker, rep *fakeReplier) *Handler {
	return NewHandler(Config{
		ChannelSecret: testSecret,
		AppID:         "app-1",
		DefaultUser:   "line-bridge",
		Invoker:       inv,
		Replier:       rep,
		NewID:         func() string { return "delivery-1" },
	})
}

func userTextBody(text string) []byte {
	return []byte(fmt.Sprintf(`{"destination":"Ubot","events":[{"type":"message","mode":"active","replyToken":"reply-1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":%q}}]}`, text))
}

func TestHandleRepliesWithWorkflowOutput(t *testing.T) {
	inv := &fakeInvoker{result: &wftask.Result{Data: wftask.ResultData{
		Outputs: map[string]any{"output": "hello"},
	}}}
	rep := &fakeReplier{status: 200}
	h := newTestHandler(inv, rep)

	body := userTextBody("hi there")
	out := h.Handle(context.Background(), body, msgtask.Sign(body, testSecret))

	if out.Rejected {
		t.Fatalf("expected delivery to be accepted")
	}
	if out.DeliveryID != "delivery-1" {
		t.Fatalf("unexpected delivery id %q", out.DeliveryID)
	}
	if len(inv.requests) != 1 {
		t.Fatalf("expected one workflow call, got %d", len(inv.requests))
	}
	if got := inv.requests[0]; got.AppID != "app-1" || got.MessageText != "hi there" || got.User != "U1" {
		t.Fatalf("unexpected workflow request %+v", got)
	}
	if len(rep.replies) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(rep.replies))
	}
	reply := rep.replies[0]
	if reply.ReplyToken != "reply-1" || len(reply.Messages) != 1 || reply.Messages[0].Text != "hello" || reply.NotificationDisabled {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if out.Events != 1 || out.Replied != 1 || len(out.Failures) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestHandleSilentReplies(t *testing.T) {
	inv := &fakeInvoker{result: outputResult("quiet")}
	rep := &fakeReplier{status: 200}
	h := NewHandler(Config{
		ChannelSecret:        testSecret,
		AppID:                "app-1",
		Invoker:              inv,
		Replier:              rep,
		NotificationDisabled: true,
	})

	body := userTextBody("hi")
	h.Handle(context.Background(), body, msgtask.Sign(body, testSecret))
	if len(rep.replies) != 1 || !rep.replies[0].NotificationDisabled {
		t.Fatalf("expected a reply with notifications disabled, got %+v", rep.replies)
	}
}

func TestHandleRejectsBadSignatureWithoutOutboundCalls(t *testing.T) {
	body := userTextBody("hi")
	signatures := []string{"", "bogus", msgtask.Sign(body, "wrong-secret"), msgtask.Sign([]byte("other"), testSecret)}
	for _, sig := range signatures {
		inv := &fakeInvoker{result: outputResult("hello")}
		rep := &fakeReplier{status: 200}
		out := newTestHandler(inv, rep).Handle(context.Background(), body, sig)
		if !out.Rejected {
			t.Fatalf("expected rejection for signature %q", sig)
		}
		if len(inv.requests) != 0 || len(rep.replies) != 0 {
			t.Fatalf("expected zero outbound calls for signature %q", sig)
		}
	}
}

func TestHandleEmptyOutputSuppressesReply(t *testing.T) {
	results := []*wftask.Result{
		outputResult(""),
		{Data: wftask.ResultData{Outputs: map[string]any{}}},
		{Data: wftask.ResultData{}},
	}
	for i, result := range results {
		inv := &fakeInvoker{result: result}
		rep := &fakeReplier{status: 200}
		body := userTextBody("hi")
		out := newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))
		if len(inv.requests) != 1 {
			t.Fatalf("case %d: expected workflow to be invoked", i)
		}
		if len(rep.replies) != 0 {
			t.Fatalf("case %d: expected no reply, got %d", i, len(rep.replies))
		}
		if out.Skipped != 1 {
			t.Fatalf("case %d: expected skipped event, got %+v", i, out)
		}
	}
}

func TestHandleGroupRequiresSelfMention(t *testing.T) {
	body := []byte(`{"events":[
		{"type":"message","replyToken":"r1","source":{"type":"group","groupId":"C1","userId":"U1"},"message":{"type":"text","text":"no mention"}},
		{"type":"message","replyToken":"r2","source":{"type":"group","groupId":"C1","userId":"U1"},"message":{"type":"text","text":"@other hi","mention":{"mentionees":[{"index":0,"length":6,"isSelf":false}]}}},
		{"type":"message","replyToken":"r3","source":{"type":"room","roomId":"R1"},"message":{"type":"text","text":"@bot hi","mention":{"mentionees":[{"index":0,"length":4,"isSelf":true}]}}}
	]}`)
	inv := &fakeInvoker{result: outputResult("answer")}
	rep := &fakeReplier{status: 200}
	out := newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))

	if len(inv.requests) != 1 || inv.requests[0].MessageText != "@bot hi" {
		t.Fatalf("expected only the mentioned event to reach the workflow, got %+v", inv.requests)
	}
	if inv.requests[0].User != "line-bridge" {
		t.Fatalf("expected default user for event without user id, got %q", inv.requests[0].User)
	}
	if len(rep.replies) != 1 || rep.replies[0].ReplyToken != "r3" {
		t.Fatalf("expected one reply to r3, got %+v", rep.replies)
	}
	if out.Events != 3 || out.Replied != 1 || out.Skipped != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestHandleSkipsNonTextAndStandby(t *testing.T) {
	body := []byte(`{"events":[
		{"type":"follow","replyToken":"r0","source":{"type":"user","userId":"U1"}},
		{"type":"message","replyToken":"r1","source":{"type":"user","userId":"U1"},"message":{"type":"image","id":"1"}},
		{"type":"message","mode":"standby","replyToken":"r2","source":{"type":"user","userId":"U1"},"message":{"type":"text","text":"hi"}}
	]}`)
	inv := &fakeInvoker{result: outputResult("answer")}
	rep := &fakeReplier{status: 200}
	out := newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))

	if len(inv.requests) != 0 || len(rep.replies) != 0 {
		t.Fatalf("expected no outbound calls")
	}
	if out.Skipped != 3 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestHandleMalformedPayloadIsSkipped(t *testing.T) {
	for _, body := range [][]byte{[]byte(`{"events":`), []byte(`not json`), []byte(`{"events":"nope"}`)} {
		inv := &fakeInvoker{result: outputResult("answer")}
		rep := &fakeReplier{status: 200}
		out := newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))
		if out.Rejected {
			t.Fatalf("malformed payload is not an authentication failure")
		}
		if out.Events != 0 || len(out.Failures) != 1 {
			t.Fatalf("unexpected outcome %+v", out)
		}
		if len(inv.requests) != 0 || len(rep.replies) != 0 {
			t.Fatalf("expected no outbound calls")
		}
	}
}

func TestHandleContinuesAfterDownstreamFailure(t *testing.T) {
	body := []byte(`{"events":[
		{"type":"message","replyToken":"r1","source":{"type":"user","userId":"U1"},"message":{"type":"text","text":"one"}},
		{"type":"message","replyToken":"r2","source":{"type":"user","userId":"U2"},"message":{"type":"text","text":"two"}}
	]}`)
	inv := &fakeInvoker{result: outputResult("answer")}
	rep := &fakeReplier{status: 400, err: errors.New("invalid reply token")}
	out := newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))

	if len(rep.replies) != 2 {
		t.Fatalf("expected both events to be attempted once, got %d", len(rep.replies))
	}
	if len(out.Failures) != 2 || out.Replied != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	inv = &fakeInvoker{err: errors.New("engine down")}
	rep = &fakeReplier{status: 200}
	out = newTestHandler(inv, rep).Handle(context.Background(), body, msgtask.Sign(body, testSecret))
	if len(inv.requests) != 2 || len(rep.replies) != 0 {
		t.Fatalf("expected two workflow attempts and no replies")
	}
	if len(out.Failures) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
