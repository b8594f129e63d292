package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SaiNageswarS/employee-desk/desk"
	"github.com/SaiNageswarS/employee-desk/observability"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubDesk struct {
	resp        *desk.ChatResponse
	err         error
	got         desk.ChatRequest
	hasDeadline bool
}

func (s *stubDesk) Chat(ctx context.Context, req desk.ChatRequest) (*desk.ChatResponse, error) {
	s.got = req
	_, s.hasDeadline = ctx.Deadline()
	return s.resp, s.err
}

func newTestServer(d ChatHandler) *httptest.Server {
	srv := New(d, observability.NewMetrics("test_httpapi"), 5*time.Second)
	return httptest.NewServer(srv.Router())
}

func TestStatus(t *testing.T) {
	ts := newTestServer(&stubDesk{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("status request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if body["status"] != "healthy" || body["message"] != "Service is running" {
		t.Fatalf("unexpected status body: %+v", body)
	}
}

func TestChat(t *testing.T) {
	stamp := "2025-06-01T09:00:00.000000-04:00"
	by := "API"
	d := &stubDesk{resp: &desk.ChatResponse{
		Data:            desk.ResponseData{Role: "assistant", Content: "You have 20 vacation days.", FollowupQuestions: []string{"a", "b", "c"}},
		ConversationID:  "conv-1",
		Message:         desk.MessageContinuation,
		LastUpdatedDate: &stamp,
		LastUpdatedBy:   &by,
	}}
	ts := newTestServer(d)
	defer ts.Close()

	body := []byte(`{"conversation": {"role": "user", "content": "How many vacation days?"}, "conversation_id": "conv-1", "user_email": "jane@fourthsquare.com"}`)
	res, err := http.Post(ts.URL+"/employeedesk/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got map[string]any
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if got["conversation_id"] != "conv-1" || got["statusCode"] != float64(0) || got["__lastupdatedby"] != "API" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	data, _ := got["data"].(map[string]any)
	if data["content"] != "You have 20 vacation days." {
		t.Fatalf("unexpected data: %+v", data)
	}

	if d.got.ConversationID != "conv-1" || d.got.UserEmail != "jane@fourthsquare.com" {
		t.Fatalf("request not forwarded: %+v", d.got)
	}
	if !d.hasDeadline {
		t.Fatalf("chat context has no deadline")
	}
}

func TestChatErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "malformed json", body: `{"conversation": `, want: http.StatusBadRequest},
		{name: "empty body", body: ``, want: http.StatusBadRequest},
		{name: "invalid conversation", body: `{"conversation": "hi"}`, err: status.Error(codes.InvalidArgument, "Conversation is not of type: Dict"), want: http.StatusBadRequest},
		{name: "unexpected", body: `{"conversation": {"role": "user", "content": "hi"}}`, err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(&stubDesk{err: tc.err})
			defer ts.Close()

			res, err := http.Post(ts.URL+"/employeedesk/chat", "application/json", bytes.NewReader([]byte(tc.body)))
			if err != nil {
				t.Fatalf("chat request error = %v", err)
			}
			defer res.Body.Close()
			if res.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tc.want)
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	ts := newTestServer(&stubDesk{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
