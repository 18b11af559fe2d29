package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/groqchat/groqchat/internal/model/catalog"
	chatModel "github.com/groqchat/groqchat/internal/model/chat"
	chatservice "github.com/groqchat/groqchat/internal/service/chat"
)

type fakeGateway struct {
	reply string
	err   error
	calls int
}

func (f *fakeGateway) Complete(_ context.Context, transcript []chatModel.Message, _ string) (string, error) {
	f.calls++
	if len(transcript) == 0 {
		return "", errors.New("empty transcript")
	}
	return f.reply, f.err
}

func setupRouter(gateway Completer) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService("")
	store := catalog.NewMemoryStore(catalog.Seed())
	handler := New(chatSvc, gateway, store, "llama-3.1-8b-instant")

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chatModel.Session {
	t.Helper()
	resp := postJSON(r, "/session", map[string]string{})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session chatModel.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestCreateSessionDefaultModel(t *testing.T) {
	r, _ := setupRouter(&fakeGateway{reply: "Hello"})

	session := createSession(t, r)
	if session.Model != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected model: %q", session.Model)
	}
	if session.ID == "" {
		t.Fatal("expected a session ID")
	}
}

func TestCreateSessionUnknownModel(t *testing.T) {
	r, _ := setupRouter(&fakeGateway{reply: "Hello"})

	resp := postJSON(r, "/session", map[string]string{"model": "gpt-17"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatTurnAppendsAssistantReply(t *testing.T) {
	r, chatSvc := setupRouter(&fakeGateway{reply: "Hello"})
	session := createSession(t, r)

	resp := postJSON(r, "/chat", map[string]string{"sessionId": session.ID, "message": "Hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		Response string              `json:"response"`
		History  []chatModel.Message `json:"history"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Response != "Hello" {
		t.Fatalf("unexpected reply: %q", result.Response)
	}
	if len(result.History) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(result.History))
	}
	if result.History[0].Role != chatModel.RoleUser || result.History[0].Content != "Hi" {
		t.Fatalf("unexpected first message: %+v", result.History[0])
	}
	if result.History[1].Role != chatModel.RoleAssistant || result.History[1].Content != "Hello" {
		t.Fatalf("unexpected second message: %+v", result.History[1])
	}

	transcript, err := chatSvc.LoadTranscript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(transcript))
	}
}

func TestChatTurnsAlternateRoles(t *testing.T) {
	r, chatSvc := setupRouter(&fakeGateway{reply: "ack"})
	session := createSession(t, r)

	const turns = 3
	for i := 0; i < turns; i++ {
		resp := postJSON(r, "/chat", map[string]string{
			"sessionId": session.ID,
			"message":   fmt.Sprintf("turn %d", i),
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("turn %d: expected 200, got %d", i, resp.Code)
		}
	}

	transcript, err := chatSvc.LoadTranscript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(transcript))
	}
	for i, msg := range transcript {
		want := chatModel.RoleUser
		if i%2 == 1 {
			want = chatModel.RoleAssistant
		}
		if msg.Role != want {
			t.Fatalf("message %d: expected role %s, got %s", i, want, msg.Role)
		}
	}
}

func TestChatMissingMessage(t *testing.T) {
	r, _ := setupRouter(&fakeGateway{reply: "Hello"})
	session := createSession(t, r)

	resp := postJSON(r, "/chat", map[string]string{"sessionId": session.ID})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatUnknownSession(t *testing.T) {
	gateway := &fakeGateway{reply: "Hello"}
	r, _ := setupRouter(gateway)

	resp := postJSON(r, "/chat", map[string]string{"sessionId": "missing", "message": "Hi"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no provider call, got %d", gateway.calls)
	}
}

func TestChatProviderFailureKeepsUserMessage(t *testing.T) {
	r, chatSvc := setupRouter(&fakeGateway{err: errors.New("upstream 500")})
	session := createSession(t, r)

	resp := postJSON(r, "/chat", map[string]string{"sessionId": session.ID, "message": "Hi"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if result["error"] == "" {
		t.Fatal("expected a failure description")
	}

	transcript, err := chatSvc.LoadTranscript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("expected only the user message, got %d messages", len(transcript))
	}
	if transcript[0].Role != chatModel.RoleUser {
		t.Fatalf("expected user role, got %s", transcript[0].Role)
	}
}

func TestTranscriptEndpoint(t *testing.T) {
	r, _ := setupRouter(&fakeGateway{reply: "Hello"})
	session := createSession(t, r)

	postJSON(r, "/chat", map[string]string{"sessionId": session.ID, "message": "Hi"})

	req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var result struct {
		Messages []chatModel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result.Messages))
	}
}

func TestTranscriptEndpointUnknownSession(t *testing.T) {
	r, _ := setupRouter(&fakeGateway{reply: "Hello"})

	req := httptest.NewRequest(http.MethodGet, "/session/missing/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
