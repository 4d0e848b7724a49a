// ABOUTME: Tests for the operator API over httptest
// ABOUTME: Pause/resume flows, conversation lookup and auth enforcement

package operator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbita-hq/leadgate/internal/auth"
	"github.com/orbita-hq/leadgate/internal/capability"
	"github.com/orbita-hq/leadgate/internal/estimate"
	"github.com/orbita-hq/leadgate/internal/intent"
	"github.com/orbita-hq/leadgate/internal/memory"
	"github.com/orbita-hq/leadgate/internal/orchestrator"
	"github.com/orbita-hq/leadgate/internal/session"
)

type apiFixture struct {
	srv      *httptest.Server
	gate     *session.Gate
	mem      *memory.Memory
	verifier *auth.JWTVerifier
	token    string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	gate := session.NewGate(nil, nil)
	mem := memory.New(memory.Options{})
	t.Cleanup(mem.Close)

	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	token, err := verifier.Generate("operator:ana", time.Hour)
	require.NoError(t, err)

	api := NewAPI(gate, mem, newTestOrchestrator(gate, mem), nil)
	srv := httptest.NewServer(api.Handler(verifier))
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, gate: gate, mem: mem, verifier: verifier, token: token}
}

// stubClassifier always routes to conversacional with high confidence.
type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, message, contextSummary string) intent.Decision {
	return intent.Decision{Capability: intent.CapabilityConversacional, Confidence: 0.9}
}

// echoCapability replies with a fixed text.
type echoCapability struct{}

func (echoCapability) Name() string { return intent.CapabilityConversacional }

func (echoCapability) Respond(ctx context.Context, req *capability.Request) (string, error) {
	return "**Hola**, ¿en qué puedo ayudarte?", nil
}

func newTestOrchestrator(gate *session.Gate, mem *memory.Memory) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Gate:       gate,
		Memory:     mem,
		Classifier: stubClassifier{},
		Registry:   capability.NewRegistry(echoCapability{}),
		Engine:     estimate.NewEngine("USD"),
	})
}

func (f *apiFixture) do(t *testing.T, method, path string, authed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPauseAndResume(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/operator/sessions/tg:12345/pause", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pauseResp struct {
		ExternalID string `json:"external_id"`
		State      string `json:"state"`
		PausedBy   string `json:"paused_by"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pauseResp))
	assert.Equal(t, "tg:12345", pauseResp.ExternalID)
	assert.Equal(t, session.StatePaused, pauseResp.State)
	assert.Equal(t, "operator:ana", pauseResp.PausedBy)
	assert.True(t, f.gate.IsPaused("tg:12345"))

	// Pausing again is idempotent, not an error.
	resp = f.do(t, http.MethodPost, "/operator/sessions/tg:12345/pause", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/operator/sessions/tg:12345/resume", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, f.gate.IsPaused("tg:12345"))
}

func TestConversationLookup(t *testing.T) {
	f := newAPIFixture(t)
	f.mem.Append("tg:12345", memory.Turn{Role: memory.RoleUser, Content: "hola"})
	f.mem.Append("tg:12345", memory.Turn{Role: memory.RoleAssistant, Content: "¡hola!", Capability: "conversacional"})

	resp := f.do(t, http.MethodGet, "/operator/conversations/tg:12345", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var convResp struct {
		ConversationID string `json:"conversation_id"`
		Turns          []struct {
			Role       string `json:"role"`
			Content    string `json:"content"`
			Capability string `json:"capability"`
		} `json:"turns"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&convResp))
	assert.Equal(t, "tg:12345", convResp.ConversationID)
	require.Len(t, convResp.Turns, 2)
	assert.Equal(t, "hola", convResp.Turns[0].Content)
	assert.Equal(t, "conversacional", convResp.Turns[1].Capability)
}

func TestConversationLookup_Unknown(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/operator/conversations/tg:nobody", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var convResp struct {
		Turns []json.RawMessage `json:"turns"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&convResp))
	assert.Empty(t, convResp.Turns)
}

func TestMessageIngest(t *testing.T) {
	f := newAPIFixture(t)

	body, err := json.Marshal(map[string]string{
		"external_id": "tg:12345",
		"message":     "hola, ¿qué tal?",
		"sender_name": "Ana",
		"origin":      "telegram",
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/messages", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgResp struct {
		Silent     bool    `json:"silent"`
		Capability string  `json:"capability"`
		Confidence float64 `json:"confidence"`
		Reply      struct {
			Text string `json:"text"`
			Mode string `json:"mode"`
		} `json:"reply"`
		Fallback struct {
			Text string `json:"text"`
			Mode string `json:"mode"`
		} `json:"fallback"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgResp))

	assert.False(t, msgResp.Silent)
	assert.Equal(t, "conversacional", msgResp.Capability)
	assert.Contains(t, msgResp.Reply.Text, "<strong>Hola</strong>")
	assert.Equal(t, "html", msgResp.Reply.Mode)
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", msgResp.Fallback.Text)
	assert.Equal(t, "plain", msgResp.Fallback.Mode)

	// The exchange is visible through the conversation lookup.
	turns := f.mem.RecentTurns("tg:12345", 10)
	assert.Len(t, turns, 2)
}

func TestMessageIngest_PausedSessionIsSilent(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.gate.Pause(context.Background(), "tg:12345", "operator:ana"))

	body, _ := json.Marshal(map[string]string{
		"external_id": "tg:12345",
		"message":     "¿sigues ahí?",
	})
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/messages", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgResp struct {
		Silent bool            `json:"silent"`
		Reply  json.RawMessage `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgResp))
	assert.True(t, msgResp.Silent)
	assert.Nil(t, msgResp.Reply)

	// Inbound turn was still recorded.
	assert.Len(t, f.mem.RecentTurns("tg:12345", 10), 1)
}

func TestMessageIngest_BadBody(t *testing.T) {
	f := newAPIFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/messages", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOperatorRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/operator/sessions/tg:12345/pause"},
		{http.MethodPost, "/operator/sessions/tg:12345/resume"},
		{http.MethodGet, "/operator/conversations/tg:12345"},
		{http.MethodPost, "/messages"},
	}
	for _, p := range paths {
		resp := f.do(t, p.method, p.path, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, p.path)
	}
}
