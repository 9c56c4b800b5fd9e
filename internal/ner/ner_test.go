package ner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAPI serves the two OpenAI endpoints the recognizer uses.
type fakeAPI struct {
	answer      string
	modelsCode  int
	chatCode    int
	modelsCalls atomic.Int32
	chatCalls   atomic.Int32

	mu         sync.Mutex
	lastPrompt string
}

func (f *fakeAPI) prompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			f.modelsCalls.Add(1)
			if f.modelsCode != 0 && f.modelsCode != http.StatusOK {
				w.WriteHeader(f.modelsCode)
				_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
				return
			}
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model","created":0,"owned_by":"test"}]}`))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			f.chatCalls.Add(1)
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if n := len(req.Messages); n > 0 {
				f.mu.Lock()
				f.lastPrompt = req.Messages[n-1].Content
				f.mu.Unlock()
			}
			if f.chatCode != 0 && f.chatCode != http.StatusOK {
				w.WriteHeader(f.chatCode)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
				return
			}
			body, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 0,
				"model":   "test-model",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": f.answer},
				}},
			})
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    []Entity
		wantErr bool
	}{
		{
			name:   "known labels kept",
			answer: `{"entities":[{"text":"Ram Kumar","label":"PERSON"},{"text":"Kondagaon","label":"gpe"}]}`,
			want:   []Entity{{Text: "Ram Kumar", Label: LabelPerson}, {Text: "Kondagaon", Label: LabelGPE}},
		},
		{
			name:   "unknown labels dropped",
			answer: `{"entities":[{"text":"2024","label":"DATE"},{"text":"Bastar","label":"LOC"}]}`,
			want:   []Entity{{Text: "Bastar", Label: LabelLoc}},
		},
		{
			name:   "empty",
			answer: `{"entities":[]}`,
			want:   []Entity{},
		},
		{
			name:    "missing entities",
			answer:  `{"people":["Ram"]}`,
			wantErr: true,
		},
		{
			name:    "wrong item type",
			answer:  `{"entities":[{"text":5,"label":"PERSON"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			answer:  `Ram Kumar is a PERSON`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEntities([]byte(tt.answer))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEntities failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entities, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entity %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenAIRecognizer_Entities(t *testing.T) {
	api := &fakeAPI{answer: `{"entities":[{"text":"Sita Devi","label":"PERSON"}]}`}
	srv := api.server(t)

	rec := NewOpenAIRecognizer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "test-model", Timeout: 5 * time.Second})
	got, err := rec.Entities(context.Background(), "Claim by Sita Devi")
	if err != nil {
		t.Fatalf("Entities failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "Sita Devi" || got[0].Label != LabelPerson {
		t.Errorf("entities: got %+v", got)
	}
	if got := api.prompt(); got != "Claim by Sita Devi" {
		t.Errorf("user message: got %q", got)
	}
}

func TestOpenAIRecognizer_APIError(t *testing.T) {
	api := &fakeAPI{chatCode: http.StatusInternalServerError}
	srv := api.server(t)

	rec := NewOpenAIRecognizer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if _, err := rec.Entities(context.Background(), "text"); err == nil {
		t.Fatal("expected error from failing API")
	}
}

func TestOpenAIRecognizer_TruncatesInput(t *testing.T) {
	api := &fakeAPI{answer: `{"entities":[]}`}
	srv := api.server(t)

	rec := NewOpenAIRecognizer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if _, err := rec.Entities(context.Background(), strings.Repeat("a", maxInputRunes+100)); err != nil {
		t.Fatalf("Entities failed: %v", err)
	}
	if got := len(api.prompt()); got != maxInputRunes {
		t.Errorf("prompt length: got %d, want %d", got, maxInputRunes)
	}
}

func TestHandle_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Provider: "none"}},
		{"empty provider", Config{}},
		{"unknown provider", Config{Provider: "spacy"}},
		{"missing key", Config{Provider: "openai"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewHandle(tt.cfg, nil).Recognizer(context.Background())
			if rec.Available() {
				t.Fatal("recognizer should be unavailable")
			}
			if _, err := rec.Entities(context.Background(), "Ram Kumar"); !errors.Is(err, ErrModelUnavailable) {
				t.Errorf("Entities error: got %v, want ErrModelUnavailable", err)
			}
		})
	}
}

func TestHandle_ProbeFailureIsPermanent(t *testing.T) {
	api := &fakeAPI{modelsCode: http.StatusUnauthorized}
	srv := api.server(t)

	h := NewHandle(Config{Provider: "openai", APIKey: "bad", BaseURL: srv.URL + "/v1", Model: "test-model"}, nil)
	first := h.Recognizer(context.Background())
	second := h.Recognizer(context.Background())

	if first.Available() || second.Available() {
		t.Fatal("recognizer should be unavailable after a failed probe")
	}
	if n := api.modelsCalls.Load(); n != 1 {
		t.Errorf("probe calls: got %d, want 1", n)
	}
}

func TestHandle_ProbeSuccess(t *testing.T) {
	api := &fakeAPI{answer: `{"entities":[]}`}
	srv := api.server(t)

	h := NewHandle(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL + "/v1", Model: "test-model"}, nil)
	rec := h.Recognizer(context.Background())
	if !rec.Available() {
		t.Fatal("recognizer should be available")
	}
	if rec.Name() != "openai" {
		t.Errorf("Name: got %q, want openai", rec.Name())
	}
}

func TestHandle_SkipProbe(t *testing.T) {
	h := NewHandle(Config{Provider: "openai", APIKey: "k", BaseURL: "http://127.0.0.1:1/v1", Model: "m", SkipProbe: true}, nil)
	if !h.Recognizer(context.Background()).Available() {
		t.Error("SkipProbe should select the model without contacting it")
	}
}
