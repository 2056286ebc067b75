package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"voxllm/internal/cache"
	"voxllm/internal/config"
	"voxllm/internal/documents"
	"voxllm/internal/llm"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/prompt"
	"voxllm/internal/repository"
	"voxllm/internal/service"
	"voxllm/internal/transport/ws"
)

type stubLLM struct{ pingErr error }

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.Prompt, "Convert the following position statement"):
		return `{"grounds":[{"title":"Unfair process","reasons":["[childName] was not heard."]}]}`, nil
	case strings.Contains(req.Prompt, "Draft the grounds section"):
		return "Ground 1: Unfair process\n1. [childName] was not heard.", nil
	}
	return "analysis text", nil
}

func (s *stubLLM) Ping(context.Context) (llm.Status, error) {
	if s.pingErr != nil {
		return llm.Status{}, s.pingErr
	}
	return llm.Status{Provider: "ollama", Model: "test", Reachable: true}, nil
}

type stubCompiler struct{}

func (stubCompiler) Compile(context.Context, string, map[string][]byte) ([]byte, error) {
	return []byte("%PDF-1.5 stub"), nil
}

type testServer struct {
	*httptest.Server
	auth *service.AuthService
	llm  *stubLLM
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	auth, err := service.NewAuthService([]byte("router-secret"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sessions := cache.NewMemorySessionCache(time.Hour)
	stats := cache.NewMemoryStatsCache()
	archive := repository.NewNoopCaseRepo()
	stub := &stubLLM{}

	analysis := service.NewAnalysisService(stub, prompt.Default(), documents.NewLoader("../../../documents"), log)
	interviewSvc := service.NewInterviewService(sessions, archive, stats, analysis, auth, log)
	docs, err := service.NewDocumentService(stubCompiler{}, sessions, archive, stats, config.LaTeXConfig{}, log)
	if err != nil {
		t.Fatal(err)
	}
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)
	interviewSvc.SetBroadcaster(hub)

	srv := httptest.NewServer(NewRouter(&Container{
		AuthService:      auth,
		InterviewService: interviewSvc,
		AnalysisService:  analysis,
		DocumentService:  docs,
		Stats:            stats,
		WSHub:            hub,
		AllowOrigins:     []string{"https://app.example"},
		Log:              log,
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: auth, llm: stub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) start(t *testing.T) model.StartCaseResponse {
	t.Helper()
	resp := s.do(t, "POST", "/v1/cases", "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var out model.StartCaseResponse
	decode(t, resp, &out)
	return out
}

func answer(q *model.Question) interface{} {
	switch q.Kind {
	case model.InputBool:
		return "yes"
	case model.InputSelect:
		if q.AllowOther {
			return "A pastoral worker at school"
		}
		return q.Options[len(q.Options)-1]
	}
	return "details for " + string(q.Field)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, "GET", "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestCaseRoutesRequireMatchingToken(t *testing.T) {
	s := newTestServer(t)
	c := s.start(t)
	path := "/v1/cases/" + c.SessionID

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"other case", mustToken(t, s.auth, "other"), http.StatusForbidden},
		{"own case", c.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, "GET", path, tt.token, nil)
			if resp.StatusCode != tt.want {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	// The query param works too.
	resp := s.do(t, "GET", path+"/next?token="+c.Token, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query token status %d", resp.StatusCode)
	}
}

func mustToken(t *testing.T, auth *service.AuthService, id string) string {
	t.Helper()
	token, err := auth.GenerateSessionToken(id)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestSubmitAnswerErrors(t *testing.T) {
	s := newTestServer(t)
	c := s.start(t)
	path := "/v1/cases/" + c.SessionID + "/answers"

	resp := s.do(t, "POST", path, c.Token, map[string]interface{}{"field": "existsExclusionLetter", "value": "maybe"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]interface{}
	decode(t, resp, &body)
	if body["error"] == "" || body["error"] == nil {
		t.Fatalf("body = %v", body)
	}

	resp = s.do(t, "POST", path, c.Token, map[string]interface{}{"field": "isSend", "value": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("not askable status %d", resp.StatusCode)
	}

	resp = s.do(t, "POST", path, c.Token, map[string]interface{}{"value": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing field status %d", resp.StatusCode)
	}

	resp = s.do(t, "POST", "/v1/cases/"+c.SessionID+"/phases/bogus", c.Token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus phase status %d", resp.StatusCode)
	}
}

func TestNegativeGateOverHTTP(t *testing.T) {
	s := newTestServer(t)
	c := s.start(t)
	base := "/v1/cases/" + c.SessionID

	resp := s.do(t, "POST", base+"/answers", c.Token, map[string]interface{}{"field": "existsExclusionLetter", "value": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var next model.Action
	decode(t, resp, &next)
	if next.Kind != model.ActionDone || next.Reason != model.DoneTerminated {
		t.Fatalf("next = %+v", next)
	}

	resp = s.do(t, "POST", base+"/phases/analysis", c.Token, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("phase status %d", resp.StatusCode)
	}

	resp = s.do(t, "POST", base+"/restart", c.Token, nil)
	decode(t, resp, &next)
	if next.Kind != model.ActionAsk || next.Question.Field != model.FieldExistsExclusionLetter {
		t.Fatalf("after restart = %+v", next)
	}
}

func TestCloseCaseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	c := s.start(t)
	path := "/v1/cases/" + c.SessionID

	if resp := s.do(t, "DELETE", path, mustToken(t, s.auth, "other"), nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other token status %d", resp.StatusCode)
	}
	if resp := s.do(t, "DELETE", path, c.Token, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close status %d", resp.StatusCode)
	}
	if resp := s.do(t, "GET", path, c.Token, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after close status %d", resp.StatusCode)
	}
	if resp := s.do(t, "DELETE", path, c.Token, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second close status %d", resp.StatusCode)
	}
}

func TestFullCaseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	c := s.start(t)
	base := "/v1/cases/" + c.SessionID

	next := c.Next
	for i := 0; next.Kind != model.ActionDone; i++ {
		if i > 100 {
			t.Fatal("interview did not finish")
		}
		var resp *http.Response
		switch next.Kind {
		case model.ActionAsk:
			resp = s.do(t, "POST", base+"/answers", c.Token, map[string]interface{}{
				"field": next.Question.Field,
				"value": answer(next.Question),
			})
		case model.ActionRunPhase:
			resp = s.do(t, "POST", base+"/phases/"+string(next.Phase), c.Token, nil)
		}
		if resp.StatusCode != http.StatusOK {
			var body map[string]interface{}
			json.NewDecoder(resp.Body).Decode(&body)
			t.Fatalf("step %d (%+v): status %d %v", i, next, resp.StatusCode, body)
		}
		next = model.Action{}
		decode(t, resp, &next)
	}
	if next.Reason != model.DoneReady {
		t.Fatalf("final = %+v", next)
	}

	resp := s.do(t, "GET", base, c.Token, nil)
	var view model.CaseView
	decode(t, resp, &view)
	if !view.Session.Record.IsIRP() {
		t.Fatalf("expected the panel path, stage = %v", view.Session.Record[model.FieldStage])
	}
	if !view.Session.Record.IsSet(model.FieldGovernorProcedureInfo) {
		t.Fatal("panel question was not asked")
	}

	resp = s.do(t, "POST", base+"/pdf", c.Token, nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status %d type %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp = s.do(t, "GET", "/v1/stats", "", nil)
	var stats map[string]int64
	decode(t, resp, &stats)
	if stats["pdf:completed"] != 1 || stats["summary:completed"] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestStatelessPDF(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "POST", "/v1/documents/pdf", "", map[string]interface{}{
		"case":    map[string]string{"childName": "Sam"},
		"grounds": map[string]interface{}{"grounds": []interface{}{map[string]interface{}{"title": "A", "reasons": []string{"x"}}}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	resp = s.do(t, "POST", "/v1/documents/pdf", "", map[string]interface{}{"case": map[string]string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing grounds status %d", resp.StatusCode)
	}
}

func TestLLMStatus(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, "GET", "/v1/llm/status", "", nil)
	var st llm.Status
	decode(t, resp, &st)
	if !st.Reachable || st.Model != "test" {
		t.Fatalf("status = %+v", st)
	}

	s.llm.pingErr = errors.New("connection refused")
	resp = s.do(t, "GET", "/v1/llm/status", "", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req, _ := http.NewRequest("OPTIONS", s.URL+"/v1/cases/abc/answers", nil)
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}

	req, _ = http.NewRequest("OPTIONS", s.URL+"/v1/cases", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
