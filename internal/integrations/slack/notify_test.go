package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"

	"catalogtool/internal/integrations/llm"
	"catalogtool/internal/muscles"
)

func newMockSlackAPI(t *testing.T, ok bool) (*Notifier, *[]string) {
	t.Helper()
	var posted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		switch path {
		case "chat.postMessage":
			_ = r.ParseForm()
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
				return
			}
			posted = append(posted, r.Form.Get("channel")+"|"+r.Form.Get("text"))
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C_TOOLS", "ts": "1.23"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	}))
	t.Cleanup(server.Close)
	return NewNotifier("xoxb-test", "C_TOOLS", slack.OptionAPIURL(server.URL+"/api/")), &posted
}

func sampleReport() RunReport {
	return RunReport{
		Summary: muscles.Summary{
			RunID:         "run-42",
			Processed:     3,
			Updated:       1,
			RequestFailed: 1,
			Rejected:      1,
			OutputPath:    "lib/data/seed/exercise_catalog_seed.json",
			Outcomes: []muscles.Outcome{
				{Name: "Seated Row", State: muscles.StateAccepted, Primary: "Back"},
				{Name: "Mystery Move", State: muscles.StateRequestFailed},
				{Name: "Blank Move", State: muscles.StateRejected},
			},
		},
		Provider: "gemini",
		Model:    "gemini-2.5-pro",
		Usage:    llm.LLMUsage{InputTokens: 100, OutputTokens: 20},
	}
}

func TestFormatRunReport(t *testing.T) {
	text := FormatRunReport(sampleReport())
	for _, want := range []string{
		"(gemini / gemini-2.5-pro)",
		"Updated 1 exercises. Wrote lib/data/seed/exercise_catalog_seed.json",
		"request failures 1, rejected 1, tokens 120",
		"Still unlabeled: Mystery Move, Blank Move",
		"Run `run-42`",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Seated Row") {
		t.Fatalf("accepted items must not be listed:\n%s", text)
	}
}

func TestFormatRunReportTruncatesFailures(t *testing.T) {
	r := sampleReport()
	r.Summary.Outcomes = nil
	for i := 0; i < 12; i++ {
		r.Summary.Outcomes = append(r.Summary.Outcomes, muscles.Outcome{Name: "Move", State: muscles.StateRejected})
	}
	r.Usage = llm.LLMUsage{}
	text := FormatRunReport(r)
	if !strings.HasSuffix(strings.Split(text, "\n")[3], ", ...") {
		t.Fatalf("expected truncated failure list:\n%s", text)
	}
	if strings.Contains(text, "tokens") {
		t.Fatalf("zero usage must be omitted:\n%s", text)
	}
}

func TestPostRunReport(t *testing.T) {
	n, posted := newMockSlackAPI(t, true)
	if err := n.PostRunReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("PostRunReport failed: %v", err)
	}
	if len(*posted) != 1 {
		t.Fatalf("expected one message, got %d", len(*posted))
	}
	if !strings.HasPrefix((*posted)[0], "C_TOOLS|*Muscle fill*") {
		t.Fatalf("unexpected message %q", (*posted)[0])
	}
}

func TestPostTextReportsSlackError(t *testing.T) {
	n, _ := newMockSlackAPI(t, false)
	err := n.PostText(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected slack error, got %v", err)
	}
}
