package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mnemohq/mnemo/internal/deck"
	"github.com/mnemohq/mnemo/internal/fsrs"
	"github.com/mnemohq/mnemo/internal/storage"
	"github.com/mnemohq/mnemo/internal/syncer"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	scheduler, err := fsrs.NewScheduler(fsrs.DefaultParameters())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s := NewServer(db, scheduler, syncer.New(db, filepath.Join(dir, "repos")))
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s, db
}

func seedCard(t *testing.T, db *storage.DB, question string, due time.Time) deck.Card {
	t.Helper()
	card := deck.Card{Question: question, Answer: "an answer", Tags: []string{"go"}}
	card.Hash = deck.HashCard(card)

	sourceID, err := db.InsertSource(t.TempDir(), "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	scheduling := fsrs.NewCard()
	scheduling.Due = due
	scheduling.LastReview = due
	if err := db.InsertCard(card, scheduling, sourceID); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}
	return card
}

func doJSON(t *testing.T, s *Server, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return rec
}

func TestGetQueue(t *testing.T) {
	s, db := newTestServer(t)
	now := s.now()

	overdue := seedCard(t, db, "overdue", now.Add(-48*time.Hour))
	seedCard(t, db, "just due", now.Add(-time.Minute))
	seedCard(t, db, "future", now.Add(72*time.Hour))

	var resp struct {
		DueCount int            `json:"due_count"`
		Cards    []cardResponse `json:"cards"`
	}
	rec := doJSON(t, s, http.MethodGet, "/api/queue", "", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.DueCount != 2 || len(resp.Cards) != 2 {
		t.Fatalf("due_count = %d with %d cards, want 2", resp.DueCount, len(resp.Cards))
	}
	if resp.Cards[0].Hash != overdue.Hash {
		t.Errorf("most overdue card should come first, got %q", resp.Cards[0].Question)
	}
	if resp.Cards[0].State != fsrs.New {
		t.Errorf("state = %v, want New", resp.Cards[0].State)
	}
	if resp.Cards[0].Retrievability != 0 {
		t.Errorf("unreviewed retrievability = %v, want 0", resp.Cards[0].Retrievability)
	}
}

func TestGetCard(t *testing.T) {
	s, db := newTestServer(t)
	card := seedCard(t, db, "What is a mutex?", s.now())

	var resp cardResponse
	rec := doJSON(t, s, http.MethodGet, "/api/cards/"+card.Hash, "", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Hash != card.Hash || resp.Question != card.Question || resp.Answer != card.Answer {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Tags) != 1 || resp.Tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", resp.Tags)
	}
}

func TestGetCardMissing(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/cards/no-such-hash", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPreviewCard(t *testing.T) {
	s, db := newTestServer(t)
	card := seedCard(t, db, "What is a goroutine?", s.now())

	var preview map[string]previewEntry
	rec := doJSON(t, s, http.MethodGet, "/api/cards/"+card.Hash+"/preview", "", &preview)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(preview) != 4 {
		t.Fatalf("preview has %d entries, want 4: %v", len(preview), preview)
	}
	for _, rating := range fsrs.AllRatings {
		if _, ok := preview[rating.String()]; !ok {
			t.Errorf("missing preview entry for %v", rating)
		}
	}
	if preview["Easy"].State != fsrs.Review {
		t.Errorf("Easy state = %v, want Review", preview["Easy"].State)
	}
	if preview["Good"].State != fsrs.Learning {
		t.Errorf("Good state = %v, want Learning", preview["Good"].State)
	}
	if !preview["Easy"].Due.After(preview["Good"].Due) {
		t.Errorf("Easy due %v should be after Good due %v", preview["Easy"].Due, preview["Good"].Due)
	}

	// Previewing must not commit anything.
	rec2, err := db.FindCardByHash(card.Hash)
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if rec2.Scheduling.Reps != 0 || rec2.Scheduling.State != fsrs.New {
		t.Errorf("preview mutated stored card: %+v", rec2.Scheduling)
	}
}

func TestPostReview(t *testing.T) {
	s, db := newTestServer(t)
	card := seedCard(t, db, "What is a slice?", s.now())

	var resp cardResponse
	rec := doJSON(t, s, http.MethodPost, "/api/cards/"+card.Hash+"/review", `{"rating":"Good"}`, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if resp.State != fsrs.Learning {
		t.Errorf("state = %v, want Learning after first Good", resp.State)
	}
	if resp.Reps != 1 {
		t.Errorf("reps = %d, want 1", resp.Reps)
	}
	if resp.Log == nil || resp.Log.Rating != fsrs.Good || resp.Log.State != fsrs.New {
		t.Errorf("log = %+v", resp.Log)
	}

	stored, err := db.FindCardByHash(card.Hash)
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if stored.Scheduling.State != fsrs.Learning || stored.Scheduling.Reps != 1 {
		t.Errorf("review not persisted: %+v", stored.Scheduling)
	}
	if stored.Scheduling.Log == nil || stored.Scheduling.Log.Rating != fsrs.Good {
		t.Errorf("stored log = %+v", stored.Scheduling.Log)
	}
}

func TestPostReviewRejectsBadInput(t *testing.T) {
	s, db := newTestServer(t)
	card := seedCard(t, db, "What is an array?", s.now())

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown rating", "/api/cards/" + card.Hash + "/review", `{"rating":"Amazing"}`, http.StatusBadRequest},
		{"missing rating", "/api/cards/" + card.Hash + "/review", `{}`, http.StatusBadRequest},
		{"malformed body", "/api/cards/" + card.Hash + "/review", `{`, http.StatusBadRequest},
		{"missing card", "/api/cards/no-such-hash/review", `{"rating":"Good"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSourceEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	var created sourceResponse
	rec := doJSON(t, s, http.MethodPost, "/api/sources", `{"path":"https://example.com/cards.git"}`, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if created.Type != "git" || created.Path != "https://example.com/cards.git" {
		t.Errorf("created source = %+v", created)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/sources", `{"path":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty path status = %d, want 400", rec.Code)
	}

	var sources []sourceResponse
	rec = doJSON(t, s, http.MethodGet, "/api/sources", "", &sources)
	if rec.Code != http.StatusOK || len(sources) != 1 {
		t.Fatalf("listing = %d with %d sources, want 200 with 1", rec.Code, len(sources))
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/sources/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/sources/"+itoa(created.ID), "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/sources", "", &sources)
	if rec.Code != http.StatusOK || len(sources) != 0 {
		t.Errorf("listing after delete = %d with %d sources, want 200 with 0", rec.Code, len(sources))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestPostSyncImportsLocalSource(t *testing.T) {
	s, db := newTestServer(t)

	deckDir := t.TempDir()
	content := "Q: What does go vet do?\nA: Reports likely mistakes in Go code.\n"
	if err := os.WriteFile(filepath.Join(deckDir, "go.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing deck file: %v", err)
	}
	if _, err := db.InsertSource(deckDir, "local"); err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	var sources []sourceResponse
	rec := doJSON(t, s, http.MethodPost, "/api/sync", "", &sources)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(sources) != 1 || sources[0].LastScanned == nil {
		t.Fatalf("sources = %+v, want one scanned source", sources)
	}

	// Imported cards are due immediately, stamped with the wall clock.
	due, err := db.GetDueCards(time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due count after sync = %d, want 1", len(due))
	}
	if due[0].Question != "What does go vet do?" {
		t.Errorf("imported question = %q", due[0].Question)
	}
}
