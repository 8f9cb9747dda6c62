package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mnemohq/mnemo/internal/fsrs"
	"github.com/mnemohq/mnemo/internal/storage"
	"github.com/mnemohq/mnemo/internal/syncer"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db        *storage.DB
	router    *http.ServeMux
	scheduler *fsrs.Scheduler
	syncer    *syncer.Syncer
	now       func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, scheduler *fsrs.Scheduler, sync *syncer.Syncer) *Server {
	s := &Server{
		db:        db,
		router:    http.NewServeMux(),
		scheduler: scheduler,
		syncer:    sync,
		now:       time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /api/queue", s.handleGetQueue())
	s.router.HandleFunc("GET /api/cards/{hash}", s.handleGetCard())
	s.router.HandleFunc("GET /api/cards/{hash}/preview", s.handlePreviewCard())
	s.router.HandleFunc("POST /api/cards/{hash}/review", s.handlePostReview())

	s.router.HandleFunc("GET /api/sources", s.handleGetSources())
	s.router.HandleFunc("POST /api/sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /api/sync", s.handlePostSync())
}

// cardResponse is the JSON shape of one card with its scheduling state.
type cardResponse struct {
	Hash           string          `json:"hash"`
	Question       string          `json:"question"`
	Answer         string          `json:"answer"`
	Context        string          `json:"context,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	State          fsrs.State      `json:"state"`
	Due            time.Time       `json:"due"`
	Stability      float64         `json:"stability"`
	Difficulty     float64         `json:"difficulty"`
	Reps           int             `json:"reps"`
	Lapses         int             `json:"lapses"`
	Retrievability float64         `json:"retrievability"`
	Log            *fsrs.ReviewLog `json:"log,omitempty"`
}

func (s *Server) cardResponseFrom(rec storage.CardRecord) cardResponse {
	// Report retrievability as of now, not as of the last review.
	current := rec.Scheduling
	current.ElapsedDays = int64(s.now().Sub(current.LastReview).Hours() / 24)

	return cardResponse{
		Hash:           rec.Hash,
		Question:       rec.Question,
		Answer:         rec.Answer,
		Context:        rec.Context,
		Tags:           rec.Tags,
		State:          rec.Scheduling.State,
		Due:            rec.Scheduling.Due,
		Stability:      rec.Scheduling.Stability,
		Difficulty:     rec.Scheduling.Difficulty,
		Reps:           rec.Scheduling.Reps,
		Lapses:         rec.Scheduling.Lapses,
		Retrievability: current.Retrievability(),
		Log:            rec.Scheduling.Log,
	}
}

// handleGetQueue returns all due cards, most overdue first.
func (s *Server) handleGetQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dueCards, err := s.db.GetDueCards(s.now())
		if err != nil {
			s.internalError(w, "failed to get due cards", err)
			return
		}
		out := make([]cardResponse, 0, len(dueCards))
		for _, rec := range dueCards {
			out = append(out, s.cardResponseFrom(rec))
		}
		s.respondJSON(w, http.StatusOK, map[string]any{
			"due_count": len(out),
			"cards":     out,
		})
	}
}

// handleGetCard returns a single card with its scheduling state and most
// recent review log.
func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.db.FindCardByHash(r.PathValue("hash"))
		if err != nil {
			s.internalError(w, "failed to find card", err)
			return
		}
		if rec == nil {
			http.NotFound(w, r)
			return
		}
		s.respondJSON(w, http.StatusOK, s.cardResponseFrom(*rec))
	}
}

// previewEntry is one hypothetical review outcome.
type previewEntry struct {
	State         fsrs.State `json:"state"`
	Due           time.Time  `json:"due"`
	ScheduledDays int64      `json:"scheduled_days"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
}

// handlePreviewCard returns the four candidate outcomes of reviewing the
// card right now, keyed by rating, so a client can show the reviewer what
// each button would do.
func (s *Server) handlePreviewCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.db.FindCardByHash(r.PathValue("hash"))
		if err != nil {
			s.internalError(w, "failed to find card", err)
			return
		}
		if rec == nil {
			http.NotFound(w, r)
			return
		}

		candidates := s.scheduler.Repeat(rec.Scheduling, s.now())
		preview := make(map[string]previewEntry, len(fsrs.AllRatings))
		for _, rating := range fsrs.AllRatings {
			card, err := candidates.SelectCard(rating)
			if err != nil {
				s.internalError(w, "failed to select candidate", err)
				return
			}
			preview[rating.String()] = previewEntry{
				State:         card.State,
				Due:           card.Due,
				ScheduledDays: card.ScheduledDays,
				Stability:     card.Stability,
				Difficulty:    card.Difficulty,
			}
		}
		s.respondJSON(w, http.StatusOK, preview)
	}
}

// handlePostReview applies a review: schedule the four outcomes, select the
// branch for the submitted rating, and commit it with its log.
func (s *Server) handlePostReview() http.HandlerFunc {
	type request struct {
		Rating fsrs.Rating `json:"rating"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Rating.IsValid() {
			s.respondError(w, http.StatusBadRequest, "invalid rating")
			return
		}

		hash := r.PathValue("hash")
		rec, err := s.db.FindCardByHash(hash)
		if err != nil {
			s.internalError(w, "failed to find card", err)
			return
		}
		if rec == nil {
			http.NotFound(w, r)
			return
		}

		candidates := s.scheduler.Repeat(rec.Scheduling, s.now())
		next, err := candidates.SelectCard(req.Rating)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid rating")
			return
		}

		if err := s.db.UpdateCardScheduling(hash, next); err != nil {
			s.internalError(w, "failed to persist review", err)
			return
		}
		slog.Info("card reviewed",
			"hash", hash,
			"rating", req.Rating.String(),
			"state", next.State.String(),
			"due", next.Due,
		)

		rec.Scheduling = next
		s.respondJSON(w, http.StatusOK, s.cardResponseFrom(*rec))
	}
}

type sourceResponse struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

func sourceResponseFrom(src storage.Source) sourceResponse {
	out := sourceResponse{ID: src.ID, Path: src.Path, Type: src.Type}
	if src.LastScanned.Valid {
		t := src.LastScanned.Time
		out.LastScanned = &t
	}
	return out
}

func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources()
		if err != nil {
			s.internalError(w, "failed to get sources", err)
			return
		}
		out := make([]sourceResponse, 0, len(sources))
		for _, src := range sources {
			out = append(out, sourceResponseFrom(src))
		}
		s.respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handlePostSource() http.HandlerFunc {
	type request struct {
		Path string `json:"path"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
			s.respondError(w, http.StatusBadRequest, "path cannot be empty")
			return
		}

		id, err := s.db.InsertSource(req.Path, syncer.SourceType(req.Path))
		if err != nil {
			s.internalError(w, "failed to insert source", err)
			return
		}
		src, err := s.db.FindSourceByPath(req.Path)
		if err != nil || src == nil {
			s.internalError(w, "failed to load inserted source", err)
			return
		}
		slog.Info("source added", "id", id, "path", req.Path)
		s.respondJSON(w, http.StatusCreated, sourceResponseFrom(*src))
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid source ID")
			return
		}
		if err := s.db.DeleteSource(id); err != nil {
			s.internalError(w, "failed to delete source", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync runs a sync in the foreground and reports the new source
// state when it finishes.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.syncer.Run(r.Context()); err != nil && !errors.Is(err, context.Canceled) {
			s.internalError(w, "sync failed", err)
			return
		}
		s.handleGetSources()(w, r)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	s.respondError(w, http.StatusInternalServerError, "internal server error")
}
