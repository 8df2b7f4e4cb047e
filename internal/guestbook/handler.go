package guestbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/2beens/guestbook/internal/middleware"
	"github.com/2beens/guestbook/internal/telemetry/metrics"
	"github.com/2beens/guestbook/internal/telemetry/tracing"
	"github.com/2beens/guestbook/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const sessionCookieName = "guestbook_view"

type EntriesResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

type newEntryRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type Handler struct {
	store    Store
	sessions *Sessions
	metrics  *metrics.Manager
	location *time.Location
}

func NewHandler(
	store Store,
	sessions *Sessions,
	metricsManager *metrics.Manager,
	location *time.Location,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		store:    store,
		sessions: sessions,
		metrics:  metricsManager,
		location: location,
	}
}

// SetupRoutes registers the page and the JSON API. Submissions are rate limited
// when a rate limiter is given.
func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	submitsAllowedPerMin int,
) {
	limited := func(name string, h http.HandlerFunc) http.Handler {
		if rateLimiter == nil || submitsAllowedPerMin <= 0 {
			return h
		}
		return middleware.RateLimit(rateLimiter, name, submitsAllowedPerMin, handler.metrics)(h)
	}

	router.HandleFunc("/", handler.handlePage).Methods("GET").Name("page")
	router.Handle("/", limited("submit", handler.handleSubmit)).Methods("POST").Name("submit")
	router.HandleFunc("/api/entries", handler.handleListEntries).Methods("GET", "OPTIONS").Name("list-entries")
	router.Handle("/api/entries", limited("new-entry", handler.handleNewEntry)).Methods("POST").Name("new-entry")
}

func (handler *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "guestbookHandler.page")
	defer span.End()

	session := handler.session(w, r)
	session.Controller.OnInit(ctx)

	handler.writePage(w, session, http.StatusOK)
}

func (handler *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "guestbookHandler.submit")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		log.Errorf("submit guestbook entry, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	name := r.Form.Get("name")
	message := r.Form.Get("message")
	if name == "" || message == "" {
		http.Error(w, "error, name and message are required", http.StatusBadRequest)
		return
	}

	session := handler.session(w, r)

	// the button is disabled while submitting, don't touch the pending form.
	// A post racing past this check can still overwrite the fields, its
	// values are then dropped by the reset after the pending submit.
	if session.Controller.State().Submitting {
		handler.writePage(w, session, http.StatusConflict)
		return
	}

	_ = session.Controller.UpdateFormField(FieldName, name)
	_ = session.Controller.UpdateFormField(FieldMessage, message)

	err := session.Controller.Submit(ctx)
	switch {
	case err == nil:
		handler.metrics.CounterEntriesCreated.Inc()
		log.Debugf("new guestbook entry from [%s]", name)
	case errors.Is(err, ErrSubmitInProgress):
		handler.writePage(w, session, http.StatusConflict)
		return
	default:
		// already queued as a notification for the view
		log.Errorf("submit guestbook entry: %s", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (handler *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "guestbookHandler.list")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	entries, err := handler.store.ListEntries(ctx)
	if err != nil {
		log.Errorf("list guestbook entries error: %s", err)
		http.Error(w, "failed to get guestbook entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	respJson, err := json.Marshal(EntriesResponse{
		Entries: entries,
		Total:   len(entries),
	})
	if err != nil {
		log.Errorf("marshal guestbook entries error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) handleNewEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "guestbookHandler.new")
	defer span.End()

	var req newEntryRequest
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Errorf("new guestbook entry, unmarshal json params: %s", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("new guestbook entry, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		req = newEntryRequest{
			Name:    r.Form.Get("name"),
			Message: r.Form.Get("message"),
		}
	}

	if req.Name == "" || req.Message == "" {
		http.Error(w, "error, name and message are required", http.StatusBadRequest)
		return
	}

	if err := handler.store.CreateEntry(ctx, req.Name, req.Message); err != nil {
		log.Errorf("store new guestbook entry error: %s", err)
		errJson, _ := json.Marshal(map[string]string{"error": err.Error()})
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, errJson, http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterEntriesCreated.Inc()
	pkg.WriteResponse(w, pkg.ContentType.JSON, `{"created":true}`, http.StatusCreated)
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// session returns the view bound to the request cookie, or starts a new one.
func (handler *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if session, ok := handler.sessions.Get(cookie.Value); ok {
			return session
		}
	}

	session := handler.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	handler.metrics.GaugeActiveSessions.Set(float64(handler.sessions.Count()))

	return session
}

func (handler *Handler) writePage(w http.ResponseWriter, session *Session, statusCode int) {
	view := newPageView(
		session.Controller.State(),
		session.Notifications.Drain(),
		handler.location,
	)

	var buf bytes.Buffer
	if err := renderPage(&buf, view); err != nil {
		log.Errorf("render guestbook page: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.HTML, buf.Bytes(), statusCode)
}
