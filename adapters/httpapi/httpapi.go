// Package httpapi exposes a mailbox client as a JSON HTTP API.
//
//	POST /tickets        {"title": "...", "description": "..."} -> 201 {"id": N}
//	GET  /tickets/{id}   -> 200 ticket, 404 when absent
//	GET  /healthz        -> 200 while the worker runs, 503 afterwards
//
// A full queue is answered with 503 and a Retry-After header so clients back
// off instead of piling up; a stopped worker is answered with 503 without one.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/codewandler/ticketbox/core/mailbox"
	"github.com/codewandler/ticketbox/core/ticket"
)

const maxBodyBytes = 64 << 10

type (
	createRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	createResponse struct {
		ID ticket.ID `json:"id"`
	}

	healthResponse struct {
		Status   string `json:"status"`
		WorkerID string `json:"worker_id"`
		QueueLen int    `json:"queue_len"`
		Capacity int    `json:"capacity"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

type Options struct {
	Log *slog.Logger
	// RetryAfterSeconds is sent with 503 responses caused by a full queue.
	// Defaults to 1.
	RetryAfterSeconds int
}

type handler struct {
	client     *mailbox.Client
	log        *slog.Logger
	retryAfter string
}

// New returns an http.Handler serving the ticket API on top of client.
func New(client *mailbox.Client, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.RetryAfterSeconds <= 0 {
		opts.RetryAfterSeconds = 1
	}

	h := &handler{
		client:     client,
		log:        opts.Log.With(slog.String("component", "httpapi")),
		retryAfter: strconv.Itoa(opts.RetryAfterSeconds),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tickets", h.create)
	mux.HandleFunc("GET /tickets/{id}", h.get)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	d, err := ticket.NewDraft(req.Title, req.Description)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := h.client.Insert(d)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/tickets/"+id.String())
	h.writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := ticket.ParseID(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	t, ok, err := h.client.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "ticket " + id.String() + " not found"})
		return
	}

	h.writeJSON(w, http.StatusOK, t)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		WorkerID: h.client.WorkerID(),
		QueueLen: h.client.Len(),
		Capacity: h.client.Capacity(),
	}
	status := http.StatusOK

	select {
	case <-h.client.Done():
		resp.Status = "stopped"
		status = http.StatusServiceUnavailable
	default:
	}

	h.writeJSON(w, status, resp)
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mailbox.ErrQueueFull):
		w.Header().Set("Retry-After", h.retryAfter)
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, mailbox.ErrWorkerGone), errors.Is(err, mailbox.ErrClientClosed):
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("failed to write response", slog.Any("error", err))
	}
}
