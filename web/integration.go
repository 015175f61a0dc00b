package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/hubspot"
	"github.com/Vector/hubspot-connector/models"
	"github.com/Vector/hubspot-connector/redis/tasks"
)

// Connector is the surface of the HubSpot connector the handlers consume.
type Connector interface {
	AuthorizeURL(userID, orgID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (hubspot.Credential, error)
	GetCredentials(ctx context.Context, userID, orgID string) (hubspot.Credential, error)
	FetchItems(ctx context.Context, cred hubspot.Credential) ([]models.IntegrationItem, error)
}

// TaskEnqueuer schedules background tasks.
type TaskEnqueuer interface {
	EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// IntegrationHandler serves the HubSpot integration endpoints.
type IntegrationHandler struct {
	connector Connector
	queue     TaskEnqueuer
	logger    *zap.Logger
}

// NewIntegrationHandler creates the handler. queue may be nil when no task
// queue is configured; the async fetch endpoint then responds 503.
func NewIntegrationHandler(connector Connector, queue TaskEnqueuer, logger *zap.Logger) *IntegrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntegrationHandler{
		connector: connector,
		queue:     queue,
		logger:    logger,
	}
}

// RegisterRoutes registers the integration routes with the router.
func (h *IntegrationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/integrations/hubspot/authorize", h.handleAuthorize).Methods(http.MethodGet)
	router.HandleFunc("/integrations/hubspot/oauth2callback", h.handleOAuthCallback).Methods(http.MethodGet)
	router.HandleFunc("/integrations/hubspot/credentials", h.handleGetCredentials).Methods(http.MethodGet)
	router.HandleFunc("/integrations/hubspot/items", h.handleListItems).Methods(http.MethodGet)
	router.HandleFunc("/integrations/hubspot/items/fetch", h.handleScheduleFetch).Methods(http.MethodPost)
}

// handleAuthorize returns the HubSpot consent URL for the user/org pair.
func (h *IntegrationHandler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	orgID := r.URL.Query().Get("org_id")

	authURL, err := h.connector.AuthorizeURL(userID, orgID)
	if err != nil {
		h.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.renderJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
}

// handleOAuthCallback receives the provider redirect, exchanges the code and
// responds with the auto-closing confirmation page.
func (h *IntegrationHandler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if _, err := h.connector.HandleCallback(r.Context(), code, state); err != nil {
		h.renderError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(authorizationSuccessPage))
}

func (h *IntegrationHandler) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	orgID := r.URL.Query().Get("org_id")

	if userID == "" || orgID == "" {
		h.renderError(w, http.StatusBadRequest, "user_id and org_id are required")
		return
	}

	cred, err := h.connector.GetCredentials(r.Context(), userID, orgID)
	if err != nil {
		h.renderError(w, statusForError(err), err.Error())
		return
	}

	h.renderJSON(w, http.StatusOK, cred)
}

// handleListItems loads the stored credential and fetches the first page of
// contacts synchronously.
func (h *IntegrationHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	orgID := r.URL.Query().Get("org_id")

	if userID == "" || orgID == "" {
		h.renderError(w, http.StatusBadRequest, "user_id and org_id are required")
		return
	}

	cred, err := h.connector.GetCredentials(r.Context(), userID, orgID)
	if err != nil {
		h.renderError(w, statusForError(err), err.Error())
		return
	}

	items, err := h.connector.FetchItems(r.Context(), cred)
	if err != nil {
		h.renderError(w, statusForError(err), err.Error())
		return
	}

	h.renderJSON(w, http.StatusOK, items)
}

type scheduleFetchRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// handleScheduleFetch enqueues a background contact fetch and returns 202
// with the task id.
func (h *IntegrationHandler) handleScheduleFetch(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		h.renderError(w, http.StatusServiceUnavailable, "task queue is not configured")
		return
	}

	var req scheduleFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.OrgID == "" {
		h.renderError(w, http.StatusBadRequest, "user_id and org_id are required")
		return
	}

	task, err := tasks.NewFetchContactsTask(&tasks.FetchContactsPayload{
		UserID: req.UserID,
		OrgID:  req.OrgID,
	})
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to build task")
		return
	}

	taskID, err := h.queue.EnqueueTask(r.Context(), task, asynq.Queue(tasks.QueueDefault))
	if err != nil {
		h.logger.Error("failed to enqueue fetch task", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "failed to enqueue task")

		return
	}

	h.renderJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *IntegrationHandler) renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError renders the error payload callers pattern-match on.
func (h *IntegrationHandler) renderError(w http.ResponseWriter, code int, message string) {
	h.renderJSON(w, code, map[string]string{"error": message})
}

// statusForError maps the connector error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, hubspot.ErrMissingAuthorizationCode),
		errors.Is(err, hubspot.ErrInvalidState),
		errors.Is(err, hubspot.ErrMissingAccessToken):
		return http.StatusBadRequest
	case errors.Is(err, hubspot.ErrNoCredentials):
		return http.StatusNotFound
	case errors.Is(err, hubspot.ErrTokenExchangeFailed),
		errors.Is(err, hubspot.ErrInvalidProviderResponse),
		errors.Is(err, hubspot.ErrProviderRequestFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
