package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/hubspot"
	"github.com/Vector/hubspot-connector/models"
)

// ContactsFetcher is the slice of the connector the task handler needs.
type ContactsFetcher interface {
	GetCredentials(ctx context.Context, userID, orgID string) (hubspot.Credential, error)
	FetchItems(ctx context.Context, cred hubspot.Credential) ([]models.IntegrationItem, error)
}

// Handler processes background connector tasks.
type Handler struct {
	fetcher     ContactsFetcher
	logger      *zap.Logger
	dataFolder  string
	taskTimeout time.Duration
}

// HandlerOption is a function that configures a Handler
type HandlerOption func(*Handler)

// WithDataFolder sets the folder fetched contact documents are written to.
func WithDataFolder(folder string) HandlerOption {
	return func(h *Handler) {
		h.dataFolder = folder
	}
}

// WithTaskTimeout sets the timeout for task processing
func WithTaskTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.taskTimeout = timeout
	}
}

// NewHandler creates a task handler backed by the given connector.
func NewHandler(fetcher ContactsFetcher, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		fetcher:     fetcher,
		logger:      logger,
		dataFolder:  "data",
		taskTimeout: 2 * time.Minute,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewServeMux returns an asynq mux with all task handlers registered.
func (h *Handler) NewServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeFetchContacts, h.processFetchContactsTask)

	return mux
}

// processFetchContactsTask loads the stored credential for the payload's
// user/org, fetches the first page of contacts and writes the normalized
// items as a JSON document into the data folder.
func (h *Handler) processFetchContactsTask(ctx context.Context, task *asynq.Task) error {
	var payload FetchContactsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal fetch contacts payload: %w", err)
	}

	if payload.UserID == "" || payload.OrgID == "" {
		return fmt.Errorf("user_id and org_id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, h.taskTimeout)
	defer cancel()

	cred, err := h.fetcher.GetCredentials(ctx, payload.UserID, payload.OrgID)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	items, err := h.fetcher.FetchItems(ctx, cred)
	if err != nil {
		return fmt.Errorf("failed to fetch contacts: %w", err)
	}

	outpath := filepath.Join(h.dataFolder, payload.UserID+"_"+payload.OrgID+"_contacts.json")

	outfile, err := os.Create(outpath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outfile.Close()

	enc := json.NewEncoder(outfile)
	enc.SetIndent("", "  ")

	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to write contacts: %w", err)
	}

	h.logger.Info("fetched contacts",
		zap.String("user_id", payload.UserID),
		zap.String("org_id", payload.OrgID),
		zap.Int("count", len(items)),
		zap.String("output", outpath),
	)

	return nil
}
