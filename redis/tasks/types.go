// Package tasks defines the background tasks the connector processes off
// the request path.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeFetchContacts = "hubspot:fetch_contacts"
)

// Task queues
const (
	QueueDefault = "default"
)

// FetchContactsPayload identifies whose contacts to pull. The credential is
// looked up at processing time, not captured in the payload.
type FetchContactsPayload struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// NewFetchContactsTask creates a contact fetch task for the given user/org.
func NewFetchContactsTask(payload *FetchContactsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fetch contacts payload: %w", err)
	}

	return asynq.NewTask(TypeFetchContacts, data), nil
}
