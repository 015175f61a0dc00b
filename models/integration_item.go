package models

import (
	"encoding/json"
	"time"
)

// ItemTypeContact is the item type assigned to normalized HubSpot contacts.
const ItemTypeContact = "contact"

// IntegrationItem is the vendor-neutral representation of one remote record
// returned by a third-party integration. Exactly one item is produced per
// raw record; no deduplication or merging happens across fetches.
type IntegrationItem struct {
	ID               string             `json:"id"`
	Type             string             `json:"type"`
	Name             string             `json:"name"`
	Email            *string            `json:"email,omitempty"`
	CreationTime     *time.Time         `json:"creation_time,omitempty"`
	LastModifiedTime *time.Time         `json:"last_modified_time,omitempty"`
	Metadata         map[string]*string `json:"metadata"`
	// RawData keeps the provider's record untouched for traceability.
	RawData    json.RawMessage `json:"raw_data"`
	Visibility bool            `json:"visibility"`
}
