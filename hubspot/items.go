package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/models"
)

const (
	contactsPath = "/crm/v3/objects/contacts"
	pageLimit    = "100"
)

// contactProperties is the fixed set of fields requested for every contact.
var contactProperties = []string{
	"email", "firstname", "lastname", "phone",
	"company", "website", "address", "city",
	"state", "country", "createdate", "lastmodifieddate",
	"jobtitle", "lifecyclestage", "lead_status",
	"mobilephone", "industry",
}

type contactRecord struct {
	ID         string             `json:"id"`
	Properties map[string]*string `json:"properties"`
}

type contactList struct {
	Results []json.RawMessage `json:"results"`
}

// FetchItems retrieves the first page of contacts (at most 100, archived
// excluded) and normalizes each record into one integration item, preserving
// the provider's order. Any failure aborts the whole call; there are no
// partial results, no retries, and no further pages.
func (c *Connector) FetchItems(ctx context.Context, cred Credential) ([]models.IntegrationItem, error) {
	token := cred.AccessToken()
	if token == "" {
		return nil, ErrMissingAccessToken
	}

	body, err := c.listContacts(ctx, token)
	if err != nil {
		return nil, err
	}

	var list contactList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: decode contact list: %v", ErrUnexpectedFetch, err)
	}

	items := make([]models.IntegrationItem, 0, len(list.Results))

	for _, raw := range list.Results {
		var rec contactRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode contact record: %v", ErrUnexpectedFetch, err)
		}

		items = append(items, c.itemFromContact(raw, rec))
	}

	c.logger.Info("retrieved contacts from hubspot", zap.Int("count", len(items)))

	return items, nil
}

func (c *Connector) listContacts(ctx context.Context, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+contactsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnexpectedFetch, err)
	}

	q := req.URL.Query()
	for _, p := range contactProperties {
		q.Add("properties", p)
	}

	q.Set("limit", pageLimit)
	q.Set("archived", "false")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: requestTimeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnexpectedFetch, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("hubspot api error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)

		return nil, fmt.Errorf("%w: %s", ErrProviderRequestFailed, body)
	}

	return body, nil
}

func (c *Connector) itemFromContact(raw json.RawMessage, rec contactRecord) models.IntegrationItem {
	props := rec.Properties

	company := "No Company"
	if v := props["company"]; v != nil && *v != "" {
		company = *v
	}

	description := "Contact at " + company
	hubspotID := rec.ID

	metadata := map[string]*string{
		"hubspot_id":      &hubspotID,
		"created_at":      props["createdate"],
		"updated_at":      props["lastmodifieddate"],
		"company":         props["company"],
		"website":         props["website"],
		"address":         props["address"],
		"city":            props["city"],
		"state":           props["state"],
		"country":         props["country"],
		"phone":           props["phone"],
		"mobile_phone":    props["mobilephone"],
		"job_title":       props["jobtitle"],
		"industry":        props["industry"],
		"lifecycle_stage": props["lifecyclestage"],
		"lead_status":     props["lead_status"],
		"description":     &description,
	}

	name := strings.TrimSpace(deref(props["firstname"]) + " " + deref(props["lastname"]))

	return models.IntegrationItem{
		ID:               rec.ID,
		Type:             models.ItemTypeContact,
		Name:             name,
		Email:            props["email"],
		CreationTime:     c.parseTimestamp(props["createdate"]),
		LastModifiedTime: c.parseTimestamp(props["lastmodifieddate"]),
		Metadata:         metadata,
		RawData:          raw,
		Visibility:       true,
	}
}

// parseTimestamp normalizes a trailing "Z" to an explicit UTC offset and
// parses the value as RFC 3339. A field that fails to parse yields nil and
// never aborts the record; parsing of the other timestamp is independent.
func (c *Connector) parseTimestamp(v *string) *time.Time {
	if v == nil || *v == "" {
		return nil
	}

	s := *v
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}

	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		c.logger.Debug("skipping malformed contact timestamp",
			zap.String("value", *v),
			zap.Error(err),
		)

		return nil
	}

	return &ts
}

func deref(v *string) string {
	if v == nil {
		return ""
	}

	return *v
}
