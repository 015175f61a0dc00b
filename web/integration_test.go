package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vector/hubspot-connector/hubspot"
	"github.com/Vector/hubspot-connector/models"
)

type fakeConnector struct {
	authorizeURL string
	authorizeErr error
	callbackErr  error
	credentials  hubspot.Credential
	credErr      error
	items        []models.IntegrationItem
	itemsErr     error

	gotCode  string
	gotState string
}

func (f *fakeConnector) AuthorizeURL(userID, orgID string) (string, error) {
	return f.authorizeURL, f.authorizeErr
}

func (f *fakeConnector) HandleCallback(_ context.Context, code, state string) (hubspot.Credential, error) {
	f.gotCode = code
	f.gotState = state

	return f.credentials, f.callbackErr
}

func (f *fakeConnector) GetCredentials(_ context.Context, _, _ string) (hubspot.Credential, error) {
	return f.credentials, f.credErr
}

func (f *fakeConnector) FetchItems(_ context.Context, _ hubspot.Credential) ([]models.IntegrationItem, error) {
	return f.items, f.itemsErr
}

type fakeQueue struct {
	taskID   string
	err      error
	enqueued []*asynq.Task
}

func (f *fakeQueue) EnqueueTask(_ context.Context, task *asynq.Task, _ ...asynq.Option) (string, error) {
	f.enqueued = append(f.enqueued, task)

	return f.taskID, f.err
}

func newTestRouter(connector Connector, queue TaskEnqueuer) *mux.Router {
	router := mux.NewRouter()
	NewIntegrationHandler(connector, queue, nil).RegisterRoutes(router)

	return router
}

func doRequest(t *testing.T, router *mux.Router, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	return got
}

func TestHandleAuthorize(t *testing.T) {
	t.Run("returns the authorization url", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{authorizeURL: "https://app.hubspot.com/oauth/authorize?x=1"}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/authorize?user_id=u&org_id=o", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://app.hubspot.com/oauth/authorize?x=1", decodeBody(t, rec)["authorization_url"])
	})

	t.Run("invalid ids", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{authorizeErr: assert.AnError}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/authorize?user_id=&org_id=o", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	})
}

func TestHandleOAuthCallback(t *testing.T) {
	t.Run("success renders the confirmation page", func(t *testing.T) {
		conn := &fakeConnector{credentials: hubspot.Credential{"access_token": "tok123"}}
		router := newTestRouter(conn, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/oauth2callback?code=c1&state=u_o", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "Authorization Successful!")
		assert.Equal(t, "c1", conn.gotCode)
		assert.Equal(t, "u_o", conn.gotState)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing code", hubspot.ErrMissingAuthorizationCode, http.StatusBadRequest},
		{"invalid state", hubspot.ErrInvalidState, http.StatusBadRequest},
		{"exchange failed", hubspot.ErrTokenExchangeFailed, http.StatusBadGateway},
		{"invalid provider response", hubspot.ErrInvalidProviderResponse, http.StatusBadGateway},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeConnector{callbackErr: tt.err}, nil)

			rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/oauth2callback?code=c&state=s", nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestHandleGetCredentials(t *testing.T) {
	t.Run("returns the stored credential", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{
			credentials: hubspot.Credential{"access_token": "tok123", "expires_in": float64(600)},
		}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/credentials?user_id=u&org_id=o", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "tok123", got["access_token"])
	})

	t.Run("missing params", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/credentials?user_id=u", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not authorized yet", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{credErr: hubspot.ErrNoCredentials}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/credentials?user_id=u&org_id=o", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListItems(t *testing.T) {
	t.Run("returns normalized items", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{
			credentials: hubspot.Credential{"access_token": "tok123"},
			items: []models.IntegrationItem{
				{ID: "1", Type: models.ItemTypeContact, Name: "Jane Doe", Visibility: true},
			},
		}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/items?user_id=u&org_id=o", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var items []models.IntegrationItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, "Jane Doe", items[0].Name)
	})

	t.Run("provider failure", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{
			credentials: hubspot.Credential{"access_token": "tok123"},
			itemsErr:    hubspot.ErrProviderRequestFailed,
		}, nil)

		rec := doRequest(t, router, http.MethodGet, "/integrations/hubspot/items?user_id=u&org_id=o", nil)

		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandleScheduleFetch(t *testing.T) {
	t.Run("enqueues and returns the task id", func(t *testing.T) {
		queue := &fakeQueue{taskID: "task-1"}
		router := newTestRouter(&fakeConnector{}, queue)

		body := []byte(`{"user_id":"u","org_id":"o"}`)
		rec := doRequest(t, router, http.MethodPost, "/integrations/hubspot/items/fetch", body)

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "task-1", decodeBody(t, rec)["task_id"])

		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, "hubspot:fetch_contacts", queue.enqueued[0].Type())
		assert.True(t, strings.Contains(string(queue.enqueued[0].Payload()), `"user_id":"u"`))
	})

	t.Run("missing queue", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{}, nil)

		rec := doRequest(t, router, http.MethodPost, "/integrations/hubspot/items/fetch", []byte(`{"user_id":"u","org_id":"o"}`))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{}, &fakeQueue{})

		rec := doRequest(t, router, http.MethodPost, "/integrations/hubspot/items/fetch", []byte("nope"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing ids", func(t *testing.T) {
		router := newTestRouter(&fakeConnector{}, &fakeQueue{})

		rec := doRequest(t, router, http.MethodPost, "/integrations/hubspot/items/fetch", []byte(`{"user_id":"u"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
