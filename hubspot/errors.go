package hubspot

import "errors"

// Every operation in this package recovers failures at its own boundary and
// returns one of these values (possibly wrapped with detail). Nothing here
// retries; re-authorization is up to the caller.
var (
	ErrMissingAuthorizationCode = errors.New("authorization code not found")
	ErrInvalidState             = errors.New("invalid state parameter")
	ErrTokenExchangeFailed      = errors.New("failed to retrieve access token")
	ErrInvalidProviderResponse  = errors.New("invalid response from hubspot")
	ErrNoCredentials            = errors.New("no valid credentials found, please authorize hubspot")
	ErrCorruptCredentials       = errors.New("stored hubspot credentials are not valid json")
	ErrMissingAccessToken       = errors.New("access token is missing")
	ErrProviderRequestFailed    = errors.New("hubspot api request failed")
	ErrUnexpectedFetch          = errors.New("unexpected error fetching hubspot contacts")
)
