package fleetapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidCredentials is returned when the server rejects both the cached
// session and a fresh authentication.
var ErrInvalidCredentials = errors.New("invalid fleet api credentials")

// Config holds the settings for creating a Client.
type Config struct {
	// Server is a host name ("my.geotab.com") or a base URL with scheme.
	Server   string
	Database string
	Username string
	Password string

	// SessionID, when set, is used until the server rejects it.
	SessionID string

	// Timeout bounds a single round trip. Zero disables it.
	Timeout time.Duration

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// Credentials identify an authenticated session.
type Credentials struct {
	Database  string `json:"database"`
	UserName  string `json:"userName"`
	SessionID string `json:"sessionId"`
}

// Call is a single "Get" request for one entity type.
type Call struct {
	TypeName     string
	Search       any
	ResultsLimit int
}

func (c Call) params() map[string]any {
	p := map[string]any{"typeName": c.TypeName}
	if c.Search != nil {
		p["search"] = c.Search
	}
	if c.ResultsLimit > 0 {
		p["resultsLimit"] = c.ResultsLimit
	}
	return p
}

// RemoteError is a JSON-RPC error returned by the server.
type RemoteError struct {
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("fleet api error: %s", e.Message)
	}
	return fmt.Sprintf("fleet api error %s: %s", e.Name, e.Message)
}

// IsInvalidUser reports whether err means the session is no longer accepted.
func IsInvalidUser(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Name == "InvalidUserException"
}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}
