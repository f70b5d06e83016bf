package fleetapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/autopeer-io/celdash/pkg/log"
)

const (
	rpcPath    = "/apiv1"
	thisServer = "ThisServer"
)

// Client talks JSON-RPC to the fleet API. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client

	mu     sync.Mutex
	server string
	creds  *Credentials

	// signIn collapses concurrent sign-ins into one Authenticate call.
	signIn singleflight.Group
}

// NewClient creates a Client. No network call is made until the first request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Server == "" {
		return nil, errors.New("fleet api server is required")
	}
	if cfg.Database == "" || cfg.Username == "" {
		return nil, errors.New("fleet api database and username are required")
	}
	if cfg.Password == "" && cfg.SessionID == "" {
		return nil, errors.New("fleet api password or session id is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	c := &Client{cfg: cfg, http: hc, server: cfg.Server}
	if cfg.SessionID != "" {
		c.creds = &Credentials{Database: cfg.Database, UserName: cfg.Username, SessionID: cfg.SessionID}
	}
	return c, nil
}

// Authenticate signs in with the configured password and caches the session.
// When the response names another server, later calls are sent there.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.Password == "" {
		return ErrInvalidCredentials
	}

	c.mu.Lock()
	server := c.server
	c.mu.Unlock()

	res, err := c.post(ctx, server, "Authenticate", map[string]any{
		"database": c.cfg.Database,
		"userName": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		if IsInvalidUser(err) {
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	creds := &Credentials{
		Database:  res.Get("credentials.database").String(),
		UserName:  res.Get("credentials.userName").String(),
		SessionID: res.Get("credentials.sessionId").String(),
	}
	if creds.SessionID == "" {
		return fmt.Errorf("%w: no session id in response", ErrInvalidCredentials)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
	if path := res.Get("path").String(); path != "" && path != thisServer {
		c.server = path
	}
	log.Info("Authenticated with fleet api", "server", c.server, "database", creds.Database)
	return nil
}

// Get issues a single call and returns the result records.
func (c *Client) Get(ctx context.Context, call Call) ([]gjson.Result, error) {
	res, err := c.invoke(ctx, "Get", call.params())
	if err != nil {
		return nil, err
	}
	return res.Array(), nil
}

// MultiCall issues calls as one batch. Results keep the order of calls; the
// batch succeeds or fails as a whole.
func (c *Client) MultiCall(ctx context.Context, calls []Call) ([][]gjson.Result, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	batch := make([]rpcRequest, 0, len(calls))
	for _, call := range calls {
		batch = append(batch, rpcRequest{Method: "Get", Params: call.params()})
	}

	res, err := c.invoke(ctx, "ExecuteMultiCall", map[string]any{"calls": batch})
	if err != nil {
		return nil, err
	}

	results := res.Array()
	if len(results) != len(calls) {
		return nil, fmt.Errorf("multi call returned %d results for %d calls", len(results), len(calls))
	}
	out := make([][]gjson.Result, len(results))
	for i, r := range results {
		out[i] = r.Array()
	}
	return out, nil
}

// invoke attaches credentials and re-authenticates once if the session was rejected.
func (c *Client) invoke(ctx context.Context, method string, params map[string]any) (gjson.Result, error) {
	for attempt := 0; ; attempt++ {
		creds, server, err := c.session(ctx)
		if err != nil {
			return gjson.Result{}, err
		}
		params["credentials"] = creds

		res, err := c.post(ctx, server, method, params)
		if err == nil {
			return res, nil
		}
		if !IsInvalidUser(err) || attempt > 0 || c.cfg.Password == "" {
			return gjson.Result{}, err
		}

		log.Warn("Fleet api session rejected, re-authenticating", "method", method)
		c.mu.Lock()
		c.creds = nil
		c.mu.Unlock()
	}
}

func (c *Client) session(ctx context.Context) (*Credentials, string, error) {
	c.mu.Lock()
	creds, server := c.creds, c.server
	c.mu.Unlock()
	if creds != nil {
		return creds, server, nil
	}

	_, err, _ := c.signIn.Do("authenticate", func() (any, error) {
		c.mu.Lock()
		signedIn := c.creds != nil
		c.mu.Unlock()
		if signedIn {
			return nil, nil
		}
		return nil, c.Authenticate(ctx)
	})
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds, c.server, nil
}

func (c *Client) post(ctx context.Context, server, method string, params any) (gjson.Result, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	err := requests.URL(baseURL(server)).
		Path(rpcPath).
		Client(c.http).
		BodyJSON(rpcRequest{Method: method, Params: params}).
		ToBytesBuffer(&buf).
		Post().
		Fetch(ctx)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to call %s: %w", method, err)
	}

	body := buf.Bytes()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("failed to call %s: response is not valid json", method)
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		name := e.Get("errors.0.name").String()
		if name == "" {
			name = e.Get("name").String()
		}
		return gjson.Result{}, &RemoteError{Name: name, Message: e.Get("message").String()}
	}
	return gjson.GetBytes(body, "result"), nil
}

func baseURL(server string) string {
	if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
		return strings.TrimSuffix(server, "/")
	}
	return "https://" + strings.TrimSuffix(server, "/")
}
