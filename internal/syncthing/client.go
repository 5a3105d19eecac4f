package syncthing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/syncbar-io/syncbar/internal/version"
)

const (
	HeaderAPIKey = "X-API-Key"

	DefaultBaseURL     = "http://localhost:8384"
	DefaultPollTimeout = 60 * time.Second

	epSystemStatus      = "/rest/system/status"
	epSystemConfig      = "/rest/system/config"
	epSystemConnections = "/rest/system/connections"
	epDBStatus          = "/rest/db/status"
	epEvents            = "/rest/events"

	// snapshotTimeout bounds each individual bootstrap request. Long polls
	// get their own deadline in Events.
	snapshotTimeout = 10 * time.Second
)

// Config is the connection configuration for a Client.
type Config struct {
	BaseURL string
	// APIKey is the daemon API key, or a path to a file holding it.
	APIKey      string
	PollTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Client talks to a local Syncthing daemon's REST API. It holds no state
// beyond the connection configuration.
type Client struct {
	http        *req.Client
	pollTimeout time.Duration
}

// New creates a Client from config. The API key may be given inline or as a
// path to a secret file, in which case the file content (trimmed) is used.
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := resolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("resolve api key: %w", err)
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}

	client := req.C().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetUserAgent(version.AppName + "/" + version.Version).
		SetCommonHeader(HeaderAPIKey, key).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{
		http:        client,
		pollTimeout: pollTimeout,
	}, nil
}

// PollTimeout is the server-side long-poll window this client requests.
func (c *Client) PollTimeout() time.Duration {
	return c.pollTimeout
}

func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// resolveAPIKey returns the key itself, or the trimmed content of the file
// it points at.
func resolveAPIKey(key string) (string, error) {
	if _, err := os.Stat(key); err != nil {
		return key, nil
	}
	data, err := os.ReadFile(key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Snapshot fetches a full-state bootstrap: local device id, folder and
// device config, live connections, per-folder db status and the current
// event watermark.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	var status systemStatus
	if err := c.get(ctx, epSystemStatus, nil, &status, "system status"); err != nil {
		return nil, err
	}
	if status.MyID == "" {
		return nil, fmt.Errorf("system status: %w: missing myID", ErrMalformed)
	}

	var config systemConfig
	if err := c.get(ctx, epSystemConfig, nil, &config, "system config"); err != nil {
		return nil, err
	}

	var conns systemConnections
	if err := c.get(ctx, epSystemConnections, nil, &conns, "system connections"); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		LocalID: status.MyID,
		At:      time.Now(),
	}

	for _, f := range config.Folders {
		if f.ID == "" {
			return nil, fmt.Errorf("system config: %w: folder without id", ErrMalformed)
		}
		var db DBStatus
		if err := c.get(ctx, epDBStatus, map[string]string{"folder": f.ID}, &db, "db status"); err != nil {
			return nil, err
		}
		snap.Folders = append(snap.Folders, FolderSnapshot{
			ID:        f.ID,
			Label:     f.Label,
			Paused:    f.Paused,
			State:     db.State,
			NeedItems: db.NeedTotalItems,
			NeedBytes: db.NeedBytes,
			Errors:    db.Errors + db.PullErrors,
		})
	}

	for _, d := range config.Devices {
		if d.DeviceID == "" {
			return nil, fmt.Errorf("system config: %w: device without id", ErrMalformed)
		}
		ds := DeviceSnapshot{
			ID:     d.DeviceID,
			Name:   d.Name,
			Paused: d.Paused,
		}
		if ci, ok := conns.Connections[d.DeviceID]; ok {
			ds.Connected = ci.Connected
			ds.Paused = ds.Paused || ci.Paused
			ds.LastSeen = ci.At
		}
		snap.Devices = append(snap.Devices, ds)
	}

	// Watermark: the id of the most recent event, so streaming resumes from
	// "now" and the bootstrap state is not re-applied.
	latest, err := c.latestEventID(ctx)
	if err != nil {
		return nil, err
	}
	snap.EventID = latest

	return snap, nil
}

func (c *Client) latestEventID(ctx context.Context) (int64, error) {
	events, err := c.events(ctx, map[string]string{
		"since":   "0",
		"limit":   "1",
		"timeout": "0",
	}, snapshotTimeout)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	return events[len(events)-1].ID, nil
}

// Events long-polls /rest/events for events after since. An empty slice
// means the server-side window elapsed with nothing new; that is not an
// error. The call is abandoned when ctx is cancelled.
func (c *Client) Events(ctx context.Context, since int64) ([]Event, error) {
	timeoutSecs := int64(c.pollTimeout / time.Second)
	return c.events(ctx, map[string]string{
		"since":   fmt.Sprintf("%d", since),
		"timeout": fmt.Sprintf("%d", timeoutSecs),
	}, c.pollTimeout+snapshotTimeout)
}

func (c *Client) events(ctx context.Context, params map[string]string, grace time.Duration) ([]Event, error) {
	if grace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, grace)
		defer cancel()
	}

	var events []Event
	if err := c.get(ctx, epEvents, params, &events, "events"); err != nil {
		return nil, err
	}
	return events, nil
}

// get issues a GET and decodes the body. Decode failures are Malformed; the
// raw body is never trusted past its status line otherwise.
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any, operation string) error {
	reqCtx := ctx
	if path != epEvents {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, snapshotTimeout)
		defer cancel()
	}

	r := c.http.R().SetContext(reqCtx)
	if params != nil {
		r.SetQueryParams(params)
	}

	resp, err := r.Get(path)
	if err := classify(resp, err, operation); err != nil {
		return err
	}

	body, err := resp.ToBytes()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", operation, ErrUnreachable, err)
	}

	if err := jsonUnmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: %w", operation, ErrMalformed, err)
	}
	return nil
}
