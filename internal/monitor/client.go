package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/server"
)

// EnvDashboardPassword supplies the dashboard password to CLI clients.
const EnvDashboardPassword = "SERVERMON_DASHBOARD_PASSWORD"

// Client reads telemetry from a dashboard's HTTP API.
type Client struct {
	BaseURL  string
	User     string
	Password string
	HTTP     *http.Client
}

// NewClient returns a client for d using http.DefaultClient.
func NewClient(d Dashboard) *Client {
	return &Client{BaseURL: d.URL, User: d.User, Password: d.Password, HTTP: http.DefaultClient}
}

// History fetches up to limit samples, oldest first. limit <= 0 fetches
// everything the dashboard keeps.
func (c *Client) History(ctx context.Context, limit int) (*server.HistoryResponse, error) {
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/api/stats/history")
	if err != nil || u.Host == "" {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid dashboard URL: "+c.BaseURL,
			"Use a URL like http://host:8080")
	}
	if limit > 0 {
		u.RawQuery = "limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Invalid dashboard URL: "+c.BaseURL, "")
	}
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Password)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrServer,
			"Failed to reach the dashboard at "+c.BaseURL,
			"Is 'servermon serve' running?")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr server.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, errors.New(errors.ErrConfig,
				"Dashboard rejected the credentials",
				"Pass --user and set "+EnvDashboardPassword)
		case http.StatusNotFound:
			return nil, errors.New(errors.ErrServer,
				"Telemetry is disabled on this dashboard",
				"Set telemetry.enabled: true in its config")
		}
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, errors.New(errors.ErrServer, "Dashboard error: "+msg, "")
	}

	var history server.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrServer,
			"Dashboard sent an unreadable response",
			"Check the URL points at a servermon dashboard")
	}
	return &history, nil
}
