// Package deployment implements the deployment and rule engine ports
// against the platform's REST API.
package deployment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("deployment base URL is required: %w", domain.ErrInvalidArgument)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("deployment base URL: %w", domain.ErrInvalidArgument)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) IsRunning(deviceID string) (bool, error) {
	resp, err := c.http.Get(c.baseURL + "/deployments/" + url.PathEscape(deviceID) + "/state")
	if err != nil {
		return false, fmt.Errorf("query deployment state for %s: %w", deviceID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return false, fmt.Errorf("deployment %s: %w", deviceID, domain.ErrNotFound)
	case http.StatusOK:
	default:
		return false, fmt.Errorf("deployment state for %s: unexpected status %d", deviceID, resp.StatusCode)
	}

	var state struct {
		Running bool `json:"running"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return false, fmt.Errorf("decode deployment state for %s: %w", deviceID, err)
	}
	return state.Running, nil
}

func (c *Client) Deploy(deviceID string) error {
	return c.post("/deployments/"+url.PathEscape(deviceID), nil, "deploy "+deviceID)
}

func (c *Client) Start(deviceID string, config []domain.ParameterInstance) error {
	body, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode start config for %s: %w", deviceID, err)
	}
	return c.post("/deployments/"+url.PathEscape(deviceID)+"/start", body, "start "+deviceID)
}

func (c *Client) Stop(deviceID string) error {
	return c.post("/deployments/"+url.PathEscape(deviceID)+"/stop", nil, "stop "+deviceID)
}

func (c *Client) EnableRule(ruleID string) error {
	return c.post("/rules/"+url.PathEscape(ruleID)+"/enable", nil, "enable rule "+ruleID)
}

func (c *Client) post(path string, body []byte, op string) error {
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	default:
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
}

var (
	_ ports.DeploymentClient = (*Client)(nil)
	_ ports.RuleClient       = (*Client)(nil)
)
