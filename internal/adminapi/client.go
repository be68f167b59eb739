// Package adminapi is a thin JSON client for the portal REST API, used by
// the terminal admin UI.
package adminapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	token   string
}

type ClientOptions struct {
	Addr    string
	Timeout time.Duration
}

func NewClient(opt ClientOptions) (*Client, error) {
	if opt.Addr == "" {
		return nil, errors.New("addr is required")
	}
	u, err := url.Parse(opt.Addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		return nil, errors.New("invalid addr")
	}
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{baseURL: u, hc: &http.Client{Timeout: timeout}}, nil
}

// User mirrors the API's account shape.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Job mirrors the API's campaign shape, owner embedded.
type Job struct {
	ID           string `json:"id"`
	Month        string `json:"month"`
	Year         int    `json:"year"`
	CampaignName string `json:"campaignName"`
	Status       string `json:"status"`
	FileCount    int    `json:"fileCount"`
	User         *User  `json:"user"`
}

// Credential mirrors the API's SFTP credential shape.
type Credential struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
	LastUsed *int64 `json:"lastUsed"`
	User     *User  `json:"user"`
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(email, password string) (*User, error) {
	req := map[string]string{"email": email, "password": password}
	var resp struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	if err := c.doJSON("POST", "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

func (c *Client) ListJobs() ([]Job, error) {
	var jobs []Job
	if err := c.doJSON("GET", "/api/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// SetJobStatus moves a campaign along the workflow.
func (c *Client) SetJobStatus(id, status string) error {
	return c.doJSON("PATCH", "/api/jobs/"+id, map[string]string{"status": status}, nil)
}

func (c *Client) ListCredentials() ([]Credential, error) {
	var creds []Credential
	if err := c.doJSON("GET", "/api/sftp/credentials", nil, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (c *Client) SetCredentialActive(id string, active bool) error {
	return c.doJSON("PATCH", "/api/sftp/credentials/"+id, map[string]bool{"active": active}, nil)
}

func (c *Client) SetCredentialPassword(id, password string) error {
	return c.doJSON("PATCH", "/api/sftp/credentials/"+id, map[string]string{"password": password}, nil)
}

func (c *Client) doJSON(method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	}
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequest(method, u.String(), buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&er)
		if er.Error != "" {
			return errors.New(er.Error)
		}
		return errors.New(resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
