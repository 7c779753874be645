// Package storage talks to the Dropbox-style file provider the studio keeps
// its plan sets in. Only two calls matter to us: walking a folder tree page
// by page, and reading a single file's metadata for staleness checks.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.dropboxapi.com/2"

// Entry is one file or folder in a listing.
type Entry struct {
	Tag            string    `json:".tag"`
	Name           string    `json:"name"`
	PathLower      string    `json:"path_lower"`
	PathDisplay    string    `json:"path_display"`
	Size           int64     `json:"size,omitempty"`
	ServerModified time.Time `json:"server_modified,omitempty"`
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.Tag == "folder"
}

// Page is one page of a folder listing.
type Page struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

// FileMetadata is the subset of file metadata the domain consumes.
type FileMetadata struct {
	Name           string    `json:"name"`
	PathDisplay    string    `json:"path_display"`
	Size           int64     `json:"size"`
	ServerModified time.Time `json:"server_modified"`
}

// Provider is what the domain layer depends on. The concrete Client satisfies
// it; tests substitute a fake.
type Provider interface {
	ListFolder(ctx context.Context, path, cursor string) (*Page, error)
	GetFileMetadata(ctx context.Context, path string) (*FileMetadata, error)
}

// Client is the HTTP implementation of Provider.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a provider client with the given access token.
func NewClient(accessToken string) *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListFolder returns one page of the folder at path. Pass the cursor from a
// previous page to continue; an empty cursor starts from the beginning.
func (c *Client) ListFolder(ctx context.Context, path, cursor string) (*Page, error) {
	var endpoint string
	var body interface{}
	if cursor != "" {
		endpoint = "/files/list_folder/continue"
		body = map[string]string{"cursor": cursor}
	} else {
		endpoint = "/files/list_folder"
		body = map[string]interface{}{"path": path, "limit": 200}
	}

	var page Page
	if err := c.post(ctx, endpoint, body, &page); err != nil {
		return nil, fmt.Errorf("list folder %q: %w", path, err)
	}
	return &page, nil
}

// GetFileMetadata returns size and last-modified for a single file.
func (c *Client) GetFileMetadata(ctx context.Context, path string) (*FileMetadata, error) {
	var meta FileMetadata
	body := map[string]string{"path": path}
	if err := c.post(ctx, "/files/get_metadata", body, &meta); err != nil {
		return nil, fmt.Errorf("get metadata %q: %w", path, err)
	}
	return &meta, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
