package gscript

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	script "google.golang.org/api/script/v1"
)

const (
	// ProjectMimeType is the MIME type for Apps Script projects in Drive.
	ProjectMimeType = "application/vnd.google-apps.script"
)

// Project is a simplified view of an Apps Script project for tool output.
type Project struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Modified string `json:"modified,omitempty"`
	Files    []File `json:"files,omitempty"`
}

// File is one source file inside an Apps Script project.
type File struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source,omitempty"`
}

// Client wraps the Apps Script and Drive API services for one account.
type Client struct {
	scriptService *script.Service
	driveService  *drive.Service
	account       string
}

// NewClient creates an Apps Script client over an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, account string) (*Client, error) {
	scriptService, err := script.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Apps Script service: %w", err)
	}
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Drive service: %w", err)
	}
	return &Client{scriptService: scriptService, driveService: driveService, account: account}, nil
}

// Account returns the account this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// ListProjects returns Apps Script projects visible to the account.
// The Apps Script API has no listing endpoint, so projects are
// discovered through a Drive query on the script MIME type.
func (c *Client) ListProjects(ctx context.Context, nameContains string, maxResults int64) ([]*Project, error) {
	if maxResults <= 0 {
		maxResults = 25
	}

	query := fmt.Sprintf("mimeType = '%s' and trashed = false", ProjectMimeType)
	if nameContains != "" {
		query += fmt.Sprintf(" and name contains '%s'", escapeQuery(nameContains))
	}

	resp, err := c.driveService.Files.List().
		Q(query).
		PageSize(maxResults).
		Fields("files(id, name, modifiedTime)").
		OrderBy("modifiedTime desc").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing script projects: %w", err)
	}

	projects := make([]*Project, 0, len(resp.Files))
	for _, f := range resp.Files {
		projects = append(projects, &Project{ID: f.Id, Title: f.Name, Modified: f.ModifiedTime})
	}
	return projects, nil
}

// GetProject retrieves a project's metadata and source files.
func (c *Client) GetProject(ctx context.Context, scriptID string) (*Project, error) {
	if scriptID == "" {
		return nil, fmt.Errorf("scriptID is required")
	}

	content, err := c.scriptService.Projects.GetContent(scriptID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching script project %s: %w", scriptID, err)
	}
	return fromContent(content), nil
}

// fromContent converts an API content response into the simplified view.
func fromContent(content *script.Content) *Project {
	project := &Project{ID: content.ScriptId}
	for _, f := range content.Files {
		project.Files = append(project.Files, File{
			Name:   f.Name,
			Type:   f.Type,
			Source: f.Source,
		})
	}
	return project
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
