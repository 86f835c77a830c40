package gdocs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// DocumentMimeType is the MIME type for Google Docs files in Drive.
	DocumentMimeType = "application/vnd.google-apps.document"
)

// Document is a simplified view of a Google Doc for tool output.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Modified string `json:"modified,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Client wraps the Google Docs and Drive API services for one account.
type Client struct {
	docsService  *docs.Service
	driveService *drive.Service
	account      string
}

// NewClient creates a Docs client over an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, account string) (*Client, error) {
	docsService, err := docs.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Docs service: %w", err)
	}
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Drive service: %w", err)
	}
	return &Client{docsService: docsService, driveService: driveService, account: account}, nil
}

// Account returns the account this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// GetDocument retrieves a document and renders its body as plain text.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("documentID is required")
	}

	doc, err := c.docsService.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}

	return &Document{
		ID:      doc.DocumentId,
		Title:   doc.Title,
		Content: documentText(doc),
	}, nil
}

// ListDocuments returns Google Docs files visible to the account,
// optionally filtered by a name substring.
func (c *Client) ListDocuments(ctx context.Context, nameContains string, maxResults int64) ([]*Document, error) {
	if maxResults <= 0 {
		maxResults = 25
	}

	query := fmt.Sprintf("mimeType = '%s' and trashed = false", DocumentMimeType)
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
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	out := make([]*Document, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, &Document{ID: f.Id, Title: f.Name, Modified: f.ModifiedTime})
	}
	return out, nil
}

// escapeQuery escapes single quotes and backslashes for a Drive query literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// documentText renders a document body as plain text, one paragraph per line.
// Tabbed documents are flattened in tab order.
func documentText(doc *docs.Document) string {
	var text strings.Builder
	if len(doc.Tabs) > 0 {
		for _, tab := range doc.Tabs {
			writeTabText(&text, tab)
		}
	} else if doc.Body != nil {
		writeBodyText(&text, doc.Body.Content)
	}
	return text.String()
}

func writeTabText(text *strings.Builder, tab *docs.Tab) {
	if tab.DocumentTab != nil && tab.DocumentTab.Body != nil {
		writeBodyText(text, tab.DocumentTab.Body.Content)
	}
	for _, child := range tab.ChildTabs {
		writeTabText(text, child)
	}
}

func writeBodyText(text *strings.Builder, content []*docs.StructuralElement) {
	for _, element := range content {
		switch {
		case element.Paragraph != nil:
			for _, pe := range element.Paragraph.Elements {
				if pe.TextRun != nil {
					text.WriteString(pe.TextRun.Content)
				}
			}
		case element.Table != nil:
			for _, row := range element.Table.TableRows {
				for _, cell := range row.TableCells {
					writeBodyText(text, cell.Content)
				}
			}
		case element.TableOfContents != nil:
			writeBodyText(text, element.TableOfContents.Content)
		}
	}
}
