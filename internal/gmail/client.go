package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
}

// NewClient creates a Gmail client over an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, account string) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, account: account}, nil
}

// Account returns the account this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// ListMessages returns messages matching a Gmail search query.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int64) ([]*Message, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	resp, err := c.svc.Messages.List("me").Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]*Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := c.svc.Messages.Get("me", ref.Id).Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetching message %s: %w", ref.Id, err)
		}
		messages = append(messages, fromAPIMessage(msg, false))
	}
	return messages, nil
}

// GetMessage returns the full content of one message.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	msg, err := c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return fromAPIMessage(msg, true), nil
}

// SendMessage sends a plain-text email and returns the sent message ID.
func (c *Client) SendMessage(ctx context.Context, to, subject, body string) (string, error) {
	var raw strings.Builder
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	raw.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw.String())),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}
	return sent.Id, nil
}

// fromAPIMessage converts a Gmail API message into the simplified view.
func fromAPIMessage(msg *gmail.Message, includeBody bool) *Message {
	out := &Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			out.From = h.Value
		case "To":
			out.To = h.Value
		case "Subject":
			out.Subject = h.Value
		case "Date":
			out.Date = h.Value
		}
	}

	if includeBody {
		out.Body = extractTextBody(msg.Payload)
	}
	return out
}

// extractTextBody walks the MIME tree for the first text/plain part.
func extractTextBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(data)
	}
	for _, sub := range part.Parts {
		if body := extractTextBody(sub); body != "" {
			return body
		}
	}
	return ""
}
