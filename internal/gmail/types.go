package gmail

// Message is a simplified view of a Gmail message for tool output.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Date     string `json:"date,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Body     string `json:"body,omitempty"`
}
