package google

// DefaultOAuthScopes are the Google OAuth scopes requested during
// authorization. They cover the services the server exposes tools for:
//   - Gmail: read, modify, send
//   - Google Docs: read-only (plus Drive read-only for discovery)
//   - Apps Script: project read access
//
// The OpenID Connect scopes are required to resolve the authenticated
// account's email, which keys the credential record.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Gmail scopes
	"https://mail.google.com/",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/gmail.send",

	// Google Docs scope
	"https://www.googleapis.com/auth/documents.readonly",

	// Google Drive scope (doc discovery)
	"https://www.googleapis.com/auth/drive.readonly",

	// Apps Script scopes
	"https://www.googleapis.com/auth/script.projects.readonly",
}
