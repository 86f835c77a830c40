// Package credentials provides durable per-account storage of Google OAuth
// credentials for one server instance.
//
// A Store is bound to exactly one resolved directory at construction and holds
// one JSON record file per account, named deterministically from the account
// email. Saves are atomic (temp file plus rename in the same directory) so a
// concurrent load never observes a partially written record, and same-key
// saves within a process serialize behind an internal mutex. Isolation between
// server instances is achieved entirely by directory partitioning; there is no
// cross-process locking.
package credentials
