// Package gdocs provides a thin client for reading Google Docs and
// listing documents in Drive for one authenticated account.
package gdocs
