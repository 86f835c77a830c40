// Package gscript provides a thin client for listing Apps Script
// projects and reading their source files for one authenticated account.
package gscript
