// Package journal persists run events to SQLite so a build can be inspected
// after the process exits.
package journal
