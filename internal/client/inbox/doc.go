// Package inbox is the client's local SQLite store: every reminder the
// client acknowledged, kept per user for the "history" command, plus a
// small key/value table for client preferences such as the last user name.
//
// The schema lives in internal/client/migrations and is applied with goose
// by Open.
package inbox
