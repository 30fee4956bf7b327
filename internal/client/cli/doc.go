// Package cli provides the interactive goalkeeper client.
//
// It wires configuration, the protocol driver over the mailbox file, the
// local reminder inbox, and a small menu-driven REPL. Typical flow: log in
// (the last user name is offered as the default), request deadlines, walk
// through pending reminders, log out.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
