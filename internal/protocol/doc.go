// Package protocol defines what travels through the mailbox: the command and
// response vocabulary and the optional "@role:seq" frame header.
//
// A framed message looks like
//
//	@client:1729249200000000001
//	SEND_REMINDERS
//
// Unframed (legacy) messages are the bare body. The service answers with the
// sequence number of the request it is answering, which lets the client tell
// a fresh response from its own request still sitting in the mailbox.
package protocol
