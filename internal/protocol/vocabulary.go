package protocol

import "strings"

// Commands written by the client.
const (
	CmdLoginAck      = "LOGIN_SUCCESSFUL"
	CmdLogout        = "LOGOUT"
	CmdSendDeadlines = "SEND_DEADLINES"
	CmdSendReminders = "SEND_REMINDERS"
	CmdReminderAck   = "REMINDER_RECEIVED"
)

// Responses written by the service. A successful login is answered with the
// user's resolved pathway, deadlines with the rendered text.
const (
	RespLoginError  = "login error"
	RespLogoutOK    = "LOGOUT_SUCCESSFUL"
	RespNoUser      = "NO_USER"
	RespNoReminders = "NO_REMINDERS"
	ReminderTag     = "REMINDER_MSG"
)

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandCredentials
	CommandLoginAck
	CommandLogout
	CommandSendDeadlines
	CommandSendReminders
	CommandReminderAck
)

func (k CommandKind) String() string {
	switch k {
	case CommandCredentials:
		return "credentials"
	case CommandLoginAck:
		return "login_ack"
	case CommandLogout:
		return "logout"
	case CommandSendDeadlines:
		return "send_deadlines"
	case CommandSendReminders:
		return "send_reminders"
	case CommandReminderAck:
		return "reminder_ack"
	default:
		return "unknown"
	}
}

// Command is a parsed client message.
type Command struct {
	Kind     CommandKind
	UserName string
	Secret   string
}

var tokens = map[string]CommandKind{
	CmdLoginAck:      CommandLoginAck,
	CmdLogout:        CommandLogout,
	CmdSendDeadlines: CommandSendDeadlines,
	CmdSendReminders: CommandSendReminders,
	CmdReminderAck:   CommandReminderAck,
}

// ParseCommand classifies a message body. Anything with exactly two
// non-empty-username lines is a credential pair; single-line bodies must
// match a command token exactly. Everything else is CommandUnknown.
func ParseCommand(body string) Command {
	if kind, ok := tokens[body]; ok {
		return Command{Kind: kind}
	}

	lines := strings.Split(body, "\n")
	if len(lines) != 2 {
		return Command{Kind: CommandUnknown}
	}

	user := strings.TrimSpace(lines[0])
	if user == "" || user == ReminderTag {
		return Command{Kind: CommandUnknown}
	}

	return Command{
		Kind:     CommandCredentials,
		UserName: user,
		Secret:   strings.TrimSpace(lines[1]),
	}
}

// Credentials renders a credential-pair command.
func Credentials(userName, secret string) string {
	return userName + "\n" + secret
}

type ResponseKind int

const (
	// ResponseText covers pathways and rendered deadlines; the meaning
	// depends on the request it answers.
	ResponseText ResponseKind = iota
	ResponseLoginError
	ResponseLogoutOK
	ResponseNoUser
	ResponseNoReminders
	ResponseReminder
)

// Response is a parsed service message.
type Response struct {
	Kind ResponseKind
	Text string
}

// ParseResponse classifies a message body written by the service.
func ParseResponse(body string) Response {
	switch body {
	case RespLoginError:
		return Response{Kind: ResponseLoginError}
	case RespLogoutOK:
		return Response{Kind: ResponseLogoutOK}
	case RespNoUser:
		return Response{Kind: ResponseNoUser}
	case RespNoReminders:
		return Response{Kind: ResponseNoReminders}
	}

	if tag, text, ok := strings.Cut(body, "\n"); ok && tag == ReminderTag {
		return Response{Kind: ResponseReminder, Text: text}
	}
	if body == ReminderTag {
		return Response{Kind: ResponseReminder}
	}

	return Response{Kind: ResponseText, Text: body}
}

// ReminderPayload renders a reminder response.
func ReminderPayload(text string) string {
	return ReminderTag + "\n" + text
}
