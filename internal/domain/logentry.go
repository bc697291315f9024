package domain

// Audit results.
const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
	ResultNone    = "N/A"
)

// SystemUser is the audit user for events raised by the server itself.
const SystemUser = "SYSTEM"

// Audit actions raised by the server rather than by a client request.
const (
	ActionServerStart      = "SERVER_START"
	ActionServerShutdown   = "SERVER_SHUTDOWN"
	ActionClientConnect    = "CLIENT_CONNECT"
	ActionClientDisconnect = "CLIENT_DISCONNECT"
	ActionError            = "ERROR"
)

// LogEntry is one record of the server activity log.
type LogEntry struct {
	Timestamp Timestamp `xml:"timestamp"`

	// User is the acting username, the client address for connection
	// events, or SystemUser.
	User         string `xml:"user"`
	Action       string `xml:"action"`
	DataAffected string `xml:"dataAffected"`
	Result       string `xml:"result"`
}

// NewLogEntry creates an entry stamped with the current time.
func NewLogEntry(user, action, dataAffected, result string) *LogEntry {
	return &LogEntry{
		Timestamp:    Now(),
		User:         user,
		Action:       action,
		DataAffected: dataAffected,
		Result:       result,
	}
}
