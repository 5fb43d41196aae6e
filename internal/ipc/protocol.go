// Package ipc carries newline-delimited JSON commands to the owning scriber process.
package ipc

// Commands understood by the owner process.
const (
	CommandStatus = "status"
	CommandCancel = "cancel"
	CommandRemove = "remove"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
