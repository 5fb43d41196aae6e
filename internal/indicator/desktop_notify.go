package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const notificationIcon = "video-x-generic"

// urgency is the freedesktop notification urgency hint.
type urgency byte

const (
	urgencyLow urgency = iota
	urgencyNormal
	urgencyCritical
)

// notification is one org.freedesktop.Notifications.Notify call.
type notification struct {
	appName   string
	replaceID uint32
	summary   string
	body      string
	urgency   urgency
	category  string
	timeoutMS int
}

// args renders the call as busctl parameters for signature susssasa{sv}i.
func (n notification) args() []string {
	return []string{
		n.appName,
		strconv.FormatUint(uint64(n.replaceID), 10),
		notificationIcon,
		n.summary,
		n.body,
		"0",
		"2",
		"urgency", "y", strconv.Itoa(int(n.urgency)),
		"category", "s", n.category,
		strconv.Itoa(n.timeoutMS),
	}
}

// stageNotification maps an upload stage to its notification shape.
func stageNotification(appName string, replaceID uint32, label string, terminal bool) notification {
	n := notification{
		appName:   appName,
		replaceID: replaceID,
		summary:   label,
		urgency:   urgencyLow,
		category:  "transfer",
		timeoutMS: 300000,
	}
	if terminal {
		n.urgency = urgencyNormal
		n.category = "transfer.complete"
		n.timeoutMS = 4000
	}
	return n
}

func errorNotification(appName string, replaceID uint32, text string) notification {
	return notification{
		appName:   appName,
		replaceID: replaceID,
		summary:   text,
		urgency:   urgencyCritical,
		category:  "transfer.error",
		timeoutMS: 3000,
	}
}

// sendNotification shows n and returns the ID the server assigned.
func sendNotification(ctx context.Context, n notification) (uint32, error) {
	out, err := busctlCall(ctx, "Notify", "susssasa{sv}i", n.args()...)
	if err != nil {
		return 0, err
	}
	return parseNotificationID(out)
}

func closeNotification(ctx context.Context, id uint32) error {
	_, err := busctlCall(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

func busctlCall(ctx context.Context, method string, signature string, params ...string) (string, error) {
	args := append([]string{
		"--user", "call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		method, signature,
	}, params...)

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", fmt.Errorf("busctl %s: %w", method, err)
		}
		return "", fmt.Errorf("busctl %s: %w (%s)", method, err, trimmed)
	}
	return trimmed, nil
}

// parseNotificationID reads busctl's "u <id>" reply.
func parseNotificationID(out string) (uint32, error) {
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != "u" {
		return 0, fmt.Errorf("unexpected Notify reply %q", out)
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}
