package headlessterm

import "github.com/vtengine/headlessterm/vtparser"

// NotificationPayload carries one assembled OSC 99 desktop notification
// request (iTerm2/kitty-style growl notifications), reassembled across
// however many OscPut calls its transmission used.
type NotificationPayload struct {
	// ID identifies the notification, so a later query or close request
	// can reference it.
	ID string
	// Done is true once the final chunk of a multi-part payload has
	// arrived; intermediate chunks are not delivered to the provider.
	Done bool
	// PayloadType selects what Data holds: "title", "body", "?" (a
	// capability/status query), or a provider-defined extension.
	PayloadType string
	// Encoding names the transfer encoding applied to Data ("" for raw
	// text, "1" for base64), matching the 'e=' key some clients send.
	Encoding string
	// Actions lists the button/action labels offered on the notification.
	Actions []string
	// TrackClose requests a report when the user dismisses the
	// notification.
	TrackClose bool
	// Timeout is the requested auto-dismiss delay in milliseconds (0 for
	// no timeout).
	Timeout int
	AppName string
	Type    string
	IconName    string
	IconCacheID string
	Sound       string
	// Urgency follows the freedesktop.org convention: 0 low, 1 normal, 2 critical.
	Urgency int
	// Occasion selects when the notification should be shown (e.g.
	// "always", "unfocused"), matching kitty's 'o=' key.
	Occasion string
	Data     []byte
}

// NotificationProvider surfaces desktop notifications requested via OSC 99.
// Notify may return a non-empty string to send back as an escape sequence
// response (used for query-type payloads); any other payload should
// return "".
type NotificationProvider interface {
	Notify(payload *NotificationPayload) string
}

// NoopNotification discards all notifications and never responds.
type NoopNotification struct{}

func (NoopNotification) Notify(payload *NotificationPayload) string { return "" }

var _ NotificationProvider = NoopNotification{}

// WithNotification sets the handler for desktop notifications (OSC 99).
// Defaults to a no-op if not set.
func WithNotification(p NotificationProvider) Option {
	return func(t *Terminal) {
		t.notificationProvider = p
	}
}

// NotificationProvider returns the current desktop notification handler.
func (t *Terminal) NotificationProvider() NotificationProvider {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.notificationProvider
}

// SetNotificationProvider changes the desktop notification handler at runtime.
func (t *Terminal) SetNotificationProvider(p NotificationProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationProvider = p
}

// DesktopNotification delivers a completed OSC 99 payload to the
// configured NotificationProvider, writing back any response it returns.
func (t *Terminal) DesktopNotification(payload *NotificationPayload) {
	if t.middleware != nil && t.middleware.DesktopNotification != nil {
		t.middleware.DesktopNotification(payload, t.desktopNotificationInternal)
		return
	}
	t.desktopNotificationInternal(payload)
}

// NotificationReceived implements vtparser.Handler, translating a decoded
// OSC 99 payload into the request DesktopNotification delivers.
func (t *Terminal) NotificationReceived(n vtparser.NotificationPayload) {
	t.DesktopNotification(&NotificationPayload{
		ID:          n.ID,
		Done:        n.Done,
		PayloadType: n.PayloadType,
		Encoding:    n.Encoding,
		Actions:     n.Actions,
		TrackClose:  n.TrackClose,
		Timeout:     n.Timeout,
		AppName:     n.AppName,
		Type:        n.Type,
		IconName:    n.IconName,
		IconCacheID: n.IconCacheID,
		Sound:       n.Sound,
		Urgency:     n.Urgency,
		Occasion:    n.Occasion,
		Data:        n.Data,
	})
}

func (t *Terminal) desktopNotificationInternal(payload *NotificationPayload) {
	t.mu.RLock()
	provider := t.notificationProvider
	t.mu.RUnlock()

	if provider == nil {
		return
	}

	response := provider.Notify(payload)
	if response != "" {
		t.writeResponseString(response)
	}
}
