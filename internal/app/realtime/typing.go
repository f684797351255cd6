package realtime

// TypingRelay forwards typing notices to a live receiver. Notices are never stored and are
// dropped when the receiver is offline.
type TypingRelay struct {
	registry *Registry
}

// NewTypingRelay returns a TypingRelay delivering through registry.
func NewTypingRelay(registry *Registry) *TypingRelay {
	return &TypingRelay{registry: registry}
}

// Typing forwards user-typing. It reports whether the notice was queued.
func (t *TypingRelay) Typing(senderID string, in TypingPayload) bool {
	return t.relay(EventUserTyping, senderID, in)
}

// StopTyping forwards user-stop-typing. It reports whether the notice was queued.
func (t *TypingRelay) StopTyping(senderID string, in TypingPayload) bool {
	return t.relay(EventUserStopTyping, senderID, in)
}

func (t *TypingRelay) relay(event string, senderID string, in TypingPayload) bool {
	if in.ReceiverID == "" || in.ReceiverID == senderID {
		return false
	}

	conn, ok := t.registry.Lookup(in.ReceiverID)
	if !ok {
		return false
	}

	return emit(conn, event, TypingNoticePayload{ChatID: in.ChatID, UserID: senderID})
}
