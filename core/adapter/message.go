package adapter

// Message is what interceptors see during one delivery.
// Interceptors may replace Payload and edit Headers in place.
type Message struct {
	Event   string
	Payload any
	Headers map[string]any
}

// Header returns a header value as a string, or "" when absent or not a string.
func (m *Message) Header(key string) string {
	if m == nil || m.Headers == nil {
		return ""
	}
	s, _ := m.Headers[key].(string)
	return s
}
