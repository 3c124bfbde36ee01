package notify

// stubNotifier swallows notifications when no notification service exists.
type stubNotifier struct{}

func (s *stubNotifier) Notify(_ Notification) error {
	return nil
}
