//go:build !linux

package notify

// New returns a no-op notifier on platforms without the freedesktop
// notification service.
func New() (Notifier, error) {
	return &stubNotifier{}, nil
}
