package model

// Platform identifies the native store a record originated from. Every
// Product and Purchase carries exactly one tag, and only the extension
// fields for that tag may be populated.
type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformApple
	PlatformGoogle
)

func (p Platform) String() string {
	switch p {
	case PlatformApple:
		return "apple"
	case PlatformGoogle:
		return "google"
	default:
		return "unknown"
	}
}

// StoreName returns the user-facing store identifier for the platform.
func (p Platform) StoreName() string {
	switch p {
	case PlatformApple:
		return "app-store"
	case PlatformGoogle:
		return "play-store"
	default:
		return "none"
	}
}
