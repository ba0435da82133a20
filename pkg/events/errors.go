package events

// MalformedEventError indicates that an inbound payload does not match any
// expected envelope shape, or that a field required for the requested
// operation is missing.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return "malformed event: " + e.Reason
}

// MediaAbsentError indicates that media was requested on an event that does
// not carry any. This is a routing error, not user input: routes must check
// the event kind before asking for media.
type MediaAbsentError struct {
	Kind Kind
}

func (e *MediaAbsentError) Error() string {
	return "no media on " + string(e.Kind) + " event"
}
