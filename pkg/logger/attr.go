package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// PrincipalID records the acting principal under the key "principal_id".
func PrincipalID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("principal_id", id)
}

// TargetID records the target of an administrative action under the key
// "target_id".
func TargetID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("target_id", id)
}

// Tier records a subscription tier under the key "tier".
func Tier(tier any) slog.Attr {
	return slog.Any("tier", tier)
}

// Role records an admin role under the key "role".
func Role(role any) slog.Attr {
	return slog.Any("role", role)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
