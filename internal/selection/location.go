package selection

import (
	"net/url"
	"strings"
)

// Location exposes the navigation hints of the surface the user
// arrived from. Only the agent_id query parameter is consulted.
type Location interface {
	AgentIDHint() string
}

// NoLocation reports no hints.
type NoLocation struct{}

func (NoLocation) AgentIDHint() string { return "" }

// LocationFunc adapts a function to the Location interface.
type LocationFunc func() string

func (f LocationFunc) AgentIDHint() string {
	if f == nil {
		return ""
	}
	return f()
}

// URLLocation reads hints from a dashboard deep link such as
// https://host/thread/123?agent_id=ag-7.
type URLLocation struct {
	raw string
}

func NewURLLocation(raw string) URLLocation {
	return URLLocation{raw: strings.TrimSpace(raw)}
}

func (l URLLocation) AgentIDHint() string {
	if l.raw == "" {
		return ""
	}
	u, err := url.Parse(l.raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("agent_id"))
}
