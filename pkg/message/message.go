// Package message defines the request/response contracts exchanged between
// the relay, the per-tab scanners and the settings surface, and the bus that
// carries them.
package message

import (
	"fmt"

	"github.com/aretw0/glossa/pkg/core"
)

// Action names a request kind on the wire.
type Action string

const (
	ActionGetDictionary     Action = "getDictionary"
	ActionGetStats          Action = "getStats"
	ActionPing              Action = "ping"
	ActionDictionaryUpdated Action = "dictionaryUpdated"
	ActionSearchOnPage      Action = "searchOnPage"
)

// Request is a closed set of request variants.
type Request interface {
	Action() Action
	isRequest()
}

// GetDictionary asks the relay for its current snapshot.
type GetDictionary struct{}

// GetStats asks the relay for entry counts.
type GetStats struct{}

// Ping probes whether a receiver is listening.
type Ping struct{}

// DictionaryUpdated pushes a new snapshot to a tab. Version grows with every
// relay update so a tab can drop a push that arrives after a newer one.
type DictionaryUpdated struct {
	Dictionary core.Dictionary
	Version    int64
}

// SearchOnPage asks a tab to search its visible text.
type SearchOnPage struct {
	Term string
}

func (GetDictionary) Action() Action     { return ActionGetDictionary }
func (GetStats) Action() Action          { return ActionGetStats }
func (Ping) Action() Action              { return ActionPing }
func (DictionaryUpdated) Action() Action { return ActionDictionaryUpdated }
func (SearchOnPage) Action() Action      { return ActionSearchOnPage }

func (GetDictionary) isRequest()     {}
func (GetStats) isRequest()          {}
func (Ping) isRequest()              {}
func (DictionaryUpdated) isRequest() {}
func (SearchOnPage) isRequest()      {}

// Response is a closed set of response variants.
type Response interface {
	isResponse()
}

// DictionaryResult answers GetDictionary.
type DictionaryResult struct {
	Dictionary core.Dictionary
	Version    int64
}

// StatsResult answers GetStats.
type StatsResult struct {
	Total  int
	Active int
}

// Pong answers Ping.
type Pong struct{}

// Received acknowledges DictionaryUpdated.
type Received struct{}

// SearchResult answers SearchOnPage.
type SearchResult struct {
	Matches []core.Match
}

// Unavailable means nobody answered: no receiver, a timeout, or a receiver
// that does not handle the request.
type Unavailable struct {
	Reason string
}

func (DictionaryResult) isResponse() {}
func (StatsResult) isResponse()      {}
func (Pong) isResponse()             {}
func (Received) isResponse()         {}
func (SearchResult) isResponse()     {}
func (Unavailable) isResponse()      {}

func (u Unavailable) Error() string {
	if u.Reason == "" {
		return "unavailable"
	}
	return "unavailable: " + u.Reason
}

// IsUnavailable reports whether r is an Unavailable response.
func IsUnavailable(r Response) bool {
	_, ok := r.(Unavailable)
	return ok
}

// Unsupported is the response for requests a receiver does not handle.
func Unsupported(req Request) Unavailable {
	return Unavailable{Reason: fmt.Sprintf("unsupported action %q", req.Action())}
}
