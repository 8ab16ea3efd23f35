package message

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/glossa/pkg/core"
)

// requestEnvelope is the wire shape of every request: the action plus the
// fields of its variant.
type requestEnvelope struct {
	Action     Action          `json:"action"`
	Dictionary core.Dictionary `json:"dictionary,omitempty"`
	Term       string          `json:"term,omitempty"`
	Version    int64           `json:"version,omitempty"`
}

// EncodeRequest renders req in its wire shape, e.g. {"action":"searchOnPage","term":"api"}.
func EncodeRequest(req Request) ([]byte, error) {
	env := requestEnvelope{Action: req.Action()}
	switch r := req.(type) {
	case DictionaryUpdated:
		env.Dictionary = r.Dictionary.Clone()
		env.Version = r.Version
	case SearchOnPage:
		env.Term = r.Term
	}
	return json.Marshal(env)
}

// DecodeRequest parses a wire request.
func DecodeRequest(data []byte) (Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	switch env.Action {
	case ActionGetDictionary:
		return GetDictionary{}, nil
	case ActionGetStats:
		return GetStats{}, nil
	case ActionPing:
		return Ping{}, nil
	case ActionDictionaryUpdated:
		return DictionaryUpdated{Dictionary: env.Dictionary.Clone(), Version: env.Version}, nil
	case ActionSearchOnPage:
		return SearchOnPage{Term: env.Term}, nil
	case "":
		return nil, fmt.Errorf("invalid request: missing action")
	default:
		return nil, fmt.Errorf("invalid request: unknown action %q", env.Action)
	}
}

type dictionaryPayload struct {
	Dictionary core.Dictionary `json:"dictionary"`
	Version    int64           `json:"version,omitempty"`
}

type statsPayload struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type pongPayload struct {
	Pong bool `json:"pong"`
}

type receivedPayload struct {
	Received bool `json:"received"`
}

type matchesPayload struct {
	Matches []core.Match `json:"matches"`
}

type unavailablePayload struct {
	Error string `json:"error"`
}

// EncodeResponse renders resp in its wire shape. Responses carry no action;
// the requester knows what it asked for.
func EncodeResponse(resp Response) ([]byte, error) {
	switch r := resp.(type) {
	case DictionaryResult:
		return json.Marshal(dictionaryPayload{Dictionary: r.Dictionary.Clone(), Version: r.Version})
	case StatsResult:
		return json.Marshal(statsPayload{Total: r.Total, Active: r.Active})
	case Pong:
		return json.Marshal(pongPayload{Pong: true})
	case Received:
		return json.Marshal(receivedPayload{Received: true})
	case SearchResult:
		matches := r.Matches
		if matches == nil {
			matches = []core.Match{}
		}
		return json.Marshal(matchesPayload{Matches: matches})
	case Unavailable:
		return json.Marshal(unavailablePayload{Error: r.Error()})
	default:
		return nil, fmt.Errorf("unknown response type %T", resp)
	}
}

// DecodeResponse parses the answer to a request of kind action. An error
// payload decodes to Unavailable.
func DecodeResponse(action Action, data []byte) (Response, error) {
	var failure unavailablePayload
	if err := json.Unmarshal(data, &failure); err == nil && failure.Error != "" {
		return Unavailable{Reason: failure.Error}, nil
	}

	switch action {
	case ActionGetDictionary:
		var p dictionaryPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s response: %w", action, err)
		}
		return DictionaryResult{Dictionary: p.Dictionary.Clone(), Version: p.Version}, nil
	case ActionGetStats:
		var p statsPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s response: %w", action, err)
		}
		return StatsResult{Total: p.Total, Active: p.Active}, nil
	case ActionPing:
		var p pongPayload
		if err := json.Unmarshal(data, &p); err != nil || !p.Pong {
			return Unavailable{Reason: "no pong"}, nil
		}
		return Pong{}, nil
	case ActionDictionaryUpdated:
		var p receivedPayload
		if err := json.Unmarshal(data, &p); err != nil || !p.Received {
			return Unavailable{Reason: "not received"}, nil
		}
		return Received{}, nil
	case ActionSearchOnPage:
		var p matchesPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s response: %w", action, err)
		}
		return SearchResult{Matches: p.Matches}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
