package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState is the introspection view of a Service.
type ServiceState struct {
	Key       string `json:"key"`
	StoreType string `json:"store_type"`
	Writes    int64  `json:"writes"`
	Rejected  int64  `json:"rejected"`
}

// State implements introspection.Introspectable. Writes counts saved
// mutations; Rejected counts additions refused by validation.
func (s *Service) State() any {
	st := ServiceState{
		Key:       s.key,
		StoreType: "store",
		Writes:    s.writes.Load(),
		Rejected:  s.rejected.Load(),
	}
	if c, ok := s.store.(introspection.Component); ok {
		st.StoreType = c.ComponentType()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "dictionary-service"
}

var (
	_ introspection.Introspectable = (*Service)(nil)
	_ introspection.Component      = (*Service)(nil)
)
