package event

import (
	"time"

	"github.com/viant/guaranty/internal/clock"
)

// Context identifies what an event is about and who caused it.
type Context struct {
	PolicyID    string `json:"policyId"`
	ActorID     string `json:"actorId,omitempty"`
	Action      string `json:"action"`
	PerformedBy string `json:"performedBy"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}

// StatusChanged is published after every committed policy transition.
type StatusChanged struct {
	PolicyID string `json:"policyId"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// ActorChanged is published after an actor submission or verification decision.
type ActorChanged struct {
	PolicyID            string `json:"policyId"`
	ActorID             string `json:"actorId"`
	Role                string `json:"role"`
	Verification        string `json:"verification"`
	InformationComplete bool   `json:"informationComplete"`
}
