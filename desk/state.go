package desk

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaiNageswarS/employee-desk/db"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// State is a step of the conversation pipeline.
type State int

const (
	StateIdle State = iota
	StateMemoryLoaded
	StateQueryRewritten
	StateRetrieved
	StateContextPacked
	StateResponseGenerated
	StatePersisted
	StateDone
	StateErrored
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateMemoryLoaded:      "memory_loaded",
	StateQueryRewritten:    "query_rewritten",
	StateRetrieved:         "retrieved",
	StateContextPacked:     "context_packed",
	StateResponseGenerated: "response_generated",
	StatePersisted:         "persisted",
	StateDone:              "done",
	StateErrored:           "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

// StageError is a classified failure of the stage that was to reach Stage.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Code() codes.Code {
	if c := contextCode(e.Err); c != codes.OK {
		return c
	}
	if s, ok := status.FromError(e.Err); ok {
		return s.Code()
	}
	return codes.Internal
}

func contextCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.OK
}

type Citation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Outcome is the result of one pipeline run: a completed exchange or a stage failure.
type Outcome struct {
	State     State
	Exchange  *db.ChatExchangeModel
	Citations []Citation
	Persisted bool
	Err       *StageError
}

func (o Outcome) Failed() bool { return o.Err != nil }
