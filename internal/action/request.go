package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrInvalidRequest is returned when a parameter blob cannot be decoded
var ErrInvalidRequest = errors.New("invalid compilation request")

// Request is the parameter blob handed to the compiler: a target URL and
// the ordered actions to reproduce.
type Request struct {
	URL     string   `json:"url"`
	Actions []Action `json:"actions"`
}

// Decode parses a parameter blob. Strict JSON is tried first; anything else
// (single quotes, trailing commas, unquoted keys) goes through jsonrepair.
func Decode(text string) (*Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidRequest)
	}

	var req Request
	if err := json.Unmarshal([]byte(text), &req); err == nil {
		return normalize(&req), nil
	}

	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := json.Unmarshal([]byte(fixed), &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return normalize(&req), nil
}

// DecodeActions parses a bare action array, with the same leniency as Decode
func DecodeActions(text string) ([]Action, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var actions []Action
	if err := json.Unmarshal([]byte(text), &actions); err == nil {
		return actions, nil
	}

	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := json.Unmarshal([]byte(fixed), &actions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return actions, nil
}

func normalize(req *Request) *Request {
	if req.Actions == nil {
		req.Actions = []Action{}
	}
	return req
}
