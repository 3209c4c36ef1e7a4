package action

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Action represents a single requested automation step
type Action struct {
	Type     string `json:"type"`               // click, fill, wait, screenshot, text, get_elements, snapshot
	Selector string `json:"selector,omitempty"` // Element locator (click, fill, text, get_elements)
	Value    string `json:"value,omitempty"`    // Fill text, wait duration in ms, or screenshot path
}

// Kind is the resolved, closed set of action kinds the compiler understands
type Kind int

const (
	KindUnsupported Kind = iota
	KindClick
	KindFill
	KindWait
	KindScreenshot
	KindReadText
	KindEnumerateElements
	KindSnapshot
)

// kindNames maps every accepted wire name to its kind; wireNames holds the
// canonical name per kind.
var kindNames = map[string]Kind{
	"click":              KindClick,
	"fill":               KindFill,
	"wait":               KindWait,
	"screenshot":         KindScreenshot,
	"text":               KindReadText,
	"readText":           KindReadText,
	"read_text":          KindReadText,
	"get_elements":       KindEnumerateElements,
	"enumerateElements":  KindEnumerateElements,
	"enumerate_elements": KindEnumerateElements,
	"snapshot":           KindSnapshot,
}

var wireNames = map[Kind]string{
	KindClick:             "click",
	KindFill:              "fill",
	KindWait:              "wait",
	KindScreenshot:        "screenshot",
	KindReadText:          "text",
	KindEnumerateElements: "get_elements",
	KindSnapshot:          "snapshot",
}

// ParseKind resolves a wire type name. Unknown names resolve to KindUnsupported.
func ParseKind(name string) Kind {
	if k, ok := kindNames[strings.TrimSpace(name)]; ok {
		return k
	}
	return KindUnsupported
}

// String returns the canonical wire name, or "unsupported"
func (k Kind) String() string {
	if name, ok := wireNames[k]; ok {
		return name
	}
	return "unsupported"
}

// Kind resolves the action's type
func (a Action) Kind() Kind {
	return ParseKind(a.Type)
}

// NeedsLocator reports whether the kind addresses a page element
func (k Kind) NeedsLocator() bool {
	switch k {
	case KindClick, KindFill, KindReadText, KindEnumerateElements:
		return true
	}
	return false
}

// UnmarshalJSON accepts non-string fields (e.g. "value": 1000 or "type": 7)
// and keeps their JSON text, so one malformed action never rejects the list.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     json.RawMessage `json:"type"`
		Selector json.RawMessage `json:"selector"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Type = rawString(raw.Type)
	a.Selector = rawString(raw.Selector)
	a.Value = rawString(raw.Value)
	return nil
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
