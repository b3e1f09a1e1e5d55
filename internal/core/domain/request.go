package domain

import (
	"encoding/json"
	"fmt"
)

// RequestClass identifies a kind of mediated request.
type RequestClass string

const (
	ClassSearch  RequestClass = "search"
	ClassDetails RequestClass = "details"
)

// Retry tags double as the durable-store keys of the pending request.
const (
	TagBackgroundSearch  = "background-search-query"
	TagBackgroundDetails = "background-movie-details"
)

// Staging slots read by the foreground on its next launch.
const (
	SlotNextLaunchSearch  = "next-launch-query-results"
	SlotNextLaunchDetails = "next-launch-movie-details"
)

// RequestClasses lists every mediated class in a stable order.
var RequestClasses = []RequestClass{ClassSearch, ClassDetails}

// Valid reports whether c is a known class.
func (c RequestClass) Valid() bool {
	return c == ClassSearch || c == ClassDetails
}

// RetryTag returns the tag registered with the retry scheduler for c.
func (c RequestClass) RetryTag() string {
	switch c {
	case ClassSearch:
		return TagBackgroundSearch
	case ClassDetails:
		return TagBackgroundDetails
	}
	return ""
}

// StagingKey returns the durable slot holding the staged result for c.
func (c RequestClass) StagingKey() string {
	switch c {
	case ClassSearch:
		return SlotNextLaunchSearch
	case ClassDetails:
		return SlotNextLaunchDetails
	}
	return ""
}

// ClassForTag maps a retry tag back to its class.
func ClassForTag(tag string) (RequestClass, bool) {
	switch tag {
	case TagBackgroundSearch:
		return ClassSearch, true
	case TagBackgroundDetails:
		return ClassDetails, true
	}
	return "", false
}

// ParseRequestClass parses the textual class name.
func ParseRequestClass(s string) (RequestClass, error) {
	c := RequestClass(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown request class %q", s)
	}
	return c, nil
}

// PendingRequest is an armed retry. At most one exists per class.
type PendingRequest struct {
	Class   RequestClass `json:"class"`
	Payload string       `json:"payload"`
}

// StagedResult is a retried result waiting for the next foreground launch.
type StagedResult struct {
	Class RequestClass    `json:"class"`
	Data  json.RawMessage `json:"data"`
}
