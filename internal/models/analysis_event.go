package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AnalysisEventName is the bridge event carrying engine progress lines.
const AnalysisEventName = "analysis-event"

type AnalysisEventKind string

const (
	AnalysisStart    AnalysisEventKind = "start"
	AnalysisProgress AnalysisEventKind = "progress"
	AnalysisFinish   AnalysisEventKind = "finish"
	AnalysisError    AnalysisEventKind = "error"
	AnalysisLog      AnalysisEventKind = "log"
)

var ErrUnknownAnalysisEvent = errors.New("unknown analysis event")

// AnalysisEvent is the decoded form of one engine line.
type AnalysisEvent struct {
	Kind      AnalysisEventKind
	Current   int
	Total     int
	Questions []ExtractedQuestion
	Message   string
}

type rawAnalysisEvent struct {
	Type      string              `json:"type"`
	Status    string              `json:"status"`
	Current   int                 `json:"current"`
	Total     int                 `json:"total"`
	Questions []ExtractedQuestion `json:"questions"`
	Message   string              `json:"message"`
	Error     string              `json:"error"`
}

// ParseAnalysisEvent decodes a payload. Errors reported either as
// {"type":"error"} or {"status":"error"} produce the same AnalysisError event.
func ParseAnalysisEvent(payload string) (AnalysisEvent, error) {
	payload = strings.TrimSpace(payload)
	var raw rawAnalysisEvent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return AnalysisEvent{}, fmt.Errorf("malformed analysis event: %w", err)
	}

	if raw.Type == string(AnalysisError) || raw.Status == "error" {
		msg := raw.Message
		if msg == "" {
			msg = raw.Error
		}
		if msg == "" {
			msg = "analysis failed"
		}
		return AnalysisEvent{Kind: AnalysisError, Message: msg}, nil
	}

	switch AnalysisEventKind(raw.Type) {
	case AnalysisStart:
		return AnalysisEvent{Kind: AnalysisStart, Total: raw.Total}, nil
	case AnalysisProgress:
		return AnalysisEvent{Kind: AnalysisProgress, Current: raw.Current, Total: raw.Total, Questions: raw.Questions}, nil
	case AnalysisFinish:
		return AnalysisEvent{Kind: AnalysisFinish}, nil
	case AnalysisLog:
		return AnalysisEvent{Kind: AnalysisLog, Message: raw.Message}, nil
	}
	return AnalysisEvent{}, fmt.Errorf("%w: %q", ErrUnknownAnalysisEvent, raw.Type)
}
