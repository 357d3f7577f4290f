package api

import (
	"encoding/json"
	"time"
)

// Fixed envelope field values. They are identical for every failure kind.
const (
	EnvelopeType   = "Internal Error"
	EnvelopeStatus = "Failed"
	EnvelopeCode   = "500"
)

// RoundTripTimeFormat renders UTC timestamps with seven fractional digits,
// the ISO-8601 round-trip form consumers of the envelope already parse.
const RoundTripTimeFormat = "2006-01-02T15:04:05.0000000Z"

// ErrorRecord is the single structured record inside an ErrorEnvelope.
type ErrorRecord struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Code         string `json:"code"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	ErrorMessage string `json:"errorMessage"`
}

// ErrorEnvelope is the failure body: always a JSON array with one record.
type ErrorEnvelope []ErrorRecord

// NewErrorEnvelope builds the envelope for err. Both timestamps are captured
// from now at construction time, so they may be identical.
func NewErrorEnvelope(err error, now func() time.Time) ErrorEnvelope {
	if now == nil {
		now = time.Now
	}
	message := ""
	if err != nil {
		message = err.Error()
	}
	start := now().UTC().Format(RoundTripTimeFormat)
	end := now().UTC().Format(RoundTripTimeFormat)
	return ErrorEnvelope{{
		Name:         FunctionName + " function",
		Type:         EnvelopeType,
		Status:       EnvelopeStatus,
		Code:         EnvelopeCode,
		StartTime:    start,
		EndTime:      end,
		ErrorMessage: message,
	}}
}

// Marshal serializes the envelope indented by two spaces.
func (e ErrorEnvelope) Marshal() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
