// Package usage turns Bedrock model-invocation log events into usage records
// and rolls them up along date, hour, region, model and principal.
package usage

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Record is one normalized invocation.
type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	Region           string    `json:"region"`
	ModelID          string    `json:"modelId"`
	PrincipalID      string    `json:"principalId,omitempty"`
	InputTokens      int64     `json:"inputTokens"`
	CompletionTokens int64     `json:"completionTokens"`
	TotalTokens      int64     `json:"totalTokens"`
	Prompt           string    `json:"-"`
}

// Date is the calendar date of the record in UTC.
func (r Record) Date() string {
	return r.Timestamp.UTC().Format("2006-01-02")
}

// HourBucket is the record's hour as "YYYY-MM-DD HH:00".
func (r Record) HourBucket() string {
	return r.Timestamp.UTC().Format("2006-01-02 15") + ":00"
}

// Hour is the hour of day, 0-23.
func (r Record) Hour() int {
	return r.Timestamp.UTC().Hour()
}

// ParseEvent normalizes one raw log message. Any missing required field or
// malformed value is an error; the caller skips such events.
func ParseEvent(message string) (Record, error) {
	if !gjson.Valid(message) {
		return Record{}, fmt.Errorf("event is not valid JSON")
	}
	doc := gjson.Parse(message)
	if !doc.IsObject() {
		return Record{}, fmt.Errorf("event is not a JSON object")
	}

	ts, err := requiredString(doc, "timestamp")
	if err != nil {
		return Record{}, err
	}
	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Record{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	region, err := requiredString(doc, "region")
	if err != nil {
		return Record{}, err
	}
	modelID, err := requiredString(doc, "modelId")
	if err != nil {
		return Record{}, err
	}
	input, err := requiredCount(doc, "input.inputTokenCount")
	if err != nil {
		return Record{}, err
	}
	output, err := requiredCount(doc, "output.outputTokenCount")
	if err != nil {
		return Record{}, err
	}

	return Record{
		Timestamp:        timestamp.UTC(),
		Region:           region,
		ModelID:          modelID,
		PrincipalID:      optionalString(doc, "identity.arn"),
		InputTokens:      input,
		CompletionTokens: output,
		TotalTokens:      input + output,
		Prompt:           userPrompt(doc),
	}, nil
}

func requiredString(doc gjson.Result, path string) (string, error) {
	v := doc.Get(path)
	if !v.Exists() || v.Type != gjson.String || v.Str == "" {
		return "", fmt.Errorf("missing %s", path)
	}
	return v.Str, nil
}

func optionalString(doc gjson.Result, path string) string {
	v := doc.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func requiredCount(doc gjson.Result, path string) (int64, error) {
	v := doc.Get(path)
	if !v.Exists() || v.Type != gjson.Number {
		return 0, fmt.Errorf("missing %s", path)
	}
	n := v.Int()
	if n < 0 || float64(n) != v.Num {
		return 0, fmt.Errorf("invalid %s: %s", path, v.Raw)
	}
	return n, nil
}

// userPrompt joins the text of every user message. Content entries may be
// plain strings or objects with a "text" field; anything else is ignored.
func userPrompt(doc gjson.Result) string {
	var sb strings.Builder
	doc.Get("input.inputBodyJson.messages").ForEach(func(_, msg gjson.Result) bool {
		if msg.Get("role").String() != "user" {
			return true
		}
		msg.Get("content").ForEach(func(_, part gjson.Result) bool {
			switch {
			case part.Type == gjson.String:
				sb.WriteString(part.Str)
			case part.IsObject() && part.Get("text").Type == gjson.String:
				sb.WriteString(part.Get("text").Str)
				sb.WriteString(" ")
			}
			return true
		})
		return true
	})
	return strings.TrimSpace(sb.String())
}
