// Package loki pushes session events to Grafana Loki as JSON log lines.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"xriepv1/client/internal/telemetry/domain"
)

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid in Loki label values we produce.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// eventLine is the JSON log line pushed for each event. High-cardinality fields stay in the line, not in labels.
type eventLine struct {
	EventType string `json:"eventType"`
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Emitter is a telemetry.EventEmitter that pushes each event to Loki.
type Emitter struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewEmitter returns an Emitter for the Loki instance at baseURL (e.g. http://localhost:3100).
func NewEmitter(baseURL string) *Emitter {
	return &Emitter{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
}

// Emit pushes event with labels event_type and role.
func (e *Emitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	line, err := json.Marshal(eventLine{
		EventType: string(event.Type),
		UserID:    event.UserID,
		Username:  event.Username,
		Role:      event.Role,
		DeviceID:  event.DeviceID,
		Detail:    event.Detail,
		CreatedAt: ts.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	labels := map[string]string{"event_type": string(event.Type), "role": event.Role}
	return PushEvent(ctx, e.HTTPClient, e.BaseURL, ts, string(line), labels)
}

// PushEvent sends a single log line to Loki at the given base URL.
// timestamp is the event time; labels are added to the stream next to job=xriep. Empty label values are dropped.
// Returns an error if the HTTP request fails or Loki returns non-2xx.
func PushEvent(ctx context.Context, hc *http.Client, baseURL string, timestamp time.Time, line string, labels map[string]string) error {
	if baseURL == "" {
		return fmt.Errorf("loki: base URL is empty")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = "xriep"
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{fmt.Sprintf("%d", timestamp.UnixNano()), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
