package agentbox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"agentbox-sdk/models"
)

// EventHandler receives decoded stream events, one at a time, in arrival
// order. The stream does not read its next record until the handler returns.
type EventHandler func(models.StreamEvent)

// StreamClient consumes the per-message event stream the agent server pushes
// over the sandbox tunnel. One stream is opened per outgoing message.
type StreamClient struct {
	httpClient *http.Client
}

// NewStreamClient creates a stream client. A nil httpClient gets a default
// client with no overall timeout: streams may legitimately idle between
// events indefinitely, so deadlines belong on the caller's context.
func NewStreamClient(httpClient *http.Client) *StreamClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &StreamClient{httpClient: httpClient}
}

// Send posts one user message to the sandbox's agent server and dispatches
// the resulting events to handler until the stream completes.
//
// The stream's natural end is a message.complete event, which returns nil.
// Closure before that returns a StreamClosedError. Cancelling ctx stops the
// stream at the next record boundary and returns nil without dispatching
// further events; cancellation is not an error. A decoded "error" event is
// dispatched like any other event and does not end the stream.
func (s *StreamClient) Send(ctx context.Context, tunnelURL, sessionID, text string, handler EventHandler) error {
	payload := struct {
		Content string `json:"content"`
	}{Content: text}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/sessions/%s/messages", strings.TrimRight(tunnelURL, "/"), sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		// Cancellation is honored at record boundaries, never mid-record.
		if ctx.Err() != nil {
			return nil
		}
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event models.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			// Skip malformed records.
			continue
		}
		if !event.Known() {
			// Unrecognized tags are tolerated for forward compatibility.
			continue
		}

		handler(event)
		if event.Terminal() {
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return &StreamClosedError{Err: err}
	}
	return &StreamClosedError{}
}
