package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// ReadyEvent is the first server-sent event of every stream. It marks the
// subscription as live.
const ReadyEvent = "ready"

// InvokeResponse is the body of POST /bridge/invoke/{command}.
type InvokeResponse struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HTTPBridge talks to a host serving the bridge endpoints.
type HTTPBridge struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPBridge targets base, e.g. http://localhost:8080. A nil client uses
// http.DefaultClient; its Timeout must be zero for event streams to stay open.
func NewHTTPBridge(base string, client *http.Client, logger *slog.Logger) *HTTPBridge {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBridge{
		base:   strings.TrimRight(base, "/"),
		client: client,
		logger: logger.With("component", "bridge", "transport", "http"),
	}
}

func (b *HTTPBridge) Invoke(ctx context.Context, command string, params any, out any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}

	endpoint := b.base + "/bridge/invoke/" + url.PathEscape(command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", command, err)
	}
	defer resp.Body.Close()

	var body InvokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to read %s response (status %d): %w", command, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return &Error{Command: command, Message: msg}
	}
	return decodeResult(command, body.Result, out)
}

// Listen opens a server-sent event stream and waits for its ready event.
func (b *HTTPBridge) Listen(ctx context.Context, event string, handler func(payload string)) (Unlisten, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	endpoint := b.base + "/bridge/events/" + url.PathEscape(event)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build %s stream request: %w", event, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to listen to %s: %w", event, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("failed to listen to %s: %s", event, resp.Status)
	}

	stream := newEventReader(resp.Body)
	first, err := stream.next()
	if err != nil || first.name != ReadyEvent {
		resp.Body.Close()
		cancel()
		if err == nil {
			err = fmt.Errorf("unexpected first event %q", first.name)
		}
		return nil, fmt.Errorf("failed to listen to %s: %w", event, err)
	}

	go func() {
		defer resp.Body.Close()
		for {
			ev, err := stream.next()
			if err != nil {
				if streamCtx.Err() == nil && !errors.Is(err, io.EOF) {
					b.logger.Warn("Event stream ended", "event", event, "error", err)
				}
				return
			}
			if streamCtx.Err() != nil {
				return
			}
			handler(ev.data)
		}
	}()

	b.logger.Debug("Listening", "event", event)
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			b.logger.Debug("Stopped listening", "event", event)
		})
	}, nil
}

// Log forwards a client-side message to the host's log.
func (b *HTTPBridge) Log(ctx context.Context, message string) error {
	data, err := json.Marshal(validator.LogRequest{Message: message, Level: "info"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+"/bridge/log", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send log: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send log: %s", resp.Status)
	}
	return nil
}

type sseEvent struct {
	name string
	data string
}

// eventReader parses a text/event-stream. Lines are read without a length
// limit because progress events carry inline images.
type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReader(r)}
}

func (e *eventReader) next() (sseEvent, error) {
	var (
		ev      sseEvent
		data    []string
		hasData bool
	)
	for {
		line, err := e.r.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return sseEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData || ev.name != "" {
				ev.data = strings.Join(data, "\n")
				return ev, nil
			}
			if err != nil {
				return sseEvent{}, err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.name = value
		case "data":
			data = append(data, value)
			hasData = true
		}
		if err != nil {
			ev.data = strings.Join(data, "\n")
			return ev, nil
		}
	}
}
