// Package ioproc implements the optional BasicHTTP I/O Processor (spec §6
// "external communication"): a single outbound POST per <send> targeting an
// http(s) URI, carrying the event as a JSON body. Kept stdlib-only
// (net/http) rather than pulling in one of the pack's router/client
// frameworks — those exist in the corpus to *serve* HTTP, not to perform a
// single fire-and-forget outbound call, so adopting one here would be
// unjustified bulk (see DESIGN.md, SPEC_FULL.md "I/O processors").
package ioproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payload is the wire body posted to an http(s) send target.
type Payload struct {
	Name   string         `json:"name"`
	Origin string         `json:"origin"`
	Data   map[string]any `json:"data"`
}

// BasicHTTP posts SCXML events to arbitrary http(s) targets.
type BasicHTTP struct {
	Client *http.Client
}

// NewBasicHTTP constructs a processor with a bounded-timeout client.
func NewBasicHTTP() *BasicHTTP {
	return &BasicHTTP{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Send posts the event to target and returns any request-level error; a
// non-2xx response is reported as an error.communication (spec §7).
func (p *BasicHTTP) Send(ctx context.Context, target, origin, eventName string, data map[string]any) error {
	body, err := json.Marshal(Payload{Name: eventName, Origin: origin, Data: data})
	if err != nil {
		return fmt.Errorf("ioproc: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ioproc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ioproc: post to %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ioproc: target %s returned status %s", target, resp.Status)
	}
	return nil
}

// Location reports the processor's own address, installed as
// _ioprocessors['http://www.w3.org/TR/scxml/#BasicHTTPEventProcessor'].location.
func (p *BasicHTTP) Location(sessionID string) string {
	return ""
}
