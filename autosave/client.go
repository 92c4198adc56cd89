// Package autosave ships in-progress answer snapshots to the draft endpoint
// on a fixed interval. It backs the in-store kiosk flow, where a browser
// unload can lose twenty minutes of patient typing.
package autosave

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// SnapshotFunc returns the current answer snapshot to ship. It is called
// once per tick on the client's goroutine.
type SnapshotFunc func() entities.AnswerSet

// NotifyFunc surfaces a save failure to the user. It is invoked at most
// once per failure streak; a successful save re-arms it.
type NotifyFunc func(err error)

type draftPayload struct {
	Token    string             `json:"token"`
	FormData entities.AnswerSet `json:"formData"`
}

// Client periodically posts the answer snapshot to the draft endpoint.
// Saves are fire and forget: failures notify once and the interval keeps
// running. Stop cancels the ticker so no save fires after the enclosing
// form is gone.
type Client struct {
	endpoint string
	token    string
	snapshot SnapshotFunc
	notify   NotifyFunc
	interval time.Duration
	http     *http.Client

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	notified bool
}

// NewClient creates an auto-save client. endpoint is the full draft-save
// URL for the token's entry.
func NewClient(endpoint, token string, snapshot SnapshotFunc, notify NotifyFunc, interval time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		snapshot: snapshot,
		notify:   notify,
		interval: interval,
		http:     &http.Client{Timeout: 10 * time.Second},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the save loop. It returns immediately; the loop runs until
// Stop is called, the context is cancelled, or the server reports the entry
// as already submitted.
func (c *Client) Start(ctx context.Context) error {
	if c.token == "" {
		return fmt.Errorf("auto-save requires a token")
	}
	if c.interval <= 0 {
		return fmt.Errorf("auto-save interval must be positive, got %v", c.interval)
	}

	c.started.Store(true)
	go c.run(ctx)
	return nil
}

// Stop cancels the ticker and waits for the loop to exit. An in-flight save
// is allowed to finish. Safe to call more than once, and after a Start that
// refused to launch the loop.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	// Only the loop closes done, so waiting for it when Start never
	// launched one would block forever.
	if c.started.Load() {
		<-c.done
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if finished := c.saveOnce(ctx); finished {
				return
			}
		}
	}
}

// saveOnce ships one snapshot. It returns true when the loop should stop
// for good, which happens once the entry is submitted or its token expired.
func (c *Client) saveOnce(ctx context.Context) bool {
	answers := c.snapshot()
	if !hasContent(answers) {
		return false
	}

	err := c.postDraft(ctx, answers)
	if err == nil {
		c.notified = false
		return false
	}

	// Submitted or expired entries will never accept a draft again, so
	// keeping the ticker alive would just hammer the endpoint.
	var status *statusError
	if errors.As(err, &status) && (status.code == http.StatusConflict || status.code == http.StatusGone) {
		logging.Info("Auto-save stopped, entry no longer accepts drafts", "status", status.code)
		return true
	}

	if !c.notified {
		c.notified = true
		if c.notify != nil {
			c.notify(err)
		}
		logging.Warn("Auto-save failed", "error", err)
	}
	return false
}

func (c *Client) postDraft(ctx context.Context, answers entities.AnswerSet) error {
	body, err := json.Marshal(draftPayload{Token: c.token, FormData: answers})
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building draft request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// hasContent reports whether at least one answer carries a non-empty value.
// Explicit false and 0 count as content; empty strings and nils do not.
func hasContent(answers entities.AnswerSet) bool {
	for _, value := range answers {
		if entities.IsAnswered(value) {
			return true
		}
	}
	return false
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("draft endpoint returned status %d", e.code)
}
