package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kilupskalvis/gitsim/internal/interp"
	"github.com/kilupskalvis/gitsim/internal/models"
)

// WebhookEvent is the payload posted to webhook URLs after a state change.
type WebhookEvent struct {
	Event     string      `json:"event"`
	Command   string      `json:"command"`
	Output    []string    `json:"output"`
	Head      models.Head `json:"head"`
	Commits   int         `json:"commits"`
	Timestamp string      `json:"timestamp"`
}

// webhookQueueSize bounds the events waiting for delivery.
const webhookQueueSize = 64

// WebhookNotifier posts state changes to configured URLs. A single worker
// delivers events one at a time, so receivers see them in command order.
type WebhookNotifier struct {
	urls   []string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
	// backoff is the base delay between retries.
	backoff time.Duration
	sleep   func(time.Duration)

	queue     chan *WebhookEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebhookNotifier creates a webhook notifier. Returns nil if no URLs are configured.
func NewWebhookNotifier(urls []string, logger *slog.Logger) *WebhookNotifier {
	if len(urls) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	wn := &WebhookNotifier{
		urls:    urls,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		now:     time.Now,
		backoff: time.Second,
		sleep:   time.Sleep,
		queue:   make(chan *WebhookEvent, webhookQueueSize),
		done:    make(chan struct{}),
	}
	wn.wg.Add(1)
	go wn.run()
	return wn
}

// Close stops accepting events, delivers what is already queued and
// waits for the worker to exit. Safe on a nil notifier.
func (wn *WebhookNotifier) Close() {
	if wn == nil {
		return
	}
	wn.closeOnce.Do(func() { close(wn.done) })
	wn.wg.Wait()
}

// Notify implements interp.Notifier. It never blocks: when the queue is
// full the event is dropped and logged.
func (wn *WebhookNotifier) Notify(u *interp.Update) {
	if wn == nil {
		return
	}

	event := &WebhookEvent{
		Event:     "update",
		Command:   u.Command,
		Output:    u.Output,
		Head:      u.Head,
		Timestamp: wn.now().UTC().Format(time.RFC3339),
	}
	if u.State != nil {
		event.Commits = u.State.Commits.Len()
	}

	select {
	case <-wn.done:
		return
	default:
	}
	select {
	case wn.queue <- event:
	default:
		wn.logger.Warn("webhook: queue full, dropping event", "command", event.Command)
	}
}

func (wn *WebhookNotifier) run() {
	defer wn.wg.Done()
	for {
		select {
		case event := <-wn.queue:
			wn.send(event)
		case <-wn.done:
			for {
				select {
				case event := <-wn.queue:
					wn.send(event)
				default:
					return
				}
			}
		}
	}
}

func (wn *WebhookNotifier) send(event *WebhookEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		wn.logger.Error("webhook: marshal event", "error", err)
		return
	}

	for _, url := range wn.urls {
		if err := wn.post(url, data); err != nil {
			wn.logger.Warn("webhook: delivery failed", "url", url, "error", err)
		} else {
			wn.logger.Debug("webhook: delivered", "url", url, "command", event.Command)
		}
	}
}

// post sends a single webhook POST with retry (up to 2 retries).
func (wn *WebhookNotifier) post(url string, data []byte) error {
	const maxRetries = 2

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "gitsim-server/1.0")

		resp, err := wn.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			if resp.StatusCode < 500 {
				return lastErr // don't retry 4xx
			}
		}

		if attempt < maxRetries {
			wn.sleep(time.Duration(attempt+1) * wn.backoff)
		}
	}

	return lastErr
}
