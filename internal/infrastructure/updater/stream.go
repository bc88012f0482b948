package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/logging"
)

// StreamConfig configures the firmware stream opener.
type StreamConfig struct {
	UserAgent          string
	IdleTimeout        time.Duration
	InsecureSkipVerify bool
}

// StreamOpener issues the streaming firmware GET.
type StreamOpener struct {
	client *http.Client
	cfg    StreamConfig
}

// NewStreamOpener creates a stream opener over a download client.
func NewStreamOpener(client *http.Client, cfg StreamConfig) *StreamOpener {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultDownloadTimeout
	}
	return &StreamOpener{client: client, cfg: cfg}
}

// Open implements port.FirmwareStreamer. The returned body cancels the
// request when no data arrives for the idle timeout.
func (o *StreamOpener) Open(ctx context.Context, url string) (*port.FirmwareStream, error) {
	log := logging.FromContext(ctx)

	if o.cfg.InsecureSkipVerify {
		log.Warn().Str("url", url).Msg("TLS certificate validation is disabled")
	}

	reqCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", o.cfg.UserAgent)
	req.Close = true

	resp, err := o.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %d", port.ErrUnexpectedStatus, resp.StatusCode)
	}

	if resp.ContentLength <= 0 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %d", port.ErrNoContentLength, resp.ContentLength)
	}

	log.Debug().Int64("content_length", resp.ContentLength).Msg("firmware stream opened")

	return &port.FirmwareStream{
		Body:          newIdleReader(resp.Body, o.cfg.IdleTimeout, cancel),
		ContentLength: resp.ContentLength,
	}, nil
}

// idleReader cancels its request when a single read does not complete within
// idle. Time spent between reads is not counted.
type idleReader struct {
	body   io.ReadCloser
	idle   time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
}

func newIdleReader(body io.ReadCloser, idle time.Duration, cancel context.CancelFunc) *idleReader {
	timer := time.AfterFunc(idle, cancel)
	timer.Stop()
	return &idleReader{
		body:   body,
		idle:   idle,
		timer:  timer,
		cancel: cancel,
	}
}

func (r *idleReader) Read(p []byte) (int, error) {
	r.timer.Reset(r.idle)
	n, err := r.body.Read(p)
	r.timer.Stop()
	return n, err
}

func (r *idleReader) Close() error {
	r.timer.Stop()
	err := r.body.Close()
	r.cancel()
	return err
}
