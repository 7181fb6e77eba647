package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"event-panel/internal/domain"
)

const (
	DefaultStatusInterval  = 30 * time.Second
	DefaultPreviewInterval = 2 * time.Second
)

// Monitor watches the video mixer: a slow status poll decides whether the
// fast preview poll should run at all.
type Monitor struct {
	status    StatusChecker
	preview   PreviewSource
	publisher Publisher
	logger    *slog.Logger

	statusPoller  *Poller
	previewPoller *Poller

	mu    sync.RWMutex
	conn  domain.ConnectionStatus
	frame domain.PreviewFrame
}

func NewMonitor(
	status StatusChecker,
	preview PreviewSource,
	publisher Publisher,
	logger *slog.Logger,
	statusInterval time.Duration,
	previewInterval time.Duration,
) *Monitor {
	if statusInterval <= 0 {
		statusInterval = DefaultStatusInterval
	}
	if previewInterval <= 0 {
		previewInterval = DefaultPreviewInterval
	}

	m := &Monitor{
		status:    status,
		preview:   preview,
		publisher: publisher,
		logger:    logger,
	}
	m.statusPoller = NewPoller("status", statusInterval, m.CheckStatus, logger)
	m.previewPoller = NewPoller("preview", previewInterval, m.RefreshPreview, logger)
	return m
}

// Start begins both polls, preview first, as the control page does on load.
func (m *Monitor) Start(ctx context.Context) {
	m.previewPoller.Start(ctx)
	m.statusPoller.Start(ctx)
}

func (m *Monitor) Stop() {
	m.statusPoller.Stop()
	m.previewPoller.Stop()
}

func (m *Monitor) StartPreview(ctx context.Context) {
	m.previewPoller.Start(ctx)
}

func (m *Monitor) StopPreview() {
	m.previewPoller.Stop()
}

func (m *Monitor) PreviewRunning() bool {
	return m.previewPoller.IsRunning()
}

func (m *Monitor) PreviewPoller() *Poller {
	return m.previewPoller
}

// CheckStatus runs one status check. A connected mixer gets a preview poll if
// none is running; anything else stops it and shows a placeholder.
func (m *Monitor) CheckStatus(ctx context.Context) error {
	status, err := m.status.Status(ctx)
	if err != nil {
		m.setConnection(ctx, domain.ConnectionStatus{
			Connected: false,
			Message:   "Erro de rede ao verificar status do OBS.",
			CheckedAt: time.Now(),
		})
		m.previewPoller.Stop()
		m.showPreviewError(ctx, "Erro de rede")
		return fmt.Errorf("checking status: %w", err)
	}

	if status.CheckedAt.IsZero() {
		status.CheckedAt = time.Now()
	}

	if !status.Connected {
		if status.Message == "" {
			status.Message = "Erro desconhecido ao conectar ao OBS"
		}
		m.logger.Warn("mixer disconnected", "message", status.Message)
		m.setConnection(ctx, status)
		m.previewPoller.Stop()
		m.showPreviewError(ctx, "OBS desconectado")
		return nil
	}

	m.logger.Debug("mixer connected")
	m.setConnection(ctx, status)
	if !m.previewPoller.IsRunning() {
		m.previewPoller.Start(ctx)
	}
	return nil
}

// RefreshPreview fetches one frame. A refused frame keeps the poll going; a
// network failure ends it until the next good status check.
func (m *Monitor) RefreshPreview(ctx context.Context) error {
	image, err := m.preview.Preview(ctx)
	if err != nil {
		var rejected *domain.RejectionError
		if errors.As(err, &rejected) {
			msg := rejected.Message
			if msg == "" {
				msg = "Falha ao obter imagem"
			}
			m.showPreviewError(ctx, msg)
			return fmt.Errorf("fetching preview: %w", err)
		}
		m.showPreviewError(ctx, "Erro de rede")
		return fmt.Errorf("fetching preview: %w: %w", ErrStopPolling, err)
	}

	if image == "" {
		m.showPreviewError(ctx, "Falha ao obter imagem")
		return nil
	}

	m.mu.Lock()
	m.frame = domain.PreviewFrame{ImageData: image, UpdatedAt: time.Now()}
	frame := m.frame
	m.mu.Unlock()

	m.publisher.Publish(ctx, domain.Event{Type: domain.EventPreview, Data: frame})
	return nil
}

func (m *Monitor) Connection() domain.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Monitor) Preview() domain.PreviewFrame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame
}

func (m *Monitor) setConnection(ctx context.Context, status domain.ConnectionStatus) {
	m.mu.Lock()
	m.conn = status
	m.mu.Unlock()

	m.publisher.Publish(ctx, domain.Event{Type: domain.EventConnection, Data: status})
}

func (m *Monitor) showPreviewError(ctx context.Context, message string) {
	m.mu.Lock()
	m.frame = domain.PreviewFrame{Error: message, UpdatedAt: time.Now()}
	frame := m.frame
	m.mu.Unlock()

	m.publisher.Publish(ctx, domain.Event{Type: domain.EventPreview, Data: frame})
}
