package application

import (
	"context"
	"log/slog"

	"event-panel/internal/domain"
)

// Panel ties the relay store, the mixer monitor, the scene board and the
// hymnal together behind one lifecycle.
type Panel struct {
	relays  *RelaySync
	monitor *Monitor
	scenes  *SceneBoard
	hymnal  *Hymnal
	logger  *slog.Logger
}

func NewPanel(
	relays *RelaySync,
	monitor *Monitor,
	scenes *SceneBoard,
	hymnal *Hymnal,
	logger *slog.Logger,
) *Panel {
	return &Panel{
		relays:  relays,
		monitor: monitor,
		scenes:  scenes,
		hymnal:  hymnal,
		logger:  logger,
	}
}

// Run loads the initial state and polls until ctx is done. Startup failures
// are toasted by the components and never stop the panel.
func (p *Panel) Run(ctx context.Context) error {
	p.logger.Info("syncing relay status")
	if err := p.relays.LoadInitialStatus(ctx); err != nil {
		p.logger.Warn("initial relay sync failed, switches start off", "error", err)
	}

	p.logger.Info("loading scenes")
	if err := p.scenes.Load(ctx); err != nil {
		p.logger.Warn("initial scene load failed", "error", err)
	}

	p.monitor.Start(ctx)
	defer p.monitor.Stop()

	p.logger.Info("panel ready")

	<-ctx.Done()
	p.logger.Info("panel stopping")
	return ctx.Err()
}

func (p *Panel) Snapshot() domain.PanelState {
	return domain.PanelState{
		Connection: p.monitor.Connection(),
		Preview:    p.monitor.Preview(),
		Previewing: p.monitor.PreviewRunning(),
		Relays:     p.relays.Snapshot(),
		Scenes:     p.scenes.List(),
	}
}

func (p *Panel) Relays() *RelaySync {
	return p.relays
}

func (p *Panel) Monitor() *Monitor {
	return p.monitor
}

func (p *Panel) Scenes() *SceneBoard {
	return p.scenes
}

func (p *Panel) Hymnal() *Hymnal {
	return p.hymnal
}
