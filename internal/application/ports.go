package application

import (
	"context"

	"event-panel/internal/domain"
)

// The backend answers every call either with a result, a
// *domain.RejectionError (it replied but refused) or a transport error.

type StatusChecker interface {
	Status(ctx context.Context) (domain.ConnectionStatus, error)
}

type PreviewSource interface {
	Preview(ctx context.Context) (string, error)
}

type SceneController interface {
	Scenes(ctx context.Context) ([]string, error)
	SwitchScene(ctx context.Context, name string) (string, error)
}

type RelayController interface {
	ControlRelay(ctx context.Context, target string, state domain.RelayState) (string, error)
	RelayStatus(ctx context.Context) (map[string]domain.RelayState, error)
}

type SongSearcher interface {
	SearchSongs(ctx context.Context, term string) ([]domain.Song, error)
}

// Publisher receives state changes for live panels.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ domain.Event) {}
