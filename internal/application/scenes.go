package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"event-panel/internal/domain"
)

var ErrEmptySceneName = errors.New("scene name is empty")

// SceneBoard keeps the list of mixer scenes the operator can put on air.
type SceneBoard struct {
	controller SceneController
	notifier   Notifier
	publisher  Publisher
	logger     *slog.Logger

	mu   sync.RWMutex
	list domain.SceneList
}

func NewSceneBoard(controller SceneController, notifier Notifier, publisher Publisher, logger *slog.Logger) *SceneBoard {
	return &SceneBoard{
		controller: controller,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
	}
}

func (b *SceneBoard) Load(ctx context.Context) error {
	names, err := b.controller.Scenes(ctx)

	var list domain.SceneList
	switch {
	case err != nil:
		list.Failed = true
		var rejected *domain.RejectionError
		if errors.As(err, &rejected) {
			msg := rejected.Message
			if msg == "" {
				msg = "Erro desconhecido"
			}
			list.Message = "Erro ao carregar cenas: " + msg
		} else {
			list.Message = "Erro de rede ao carregar cenas. Verifique a conexão com o servidor."
		}
		b.logger.Error("loading scenes", "error", err)
	case len(names) == 0:
		list.Message = "Nenhuma cena encontrada no OBS."
		b.logger.Info("no scenes found")
	default:
		list.Scenes = make([]domain.Scene, 0, len(names))
		for _, n := range names {
			list.Scenes = append(list.Scenes, domain.Scene{Name: n})
		}
		b.logger.Info("scenes loaded", "count", len(names))
	}

	b.mu.Lock()
	b.list = list
	b.mu.Unlock()

	b.publisher.Publish(ctx, domain.Event{Type: domain.EventScenes, Data: list})

	if err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}
	return nil
}

func (b *SceneBoard) Switch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptySceneName
	}

	_, err := b.controller.SwitchScene(ctx, name)
	if err != nil {
		b.logger.Error("switching scene", "scene", name, "error", err)
		var rejected *domain.RejectionError
		if errors.As(err, &rejected) {
			msg := rejected.Message
			if msg == "" {
				msg = "Erro desconhecido"
			}
			b.notify(ctx, domain.ErrorToast("Erro: "+msg))
		} else {
			b.notify(ctx, domain.ErrorToast("Erro de conexão ao tentar alterar cena"))
		}
		return fmt.Errorf("switching scene %q: %w", name, err)
	}

	b.logger.Info("scene command sent", "scene", name)
	b.notify(ctx, domain.InfoToast("Comando enviado para: "+name))
	return nil
}

func (b *SceneBoard) List() domain.SceneList {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.list
	list.Scenes = append([]domain.Scene(nil), b.list.Scenes...)
	return list
}

func (b *SceneBoard) notify(ctx context.Context, toast domain.Toast) {
	if err := b.notifier.Notify(ctx, toast); err != nil {
		b.logger.Error("notifying toast", "error", err)
	}
}
