package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"event-panel/internal/domain"
)

var ErrEmptySearchTerm = errors.New("search term is empty")

// Hymnal searches the song database and turns hits into display cards.
type Hymnal struct {
	searcher SongSearcher
	notifier Notifier
	logger   *slog.Logger
}

func NewHymnal(searcher SongSearcher, notifier Notifier, logger *slog.Logger) *Hymnal {
	return &Hymnal{
		searcher: searcher,
		notifier: notifier,
		logger:   logger,
	}
}

// Search returns a renderable result even when it fails, so the caller can
// show the error card without building one itself.
func (h *Hymnal) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.SearchResult{}, ErrEmptySearchTerm
	}

	result := domain.SearchResult{Term: term, Cards: []domain.SongCard{}}

	songs, err := h.searcher.SearchSongs(ctx, term)
	if err != nil {
		h.logger.Error("searching songs", "term", term, "error", err)
		result.Failed = true
		result.Message = "Erro ao pesquisar músicas. Tente novamente."
		h.notify(ctx, domain.ErrorToast("Erro ao pesquisar músicas"))
		return result, fmt.Errorf("searching songs: %w", err)
	}

	if len(songs) == 0 {
		h.logger.Info("no songs found", "term", term)
		result.Message = "Nenhuma música encontrada"
		return result, nil
	}

	for _, s := range songs {
		result.Cards = append(result.Cards, s.Card())
	}

	h.logger.Info("songs found", "term", term, "count", len(songs))
	h.notify(ctx, domain.InfoToast(fmt.Sprintf("%d música(s) encontrada(s)", len(songs))))
	return result, nil
}

func (h *Hymnal) notify(ctx context.Context, toast domain.Toast) {
	if err := h.notifier.Notify(ctx, toast); err != nil {
		h.logger.Error("notifying toast", "error", err)
	}
}
