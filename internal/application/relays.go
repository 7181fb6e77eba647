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

var (
	ErrUnknownRelay = errors.New("unknown relay")
	ErrUnknownGroup = errors.New("unknown relay group")
)

// RelaySync is the in-memory store of relay and group switch states. Every
// surface renders from it; none of them is a source of truth.
type RelaySync struct {
	controller RelayController
	notifier   Notifier
	publisher  Publisher
	logger     *slog.Logger

	// actions serialises state-changing calls so a rollback never races
	// another action on the same switch.
	actions sync.Mutex

	mu         sync.RWMutex
	order      []string
	relays     map[string]bool
	groups     []domain.RelayGroup
	groupIndex map[string]int
}

func NewRelaySync(
	relayIDs []string,
	groups []domain.RelayGroup,
	controller RelayController,
	notifier Notifier,
	publisher Publisher,
	logger *slog.Logger,
) *RelaySync {
	r := &RelaySync{
		controller: controller,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
		relays:     make(map[string]bool),
		groupIndex: make(map[string]int),
	}

	for _, id := range relayIDs {
		r.addRelay(id)
	}

	for _, g := range groups {
		members := make([]string, len(g.Members))
		copy(members, g.Members)
		for _, m := range members {
			r.addRelay(m)
		}
		r.groupIndex[g.ID] = len(r.groups)
		r.groups = append(r.groups, domain.RelayGroup{
			ID:      g.ID,
			Label:   g.Label,
			Members: members,
		})
	}

	return r
}

func (r *RelaySync) addRelay(id string) {
	if _, ok := r.relays[id]; ok {
		return
	}
	r.relays[id] = false
	r.order = append(r.order, id)
}

// SetIndividual optimistically switches one relay, asks the backend to do the
// same and rolls the switch back if the backend refuses or cannot be reached.
func (r *RelaySync) SetIndividual(ctx context.Context, relayID string, on bool) error {
	r.actions.Lock()
	defer r.actions.Unlock()

	r.mu.Lock()
	prev, ok := r.relays[relayID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRelay, relayID)
	}
	r.relays[relayID] = on
	r.mu.Unlock()

	state := domain.StateOf(on)
	msg, err := r.controller.ControlRelay(ctx, relayID, state)
	if err != nil {
		r.mu.Lock()
		r.relays[relayID] = prev
		r.mu.Unlock()

		r.logger.Error("relay control failed, rolled back",
			"relay", relayID,
			"state", state,
			"error", err,
		)
		r.notify(ctx, relayFailureToast(err))
	} else {
		if msg == "" {
			msg = fmt.Sprintf("Fileira %s alterado(s) para %s com sucesso", relayID, strings.ToUpper(string(state)))
		}
		r.logger.Info("relay switched", "relay", relayID, "state", state)
		r.notify(ctx, domain.InfoToast(msg))
	}

	r.RecomputeGroupStates(ctx)

	if err != nil {
		return fmt.Errorf("switching relay %s %s: %w", relayID, state, err)
	}
	return nil
}

// SetGroup asks the backend to switch a whole group. Members follow only when
// the backend accepts.
func (r *RelaySync) SetGroup(ctx context.Context, groupID string, on bool) error {
	r.actions.Lock()
	defer r.actions.Unlock()

	r.mu.Lock()
	idx, ok := r.groupIndex[groupID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}
	r.groups[idx].On = on
	group := r.groups[idx]
	r.mu.Unlock()

	state := domain.StateOf(on)
	msg, err := r.controller.ControlRelay(ctx, groupID, state)
	if err != nil {
		r.logger.Error("group control failed",
			"group", groupID,
			"state", state,
			"error", err,
		)
		r.notify(ctx, relayFailureToast(err))
	} else {
		r.mu.Lock()
		for _, m := range group.Members {
			r.relays[m] = on
		}
		r.mu.Unlock()

		if msg == "" {
			msg = fmt.Sprintf("Teto '%s' alterado(s) para %s com sucesso", group.DisplayName(), strings.ToUpper(string(state)))
		}
		r.logger.Info("group switched", "group", groupID, "members", group.Members, "state", state)
		r.notify(ctx, domain.InfoToast(msg))
	}

	r.RecomputeGroupStates(ctx)

	if err != nil {
		return fmt.Errorf("switching group %s %s: %w", groupID, state, err)
	}
	return nil
}

// RecomputeGroupStates derives every group switch from its members.
func (r *RelaySync) RecomputeGroupStates(ctx context.Context) {
	r.mu.Lock()
	for i := range r.groups {
		allOn := true
		for _, m := range r.groups[i].Members {
			if !r.relays[m] {
				allOn = false
				break
			}
		}
		// A mixed group shows as off, same as an all-off group. There is no
		// indeterminate state.
		r.groups[i].On = allOn
	}
	r.mu.Unlock()

	r.publisher.Publish(ctx, domain.Event{Type: domain.EventRelays, Data: r.Snapshot()})
}

// LoadInitialStatus replaces switch states with the backend's snapshot.
// Relays the panel does not know about are ignored.
func (r *RelaySync) LoadInitialStatus(ctx context.Context) error {
	r.actions.Lock()
	defer r.actions.Unlock()

	status, err := r.controller.RelayStatus(ctx)
	if err != nil {
		r.logger.Error("fetching initial relay status", "error", err)
		var rejected *domain.RejectionError
		if errors.As(err, &rejected) {
			r.notify(ctx, domain.ErrorToast("Falha ao sincronizar status dos disjuntores"))
		} else {
			r.notify(ctx, domain.ErrorToast("Erro de rede ao buscar status dos disjuntores"))
		}
		return fmt.Errorf("fetching relay status: %w", err)
	}

	r.mu.Lock()
	for id, state := range status {
		if _, ok := r.relays[id]; !ok {
			r.logger.Debug("ignoring status for unknown relay", "relay", id)
			continue
		}
		r.relays[id] = state.On()
	}
	r.mu.Unlock()

	r.logger.Info("relay status synced", "relays", len(status))
	r.RecomputeGroupStates(ctx)
	r.notify(ctx, domain.InfoToast("Status dos disjuntores sincronizado."))
	return nil
}

func (r *RelaySync) Snapshot() domain.RelaySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := domain.RelaySnapshot{
		Relays: make([]domain.Relay, 0, len(r.order)),
		Groups: make([]domain.RelayGroup, 0, len(r.groups)),
	}
	for _, id := range r.order {
		snap.Relays = append(snap.Relays, domain.Relay{ID: id, On: r.relays[id]})
	}
	for _, g := range r.groups {
		members := make([]string, len(g.Members))
		copy(members, g.Members)
		g.Members = members
		snap.Groups = append(snap.Groups, g)
	}
	return snap
}

func (r *RelaySync) Relay(id string) (bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	on, ok := r.relays[id]
	return on, ok
}

func (r *RelaySync) Group(id string) (domain.RelayGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.groupIndex[id]
	if !ok {
		return domain.RelayGroup{}, false
	}
	return r.groups[idx], true
}

func (r *RelaySync) notify(ctx context.Context, toast domain.Toast) {
	if err := r.notifier.Notify(ctx, toast); err != nil {
		r.logger.Error("notifying toast", "error", err)
	}
}

func relayFailureToast(err error) domain.Toast {
	var rejected *domain.RejectionError
	if errors.As(err, &rejected) {
		msg := rejected.Message
		if msg == "" {
			msg = "Falha no controle do relé"
		}
		return domain.ErrorToast("Erro: " + msg)
	}
	return domain.ErrorToast("Erro de conexão ao controlar relé")
}
