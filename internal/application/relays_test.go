package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"event-panel/internal/application"
	"event-panel/internal/domain"
)

func TestRelaySync_RecomputeGroupStates(t *testing.T) {
	states := []domain.RelayState{domain.RelayOff, domain.RelayOn}

	for _, a := range states {
		for _, b := range states {
			t.Run(fmt.Sprintf("%s-%s", a, b), func(t *testing.T) {
				backend := &fakeBackend{relayStatus: map[string]domain.RelayState{
					"1": a, "2": b,
					"3": b, "4": a,
					"5": a, "6": a,
				}}
				relays := newRelaySync(backend, &application.NoopNotifier{}, application.NoopPublisher{})

				if err := relays.LoadInitialStatus(context.Background()); err != nil {
					t.Fatalf("LoadInitialStatus error: %v", err)
				}

				for _, g := range relays.Snapshot().Groups {
					want := true
					for _, m := range g.Members {
						on, _ := relays.Relay(m)
						want = want && on
					}
					if g.On != want {
						t.Errorf("group %s: got %v, want %v", g.ID, g.On, want)
					}
				}
			})
		}
	}
}

func TestRelaySync_FrenteFollowsBothMembers(t *testing.T) {
	backend := &fakeBackend{}
	relays := newRelaySync(backend, &application.NoopNotifier{}, application.NoopPublisher{})
	ctx := context.Background()

	if err := relays.SetIndividual(ctx, "1", true); err != nil {
		t.Fatalf("SetIndividual(1) error: %v", err)
	}
	frente, _ := relays.Group("frente")
	if frente.On {
		t.Error("frente should stay off with only relay 1 on")
	}

	if err := relays.SetIndividual(ctx, "2", true); err != nil {
		t.Fatalf("SetIndividual(2) error: %v", err)
	}
	frente, _ = relays.Group("frente")
	if !frente.On {
		t.Error("frente should be on with relays 1 and 2 on")
	}
}

func TestRelaySync_SetGroupPropagatesToMembers(t *testing.T) {
	backend := &fakeBackend{}
	relays := newRelaySync(backend, &application.NoopNotifier{}, application.NoopPublisher{})
	ctx := context.Background()

	for _, on := range []bool{true, false} {
		if err := relays.SetGroup(ctx, "meio", on); err != nil {
			t.Fatalf("SetGroup(meio, %v) error: %v", on, err)
		}
		for _, id := range []string{"3", "4"} {
			got, _ := relays.Relay(id)
			if got != on {
				t.Errorf("relay %s: got %v, want %v", id, got, on)
			}
		}
		meio, _ := relays.Group("meio")
		if meio.On != on {
			t.Errorf("meio: got %v, want %v", meio.On, on)
		}
	}

	for _, id := range []string{"1", "2", "5", "6"} {
		if on, _ := relays.Relay(id); on {
			t.Errorf("relay %s outside the group changed", id)
		}
	}
}

func TestRelaySync_RejectedGroupLeavesMembers(t *testing.T) {
	backend := &fakeBackend{controlErrs: map[string]error{
		"fundo": &domain.RejectionError{Message: "Timeout ao conectar com API do relé 5"},
	}}
	notifier := &recordingNotifier{}
	relays := newRelaySync(backend, notifier, application.NoopPublisher{})

	err := relays.SetGroup(context.Background(), "fundo", true)
	if err == nil {
		t.Fatal("expected error from rejected group")
	}

	for _, id := range []string{"5", "6"} {
		if on, _ := relays.Relay(id); on {
			t.Errorf("relay %s should still be off", id)
		}
	}
	fundo, _ := relays.Group("fundo")
	if fundo.On {
		t.Error("fundo should be recomputed back to off")
	}

	toast, ok := notifier.last()
	if !ok || toast.Level != domain.ToastError {
		t.Fatalf("expected error toast, got %+v", toast)
	}
	if toast.Message != "Erro: Timeout ao conectar com API do relé 5" {
		t.Errorf("toast message: got %q", toast.Message)
	}
}

func TestRelaySync_RejectedIndividualRollsBack(t *testing.T) {
	tests := []struct {
		name      string
		initial   domain.RelayState
		want      bool
		err       error
		wantToast string
	}{
		{
			name:      "rejected turn on",
			initial:   domain.RelayOff,
			want:      true,
			err:       &domain.RejectionError{Message: "Falha ao alterar Fileira 3"},
			wantToast: "Erro: Falha ao alterar Fileira 3",
		},
		{
			name:      "rejected turn off without message",
			initial:   domain.RelayOn,
			want:      false,
			err:       &domain.RejectionError{},
			wantToast: "Erro: Falha no controle do relé",
		},
		{
			name:      "network failure",
			initial:   domain.RelayOff,
			want:      true,
			err:       errors.New("connection refused"),
			wantToast: "Erro de conexão ao controlar relé",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				relayStatus: map[string]domain.RelayState{"3": tt.initial, "4": domain.RelayOn},
				controlErrs: map[string]error{"3": tt.err},
			}
			notifier := &recordingNotifier{}
			relays := newRelaySync(backend, notifier, application.NoopPublisher{})
			ctx := context.Background()

			if err := relays.LoadInitialStatus(ctx); err != nil {
				t.Fatalf("LoadInitialStatus error: %v", err)
			}

			err := relays.SetIndividual(ctx, "3", tt.want)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error: got %v, want wrapping %v", err, tt.err)
			}

			on, _ := relays.Relay("3")
			if on != tt.initial.On() {
				t.Errorf("relay 3 after rollback: got %v, want %v", on, tt.initial.On())
			}

			meio, _ := relays.Group("meio")
			if meio.On != (tt.initial.On()) {
				t.Errorf("meio after rollback: got %v, want %v", meio.On, tt.initial.On())
			}

			toast, _ := notifier.last()
			if toast.Message != tt.wantToast {
				t.Errorf("toast: got %q, want %q", toast.Message, tt.wantToast)
			}
		})
	}
}

func TestRelaySync_OneRequestAndOneRecomputePerAction(t *testing.T) {
	backend := &fakeBackend{controlErrs: map[string]error{"2": errors.New("boom")}}
	publisher := &recordingPublisher{}
	relays := newRelaySync(backend, &application.NoopNotifier{}, publisher)
	ctx := context.Background()

	_ = relays.SetIndividual(ctx, "1", true)
	_ = relays.SetIndividual(ctx, "2", true)
	_ = relays.SetGroup(ctx, "fundo", true)

	calls := backend.calls()
	want := []controlCall{
		{"1", domain.RelayOn},
		{"2", domain.RelayOn},
		{"fundo", domain.RelayOn},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls: got %d, want %d", len(calls), len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %+v, want %+v", i, calls[i], want[i])
		}
	}

	if got := publisher.count(domain.EventRelays); got != 3 {
		t.Errorf("relay events: got %d, want 3", got)
	}
}

func TestRelaySync_UnknownTargets(t *testing.T) {
	backend := &fakeBackend{}
	relays := newRelaySync(backend, &application.NoopNotifier{}, application.NoopPublisher{})
	ctx := context.Background()

	if err := relays.SetIndividual(ctx, "9", true); !errors.Is(err, application.ErrUnknownRelay) {
		t.Errorf("SetIndividual(9): got %v, want ErrUnknownRelay", err)
	}
	if err := relays.SetGroup(ctx, "palco", true); !errors.Is(err, application.ErrUnknownGroup) {
		t.Errorf("SetGroup(palco): got %v, want ErrUnknownGroup", err)
	}
	if len(backend.calls()) != 0 {
		t.Error("unknown targets must not reach the backend")
	}
}

func TestRelaySync_LoadInitialStatus(t *testing.T) {
	backend := &fakeBackend{relayStatus: map[string]domain.RelayState{
		"1": domain.RelayOn,
		"2": domain.RelayOn,
		"5": domain.RelayOn,
		"7": domain.RelayOn,
	}}
	notifier := &recordingNotifier{}
	relays := newRelaySync(backend, notifier, application.NoopPublisher{})

	if err := relays.LoadInitialStatus(context.Background()); err != nil {
		t.Fatalf("LoadInitialStatus error: %v", err)
	}

	snap := relays.Snapshot()
	if len(snap.Relays) != 6 {
		t.Errorf("relays: got %d, want 6 (unknown ids ignored)", len(snap.Relays))
	}

	wantGroups := map[string]bool{"frente": true, "meio": false, "fundo": false}
	for _, g := range snap.Groups {
		if g.On != wantGroups[g.ID] {
			t.Errorf("group %s: got %v, want %v", g.ID, g.On, wantGroups[g.ID])
		}
	}

	toast, _ := notifier.last()
	if toast.Message != "Status dos disjuntores sincronizado." {
		t.Errorf("toast: got %q", toast.Message)
	}
}

func TestRelaySync_LoadInitialStatusFailure(t *testing.T) {
	backend := &fakeBackend{relayStatusErr: errors.New("dial tcp: timeout")}
	notifier := &recordingNotifier{}
	relays := newRelaySync(backend, notifier, application.NoopPublisher{})

	if err := relays.LoadInitialStatus(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	toast, _ := notifier.last()
	if toast.Level != domain.ToastError || toast.Message != "Erro de rede ao buscar status dos disjuntores" {
		t.Errorf("toast: got %+v", toast)
	}
}
