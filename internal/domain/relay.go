package domain

import "fmt"

type RelayState string

const (
	RelayOn  RelayState = "on"
	RelayOff RelayState = "off"
)

func StateOf(on bool) RelayState {
	if on {
		return RelayOn
	}
	return RelayOff
}

func ParseRelayState(s string) (RelayState, error) {
	switch RelayState(s) {
	case RelayOn, RelayOff:
		return RelayState(s), nil
	default:
		return "", fmt.Errorf("invalid relay state %q: want on or off", s)
	}
}

func (s RelayState) On() bool {
	return s == RelayOn
}

// Relay is a single remotely controlled breaker.
type Relay struct {
	ID string `json:"id"`
	On bool   `json:"on"`
}

// RelayGroup is a fixed set of relays driven by one group switch.
type RelayGroup struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Members []string `json:"members"`
	On      bool     `json:"on"`
}

func (g RelayGroup) DisplayName() string {
	if g.Label != "" {
		return g.Label
	}
	return g.ID
}

type RelaySnapshot struct {
	Relays []Relay      `json:"relays"`
	Groups []RelayGroup `json:"groups"`
}
