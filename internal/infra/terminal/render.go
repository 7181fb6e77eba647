package terminal

import (
	"fmt"
	"io"
	"strings"

	"event-panel/internal/domain"
)

func RenderState(w io.Writer, state domain.PanelState) {
	RenderConnection(w, state.Connection)
	RenderPreview(w, state.Preview, state.Previewing)
	fmt.Fprintln(w)
	RenderRelays(w, state.Relays)
	fmt.Fprintln(w)
	RenderScenes(w, state.Scenes)
}

func RenderConnection(w io.Writer, status domain.ConnectionStatus) {
	if status.Connected {
		onColor.Fprint(w, "● OBS conectado")
	} else {
		errorColor.Fprint(w, "● OBS desconectado")
	}
	if status.Message != "" {
		fmt.Fprintf(w, " (%s)", status.Message)
	}
	fmt.Fprintln(w)
}

func RenderPreview(w io.Writer, frame domain.PreviewFrame, running bool) {
	switch {
	case frame.Error != "":
		errorColor.Fprintf(w, "Erro no Preview: %s\n", frame.Error)
	case frame.HasImage():
		fmt.Fprintf(w, "Preview: imagem recebida (%d bytes) às %s\n", len(frame.ImageData), frame.UpdatedAt.Format("15:04:05"))
	default:
		offColor.Fprintln(w, "Preview: aguardando imagem")
	}
	if !running {
		warnColor.Fprintln(w, "Preview parado")
	}
}

func RenderRelays(w io.Writer, snap domain.RelaySnapshot) {
	titleColor.Fprintln(w, "Tetos")
	for _, g := range snap.Groups {
		fmt.Fprintf(w, "  %-10s ", g.DisplayName())
		renderSwitch(w, g.On)
		fmt.Fprintf(w, "  [%s]\n", strings.Join(g.Members, ", "))
	}

	titleColor.Fprintln(w, "Fileiras")
	for _, r := range snap.Relays {
		fmt.Fprintf(w, "  Fileira %-3s ", r.ID)
		renderSwitch(w, r.On)
		fmt.Fprintln(w)
	}
}

func renderSwitch(w io.Writer, on bool) {
	if on {
		onColor.Fprint(w, "ON ")
		return
	}
	offColor.Fprint(w, "OFF")
}

func RenderScenes(w io.Writer, list domain.SceneList) {
	titleColor.Fprintln(w, "Cenas")
	if list.Message != "" {
		if list.Failed {
			errorColor.Fprintf(w, "  %s\n", list.Message)
		} else {
			fmt.Fprintf(w, "  %s\n", list.Message)
		}
	}
	for _, s := range list.Scenes {
		fmt.Fprintf(w, "  • %s\n", s.Name)
	}
}

// RenderSearch prints one card per song, lines indented under the title.
func RenderSearch(w io.Writer, result domain.SearchResult) {
	if result.Message != "" {
		if result.Failed {
			errorColor.Fprintln(w, result.Message)
		} else {
			fmt.Fprintln(w, result.Message)
		}
		return
	}

	for i, card := range result.Cards {
		if i > 0 {
			fmt.Fprintln(w)
		}
		titleColor.Fprintln(w, card.Title)
		if card.Categories != "" {
			offColor.Fprintf(w, "%s\n", card.Categories)
		}
		for _, line := range card.Lines {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
