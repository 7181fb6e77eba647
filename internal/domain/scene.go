package domain

type Scene struct {
	Name string `json:"name"`
}

// SceneList is what the scene board renders: either buttons or a message
// explaining why there are none.
type SceneList struct {
	Scenes  []Scene `json:"scenes"`
	Message string  `json:"message,omitempty"`
	Failed  bool    `json:"failed"`
}

func (l SceneList) Names() []string {
	names := make([]string, 0, len(l.Scenes))
	for _, s := range l.Scenes {
		names = append(names, s.Name)
	}
	return names
}
