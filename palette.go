package canopy

// levelPalette assigns colors to level labels. Canonical levels take the
// palette in Levels order; other labels are assigned in order of first
// appearance, wrapping around the palette.
type levelPalette struct {
	colors   []Color
	assigned map[string]Color
}

func newLevelPalette(colors []Color) *levelPalette {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	p := &levelPalette{colors: colors, assigned: make(map[string]Color)}
	for i, l := range Levels {
		p.assigned[l] = colors[i%len(colors)]
	}
	return p
}

func (p *levelPalette) color(level string) Color {
	if c, ok := p.assigned[level]; ok {
		return c
	}
	c := p.colors[len(p.assigned)%len(p.colors)]
	p.assigned[level] = c
	return c
}
