package style

import "strings"

// Tokens are resolved theme colors for one variant (light or dark).
type Tokens struct {
	Background string `toml:"background" yaml:"background"`
	Foreground string `toml:"foreground" yaml:"foreground"`
	Card       string `toml:"card" yaml:"card"`
	Border     string `toml:"border" yaml:"border"`
	Primary    string `toml:"primary" yaml:"primary"`
	Accent     string `toml:"accent" yaml:"accent"`
	Muted      string `toml:"muted" yaml:"muted"`
}

// Palette holds every color the styler hands out.
type Palette struct {
	Background string

	NodeActive   string
	NodeNeighbor string
	NodeHover    string
	NodeDefault  string

	LabelActive   string
	LabelNeighbor string
	LabelDefault  string

	LinkActive string
	LinkMuted  string
}

// Light returns the built-in light palette.
func Light() Palette {
	return Palette{
		Background:    "#ffffff",
		NodeActive:    "#2563eb",
		NodeNeighbor:  "#60a5fa",
		NodeHover:     "#0ea5e9",
		NodeDefault:   "#111827",
		LabelActive:   "#1e40af",
		LabelNeighbor: "#3b82f6",
		LabelDefault:  "#334155",
		LinkActive:    "rgba(37,99,235,0.95)",
		LinkMuted:     "rgba(203,213,225,0.3)",
	}
}

// Dark returns the built-in dark palette.
func Dark() Palette {
	return Palette{
		Background:    "#0b1120",
		NodeActive:    "#3b82f6",
		NodeNeighbor:  "#93c5fd",
		NodeHover:     "#38bdf8",
		NodeDefault:   "#e5e7eb",
		LabelActive:   "#bfdbfe",
		LabelNeighbor: "#93c5fd",
		LabelDefault:  "#cbd5e1",
		LinkActive:    "rgba(96,165,250,0.95)",
		LinkMuted:     "rgba(71,85,105,0.4)",
	}
}

// PaletteFor builds a palette from theme tokens. Empty tokens fall back to
// the built-in palette of the same variant.
func PaletteFor(t Tokens, dark bool) Palette {
	p := Light()
	if dark {
		p = Dark()
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&p.Background, t.Background)
	set(&p.NodeDefault, t.Foreground)
	set(&p.NodeActive, t.Primary)
	set(&p.NodeHover, t.Accent)
	set(&p.LabelDefault, t.Muted)
	return p
}
