// update.go — With-field updates and JSON merge patches.
// Card has value semantics, so every helper takes the card by value and
// returns the modified copy.
package card

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Layer returns the layer stored for role.
func (c Card) Layer(r Role) TextLayer {
	if r < 0 || int(r) >= RoleCount {
		return TextLayer{}
	}
	return c.Layers[r]
}

// WithLayer replaces the layer for role.
func (c Card) WithLayer(r Role, l TextLayer) Card {
	if r < 0 || int(r) >= RoleCount {
		return c
	}
	c.Layers[r] = l
	return c
}

// UpdateLayer applies fn to a copy of the layer for role.
func (c Card) UpdateLayer(r Role, fn func(TextLayer) TextLayer) Card {
	return c.WithLayer(r, fn(c.Layer(r)))
}

// WithContent sets the content of one layer.
func (c Card) WithContent(r Role, content string) Card {
	return c.UpdateLayer(r, func(l TextLayer) TextLayer {
		l.Content = content
		return l
	})
}

// WithSize sets the canvas dimensions.
func (c Card) WithSize(width, height int) Card {
	c.Width = width
	c.Height = height
	return c
}

// WithSizePreset sets the canvas dimensions from SizePresets.
func (c Card) WithSizePreset(name string) (Card, bool) {
	dims, ok := SizePresets[name]
	if !ok {
		return c, false
	}
	return c.WithSize(dims[0], dims[1]), true
}

// WithBackgroundImage sets or clears (ref == "") the background image.
func (c Card) WithBackgroundImage(ref string) Card {
	c.Background.Image = ref
	return c
}

// WithPadding replaces the safe-area insets.
func (c Card) WithPadding(p Insets) Card {
	c.Padding = p
	return c
}

// WithBorder replaces the frame settings.
func (c Card) WithBorder(b Border) Card {
	c.Border = b
	return c
}

// WithBorderRadius writes the same radius to all four corners.
func (c Card) WithBorderRadius(r int) Card {
	c.Border.Radius = UniformCorners(r)
	return c
}

// WithFooter replaces the footer settings.
func (c Card) WithFooter(f Footer) Card {
	c.Footer = f
	return c
}

// WithSocial sets one footer social entry.
func (c Card) WithSocial(key SocialKey, value string) Card {
	c.Footer.Socials = c.Footer.Socials.With(key, value)
	return c
}

// Merge applies a partial JSON document onto c and returns the result.
// Fields absent from patch keep their value. "layers" may be an array
// (positional, shorter arrays leave the remaining layers alone) or an
// object keyed by role name:
//
//	{"layers": {"tafseer": {"content": "..."}}}
func Merge(c Card, patch []byte) (Card, error) {
	patch = bytes.TrimSpace(patch)
	if len(patch) == 0 || bytes.Equal(patch, []byte("null")) {
		return c, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return c, fmt.Errorf("merge card patch: %w", err)
	}
	layers, hasLayers := fields["layers"]
	delete(fields, "layers")

	out := c
	if len(fields) > 0 {
		rest, err := json.Marshal(fields)
		if err != nil {
			return c, fmt.Errorf("merge card patch: %w", err)
		}
		if err := json.Unmarshal(rest, &out); err != nil {
			return c, fmt.Errorf("merge card patch: %w", err)
		}
	}

	if hasLayers {
		if err := mergeLayers(&out, layers); err != nil {
			return c, fmt.Errorf("merge card patch: %w", err)
		}
	}
	return out, nil
}

// mergeLayers decodes each layer patch into the existing layer value.
func mergeLayers(c *Card, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil

	case raw[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		if len(items) > RoleCount {
			return fmt.Errorf("layers: %d entries, at most %d allowed", len(items), RoleCount)
		}
		for i, item := range items {
			if err := mergeLayer(&c.Layers[i], item); err != nil {
				return fmt.Errorf("layers[%d]: %w", i, err)
			}
		}

	case raw[0] == '{':
		var byRole map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byRole); err != nil {
			return err
		}
		for name, item := range byRole {
			r, ok := ParseRole(name)
			if !ok {
				return fmt.Errorf("layers: unknown role %q", name)
			}
			if err := mergeLayer(&c.Layers[r], item); err != nil {
				return fmt.Errorf("layers.%s: %w", name, err)
			}
		}

	default:
		return fmt.Errorf("layers: expected array or object")
	}
	return nil
}

func mergeLayer(l *TextLayer, raw json.RawMessage) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, l)
}
