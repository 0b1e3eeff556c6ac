// Package card describes one card's complete visual configuration.
//
// A Card is a plain value: every nested record is a struct or a fixed-size
// array, so assigning a Card copies it completely and no two cards share
// mutable state. Updates go through the With* helpers in update.go, which
// return a new Card and leave the receiver untouched.
package card

import "fmt"

// ── Card ──

// Card is the top-level card state.
type Card struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Background Background `json:"background"`
	Padding    Insets     `json:"padding"`
	Border     Border     `json:"border"`

	// Layers holds exactly one record per Role, indexed by Role.
	Layers [RoleCount]TextLayer `json:"layers"`

	Footer Footer `json:"footer"`
}

// Background is the canvas fill, optional cover image and overlay tint.
type Background struct {
	Color string `json:"color"`
	// Image is an asset reference: a file path, an asset id known to the
	// image source, or a data URL. Empty means no image.
	Image          string  `json:"image,omitempty"`
	OverlayColor   string  `json:"overlayColor"`
	OverlayOpacity float64 `json:"overlayOpacity"` // 0.0–1.0
}

// Insets are the four safe-area paddings in px.
type Insets struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// ── Frame ──

// BorderStyle is the stroke pattern of the frame.
type BorderStyle string

// Stroke patterns accepted for the frame.
const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
	BorderDouble BorderStyle = "double"
	BorderGroove BorderStyle = "groove"
	BorderRidge  BorderStyle = "ridge"
	BorderInset  BorderStyle = "inset"
	BorderOutset BorderStyle = "outset"
)

// BorderStyles lists every stroke pattern in display order.
var BorderStyles = []BorderStyle{
	BorderSolid, BorderDashed, BorderDotted, BorderDouble,
	BorderGroove, BorderRidge, BorderInset, BorderOutset,
}

// Border is the decorative frame drawn on the safe-area bounds.
type Border struct {
	Enabled bool        `json:"enabled"`
	Style   BorderStyle `json:"style"`
	Color   string      `json:"color"`
	Width   int         `json:"width"`
	Opacity float64     `json:"opacity"`
	Radius  Corners     `json:"radius"`
}

// Corners holds one radius per corner in px.
type Corners struct {
	TL int `json:"tl"`
	TR int `json:"tr"`
	BR int `json:"br"`
	BL int `json:"bl"`
}

// UniformCorners returns Corners with the same radius everywhere.
func UniformCorners(r int) Corners {
	return Corners{TL: r, TR: r, BR: r, BL: r}
}

// ── Text layers ──

// Role is the fixed semantic slot of a text layer.
type Role int

// Layer roles. The numeric value is the index into Card.Layers.
const (
	RoleAyah Role = iota
	RoleTafseer
	RolePrimarySubtitle
	RoleSecondarySubtitle

	RoleCount = 4
)

// StackOrder is the top-to-bottom order in which layers are stacked.
var StackOrder = [RoleCount]Role{
	RoleAyah,
	RolePrimarySubtitle,
	RoleTafseer,
	RoleSecondarySubtitle,
}

var roleNames = [RoleCount]string{"ayah", "tafseer", "primarySubtitle", "secondarySubtitle"}

func (r Role) String() string {
	if r < 0 || int(r) >= RoleCount {
		return "unknown"
	}
	return roleNames[r]
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(b []byte) error {
	v, ok := ParseRole(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", b)
	}
	*r = v
	return nil
}

// ParseRole maps a role name back to its Role.
func ParseRole(s string) (Role, bool) {
	for i, n := range roleNames {
		if n == s {
			return Role(i), true
		}
	}
	return 0, false
}

// Align is horizontal text alignment.
type Align string

// Alignments.
const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Direction is the writing direction of a layer.
type Direction string

// Directions. The zero value means right-to-left.
const (
	DirRTL Direction = "rtl"
	DirLTR Direction = "ltr"
)

// TextLayer is one stacked text block.
type TextLayer struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	LineHeight float64 `json:"lineHeight"` // multiplier of FontSize
	Color      string  `json:"color"`
	Align      Align   `json:"align"`
	Bold       bool    `json:"bold"`
	Italic     bool    `json:"italic"`
	OffsetY    float64 `json:"offsetY"`      // signed nudge from the stacked position
	WidthPct   float64 `json:"widthPercent"` // of the safe-area width, 20–100

	Shadow      bool   `json:"shadow"`
	ShadowColor string `json:"shadowColor"`

	BgEnabled bool    `json:"bgEnabled"`
	BgColor   string  `json:"bgColor"`
	BgOpacity float64 `json:"bgOpacity"`
	BgPadding float64 `json:"bgPadding"`
	BgRadius  float64 `json:"bgRadius"`

	Direction Direction `json:"direction,omitempty"`
}

// IsRTL reports whether the layer is laid out right-to-left.
func (l TextLayer) IsRTL() bool { return l.Direction != DirLTR }

// ── Footer ──

// SocialKey identifies one social-contact slot.
type SocialKey string

// Social keys in canonical render order.
const (
	SocialTelegram  SocialKey = "telegram"
	SocialTwitter   SocialKey = "twitter"
	SocialInstagram SocialKey = "instagram"
	SocialFacebook  SocialKey = "facebook"
	SocialWhatsApp  SocialKey = "whatsapp"
	SocialLinkedIn  SocialKey = "linkedin"
	SocialWebsite   SocialKey = "website"
)

// SocialOrder is the canonical order of footer social entries.
var SocialOrder = []SocialKey{
	SocialTelegram, SocialTwitter, SocialInstagram, SocialFacebook,
	SocialWhatsApp, SocialLinkedIn, SocialWebsite,
}

// Socials holds the display string of each social slot.
type Socials struct {
	Telegram  string `json:"telegram"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	WhatsApp  string `json:"whatsapp"`
	LinkedIn  string `json:"linkedin"`
	Website   string `json:"website"`
}

// Get returns the display string for key.
func (s Socials) Get(key SocialKey) string {
	switch key {
	case SocialTelegram:
		return s.Telegram
	case SocialTwitter:
		return s.Twitter
	case SocialInstagram:
		return s.Instagram
	case SocialFacebook:
		return s.Facebook
	case SocialWhatsApp:
		return s.WhatsApp
	case SocialLinkedIn:
		return s.LinkedIn
	case SocialWebsite:
		return s.Website
	}
	return ""
}

// With returns a copy of s with key set to value. Unknown keys are ignored.
func (s Socials) With(key SocialKey, value string) Socials {
	switch key {
	case SocialTelegram:
		s.Telegram = value
	case SocialTwitter:
		s.Twitter = value
	case SocialInstagram:
		s.Instagram = value
	case SocialFacebook:
		s.Facebook = value
	case SocialWhatsApp:
		s.WhatsApp = value
	case SocialLinkedIn:
		s.LinkedIn = value
	case SocialWebsite:
		s.Website = value
	}
	return s
}

// SocialEntry is one non-empty social slot.
type SocialEntry struct {
	Key  SocialKey `json:"key"`
	Text string    `json:"text"`
}

// Entries returns the non-empty slots in SocialOrder.
func (s Socials) Entries() []SocialEntry {
	var out []SocialEntry
	for _, k := range SocialOrder {
		if v := s.Get(k); v != "" {
			out = append(out, SocialEntry{Key: k, Text: v})
		}
	}
	return out
}

// Footer is the optional branding block anchored to the canvas bottom.
type Footer struct {
	Enabled       bool    `json:"enabled"`
	Socials       Socials `json:"socials"`
	ShowHijri     bool    `json:"showHijri"`
	ShowGregorian bool    `json:"showGregorian"`
	OffsetY       float64 `json:"offsetY"` // distance from the canvas bottom
	FontSize      float64 `json:"fontSize"`
	Color         string  `json:"color"`
	FontFamily    string  `json:"fontFamily"`
	Divider       bool    `json:"divider"`
}

// ── Size presets ──

// SizePresets maps preset names to [width, height].
var SizePresets = map[string][2]int{
	"square": {1080, 1080},
	"story":  {1080, 1920},
	"web":    {1200, 675},
}
