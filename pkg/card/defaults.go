// defaults.go — The fixed default card and the font list.
package card

// FontFamily is one entry of the fixed font list.
type FontFamily struct {
	Name  string `json:"name"`  // display name
	Value string `json:"value"` // family key stored on layers
}

// Font family keys.
const (
	FontAmiriQuran      = "Amiri Quran"
	FontAmiri           = "Amiri"
	FontCairo           = "Cairo"
	FontNotoSansArabic  = "Noto Sans Arabic"
	FontReemKufi        = "Reem Kufi"
	FontScheherazadeNew = "Scheherazade New"
	FontTajawal         = "Tajawal"
)

// Fonts is the fixed list of selectable families.
var Fonts = []FontFamily{
	{Name: "Amiri Quran (Uthmani)", Value: FontAmiriQuran},
	{Name: "Amiri (Naskh)", Value: FontAmiri},
	{Name: "Cairo (Sans)", Value: FontCairo},
	{Name: "Noto Sans Arabic", Value: FontNotoSansArabic},
	{Name: "Reem Kufi", Value: FontReemKufi},
	{Name: "Scheherazade New", Value: FontScheherazadeNew},
	{Name: "Tajawal", Value: FontTajawal},
}

// IsKnownFont reports whether family is in the fixed font list.
func IsKnownFont(family string) bool {
	for _, f := range Fonts {
		if f.Value == family {
			return true
		}
	}
	return false
}

// DefaultWidth and DefaultHeight are the dimensions of a fresh card.
const (
	DefaultWidth  = 720
	DefaultHeight = 820
)

// baseLayer is the style every layer starts from.
func baseLayer() TextLayer {
	return TextLayer{
		FontFamily:  FontAmiri,
		FontSize:    40,
		LineHeight:  1.5,
		Color:       "#ffffff",
		Align:       AlignCenter,
		WidthPct:    90,
		Shadow:      true,
		ShadowColor: "rgba(0,0,0,0.5)",
		BgColor:     "#000000",
		BgOpacity:   0.5,
		BgPadding:   10,
		BgRadius:    8,
	}
}

// Default returns the card every session starts from and resets to.
func Default() Card {
	ayah := baseLayer()
	ayah.Content = "﴿ بِسْمِ ٱللَّٰهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ ﴾"
	ayah.FontSize = 50
	ayah.FontFamily = FontAmiriQuran
	ayah.Bold = true

	tafseer := baseLayer()
	tafseer.Content = "التفسير الميسر سيظهر هنا"
	tafseer.FontSize = 24
	tafseer.FontFamily = FontTajawal
	tafseer.Color = "#e4e4e7"

	info := baseLayer()
	info.Content = "سورة الفاتحة | آية ١"
	info.FontSize = 18
	info.FontFamily = FontTajawal
	info.Color = "#a1a1aa"
	info.Bold = true

	source := baseLayer()
	source.Content = "التفسير الميسر"
	source.FontSize = 14
	source.FontFamily = FontTajawal
	source.Color = "#71717a"

	var c Card
	c.Width = DefaultWidth
	c.Height = DefaultHeight
	c.Background = Background{
		Color:          "#18181b",
		OverlayColor:   "#000000",
		OverlayOpacity: 0.3,
	}
	c.Padding = Insets{Top: 40, Right: 40, Bottom: 40, Left: 40}
	c.Border = Border{
		Enabled: true,
		Style:   BorderSolid,
		Color:   "#ffffff",
		Width:   2,
		Opacity: 0.5,
		Radius:  UniformCorners(16),
	}
	c.Layers[RoleAyah] = ayah
	c.Layers[RoleTafseer] = tafseer
	c.Layers[RolePrimarySubtitle] = info
	c.Layers[RoleSecondarySubtitle] = source
	c.Footer = Footer{
		Enabled:       true,
		Socials:       Socials{Instagram: "@AyatCard"},
		ShowHijri:     true,
		ShowGregorian: true,
		OffsetY:       30,
		FontSize:      14,
		Color:         "#71717a",
		FontFamily:    FontTajawal,
		Divider:       true,
	}
	return c
}
