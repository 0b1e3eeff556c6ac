// guides.go — Advisory outlines drawn over an editing preview.
package layout

import "github.com/xob0t/ayatcard/pkg/card"

// GuideLabels names each guided region.
type GuideLabels struct {
	Canvas string
	Layers [card.RoleCount]string
	Footer string
}

// EnglishLabels and ArabicLabels are the two built-in label sets.
var (
	EnglishLabels = GuideLabels{
		Canvas: "Canvas",
		Layers: [card.RoleCount]string{
			card.RoleAyah:              "Ayah",
			card.RoleTafseer:           "Tafseer",
			card.RolePrimarySubtitle:   "Info",
			card.RoleSecondarySubtitle: "Source",
		},
		Footer: "Footer",
	}
	ArabicLabels = GuideLabels{
		Canvas: "مساحة التصميم",
		Layers: [card.RoleCount]string{
			card.RoleAyah:              "الآية",
			card.RoleTafseer:           "التفسير",
			card.RolePrimarySubtitle:   "المعلومات",
			card.RoleSecondarySubtitle: "المصدر",
		},
		Footer: "التذييل",
	}
)

func guides(s Scene, canvas Rect, footer *Node, labels GuideLabels) []Node {
	g := func(r Rect, label string) Node {
		return Node{
			Kind:   KindGuide,
			Region: RegionCanvas,
			Rect:   r,
			Guide:  &Guide{Label: label, Color: guideColor},
		}
	}

	out := []Node{g(canvas, labels.Canvas)}
	for _, b := range s.TextBlocks() {
		n := g(b.Box, labels.Layers[b.Role])
		n.Region = b.Role.String()
		out = append(out, n)
	}
	if footer != nil {
		n := g(footer.Rect, labels.Footer)
		n.Region = RegionFooter
		out = append(out, n)
	}
	return out
}
