package duedate

import "strings"

// subjectAliases maps portal subject spellings to canonical English labels.
// Order matters: when no exact case-folded match exists, the first registered
// key containing the lowercased input wins.
var subjectAliases = []struct {
	key       string
	canonical string
}{
	{"matematiikka", "Math"},
	{"math", "Math"},
	{"äidinkieli", "Finnish"},
	{"suomi", "Finnish"},
	{"finnish", "Finnish"},
	{"englanti", "English"},
	{"english", "English"},
	{"ruotsi", "Swedish"},
	{"swedish", "Swedish"},
	{"historia", "History"},
	{"history", "History"},
	{"yhteiskuntaoppi", "Social Studies"},
	{"fysiikka", "Physics"},
	{"physics", "Physics"},
	{"kemia", "Chemistry"},
	{"chemistry", "Chemistry"},
	{"biologia", "Biology"},
	{"biology", "Biology"},
	{"maantieto", "Geography"},
	{"geography", "Geography"},
	{"liikunta", "PE"},
	{"musiikki", "Music"},
	{"music", "Music"},
	{"kuvataide", "Art"},
	{"art", "Art"},
	{"uskonto", "Religion"},
	{"elämänkatsomustieto", "Ethics"},
	{"terveystieto", "Health Education"},
	{"kotitalous", "Home Economics"},
	{"käsityö", "Crafts"},
}

// NormalizeSubject maps a locale-variant subject name to its canonical
// English label so every spelling finds the same schedule entry. Exact
// case-folded matches win; otherwise the first registered alias containing
// the lowercased input wins. Unknown subjects pass through unchanged.
func NormalizeSubject(name string) string {
	folded := strings.ToLower(strings.TrimSpace(name))
	if folded == "" {
		return name
	}

	for _, alias := range subjectAliases {
		if alias.key == folded {
			return alias.canonical
		}
	}
	for _, alias := range subjectAliases {
		if strings.Contains(alias.key, folded) {
			return alias.canonical
		}
	}
	return name
}
