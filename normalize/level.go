package normalize

import (
	"strings"
	"unicode"

	"civicwatch/models"
)

var levelKeywords = []struct {
	level    string
	keywords []string
}{
	{models.LevelMunicipal, []string{"mayor", "councillor", "councilor", "alderman", "reeve", "city council", "ward"}},
	{models.LevelProvincial, []string{"mla", "mpp", "mna", "mha", "premier", "member of the legislative assembly", "member of provincial parliament"}},
	{models.LevelFederal, []string{"mp", "senator", "member of parliament", "prime minister"}},
}

// InferLevel guesses the level of government from a position title. ok is false when
// nothing matched and the federal default was returned.
func InferLevel(position string) (level string, ok bool) {
	words := " " + strings.Join(strings.FieldsFunc(strings.ToLower(position), func(r rune) bool {
		return !unicode.IsLetter(r)
	}), " ") + " "
	for _, lk := range levelKeywords {
		for _, kw := range lk.keywords {
			if strings.Contains(words, " "+kw+" ") {
				return lk.level, true
			}
		}
	}
	return models.LevelFederal, false
}
