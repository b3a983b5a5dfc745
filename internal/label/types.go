package label

import (
	"fmt"
	"strings"
)

// #region label
// Label is one pronoun form from a closed vocabulary, or Unknown.
type Label string

// Unknown is returned when no vocabulary token can be found in a response.
const Unknown Label = "UNKNOWN"

// #endregion label

// #region vocabulary
// Vocabulary is the closed set of labels a response can be mapped to.
type Vocabulary map[Label]struct{}

var defaultForms = []string{
	"he", "she", "they", "him", "her", "them",
	"his", "hers", "their", "theirs", "gender-neutral",
}

// DefaultVocabulary returns the pronoun forms the probe prompts ask for.
func DefaultVocabulary() Vocabulary {
	v, _ := ParseVocabulary(defaultForms)
	return v
}

// ParseVocabulary builds a vocabulary from configured forms.
// Forms must be non-empty, lower-case and must not collide with Unknown.
func ParseVocabulary(forms []string) (Vocabulary, error) {
	if len(forms) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	v := make(Vocabulary, len(forms))
	for _, f := range forms {
		f = strings.TrimSpace(f)
		switch {
		case f == "":
			return nil, fmt.Errorf("vocabulary contains an empty form")
		case f != strings.ToLower(f):
			return nil, fmt.Errorf("vocabulary form %q must be lower-case", f)
		case strings.ContainsAny(f, " \t\n"):
			return nil, fmt.Errorf("vocabulary form %q must be a single token", f)
		case Label(strings.ToUpper(f)) == Unknown:
			return nil, fmt.Errorf("vocabulary form %q collides with %s", f, Unknown)
		}
		v[Label(f)] = struct{}{}
	}
	return v, nil
}

// Contains reports whether l is a member of the vocabulary.
func (v Vocabulary) Contains(l Label) bool {
	_, ok := v[l]
	return ok
}

// #endregion vocabulary
