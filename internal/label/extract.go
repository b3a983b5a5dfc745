package label

import "strings"

// #region anchor
// AnchorPhrase marks where the oracle states its answer. Prompts ask for
// "MY FINAL ANSWER IS: X", so matching is done on the lower-cased core phrase.
const AnchorPhrase = "final answer is"

const tokenPunct = ".,:;!?\"'"

// #endregion anchor

// #region extract
// Extract maps free text to a vocabulary label. Pure, no I/O.
// When the anchor phrase is present only the text after its last occurrence
// is searched; otherwise the whole text is. The first whitespace-delimited
// token that matches the vocabulary after punctuation trimming wins.
func Extract(text string, vocab Vocabulary) Label {
	lower := strings.ToLower(text)
	if i := strings.LastIndex(lower, AnchorPhrase); i >= 0 {
		lower = lower[i+len(AnchorPhrase):]
	}

	for _, word := range strings.Fields(lower) {
		candidate := Label(strings.Trim(word, tokenPunct))
		if vocab.Contains(candidate) {
			return candidate
		}
	}
	return Unknown
}

// #endregion extract
