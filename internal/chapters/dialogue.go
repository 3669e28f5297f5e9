package chapters

import (
	"regexp"
	"sort"
	"strings"

	"speech_tracker/internal/speech"
)

var quotePattern = regexp.MustCompile(`"([^"\n]+)"|\x{201C}([^\x{201D}\n]+)\x{201D}`)
var properName = `[A-Z][a-z]{2,}`

const speechVerbs = `(said|asked|replied|whispered|shouted|murmured|called|told|answered|cried|snapped)`

// Name before or after a speech verb, adjacent to the quote.
var nameThenVerb = regexp.MustCompile(`\b(` + properName + `)\s+` + speechVerbs + `\b`)
var verbThenName = regexp.MustCompile(`\b` + speechVerbs + `\s+(` + properName + `)\b`)

const attributionRadius = 60

// ExtractSpeakers attributes quoted spans to character names by speech-verb
// adjacency and groups them per speaker in narrative order. Unattributed
// quotes are dropped, never guessed.
func ExtractSpeakers(chs []Chapter) []speech.Speaker {
	grouped := map[string]*speech.Speaker{}

	for _, ch := range chs {
		for _, m := range quotePattern.FindAllStringSubmatchIndex(ch.Text, -1) {
			quote := firstGroup(ch.Text, m)
			if quote == "" {
				continue
			}
			name := attribute(ch.Text, m[0], m[1])
			if name == "" {
				continue
			}
			sp, ok := grouped[name]
			if !ok {
				sp = &speech.Speaker{Name: name, Kind: speech.KindCharacter}
				grouped[name] = sp
			}
			sp.Utterances = append(sp.Utterances, speech.Utterance{
				Character: name,
				Chapter:   ch.Index,
				Text:      quote,
				Offset:    m[0],
			})
		}
	}

	out := make([]speech.Speaker, 0, len(grouped))
	for _, sp := range grouped {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func firstGroup(text string, m []int) string {
	for g := 1; g < len(m)/2; g++ {
		if m[2*g] >= 0 {
			return strings.TrimSpace(text[m[2*g]:m[2*g+1]])
		}
	}
	return ""
}

// attribute looks for "<quote>," said Mary / Mary said, "<quote>" patterns
// in a small context window around the quote.
func attribute(text string, quoteStart, quoteEnd int) string {
	tailEnd := quoteEnd + attributionRadius
	if tailEnd > len(text) {
		tailEnd = len(text)
	}
	tail := text[quoteEnd:tailEnd]
	if m := verbThenName.FindStringSubmatch(tail); m != nil {
		return m[2]
	}
	if m := nameThenVerb.FindStringSubmatch(tail); m != nil {
		return m[1]
	}

	headStart := quoteStart - attributionRadius
	if headStart < 0 {
		headStart = 0
	}
	head := text[headStart:quoteStart]
	if m := lastSubmatch(nameThenVerb, head, 1); m != "" {
		return m
	}
	if m := lastSubmatch(verbThenName, head, 2); m != "" {
		return m
	}
	return ""
}

func lastSubmatch(re *regexp.Regexp, text string, group int) string {
	all := re.FindAllStringSubmatch(text, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][group]
}
