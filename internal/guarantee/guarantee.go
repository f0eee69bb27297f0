package guarantee

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Man is the value of one 万 unit.
const Man = 10000

// Rule pairs a pattern with the converter applied to its first capture group.
type Rule struct {
	Pattern *regexp.Regexp
	Convert func(capture string) (int, error)
}

// Table is an ordered list of rules evaluated with first-match-wins semantics.
type Table []Rule

// TitlePatterns is the loose table used for listing titles.
var TitlePatterns = Table{
	// 84万相当, 40万コイン, 7万円保証, 総額30万
	rule(`(?:総額)?(\d+)万(?:円|coin|コイン)?(?:相当|保証)?`, manUnits),
	// 50,000coin, Web最低保証100,000コイン
	rule(`(?:Web|ウェブ)?(?:最低保証)?[^\d]*(\d+[,\d]*)(?:円|coin|コイン)(?:保証)?`, plainUnits),
}

// DetailPatterns is the strict table used for detail page descriptions.
// Every rule requires a 保証 marker next to the amount.
var DetailPatterns = Table{
	rule(`(\d+)万円保証`, manUnits),
	rule(`(\d+)万保証`, manUnits),
	rule(`(\d+[,\d]*)円保証`, plainUnits),
	rule(`(\d+)万(?:coin|コイン)保証`, manUnits),
	rule(`(\d+[,\d]*)(?:coin|コイン)保証`, plainUnits),
	rule(`総額(\d+)万保証`, manUnits),
	rule(`最低保証[^\d]*(\d+)万`, manUnits),
	rule(`最低保証[^\d]*(\d+[,\d]*)(?:coin|コイン)`, plainUnits),
}

func rule(pattern string, convert func(string) (int, error)) Rule {
	return Rule{
		Pattern: regexp.MustCompile(`(?i)` + pattern),
		Convert: convert,
	}
}

func manUnits(capture string) (int, error) {
	n, err := strconv.Atoi(capture)
	if err != nil {
		return 0, err
	}
	return n * Man, nil
}

func plainUnits(capture string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(capture, ",", ""))
}

// Extract runs the table against text and returns the first converted match.
// Returns 0 when no rule matches.
func (t Table) Extract(text string) int {
	if text == "" {
		return 0
	}
	text = Normalize(text)

	for _, r := range t {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil || len(m) < 2 {
			continue
		}
		amount, err := r.Convert(m[1])
		if err != nil || amount < 0 {
			continue
		}
		return amount
	}
	return 0
}

// FromTitle extracts a guarantee from a listing title.
func FromTitle(title string) int {
	return TitlePatterns.Extract(title)
}

// FromDetail extracts a guarantee from detail page text.
func FromDetail(text string) int {
	return DetailPatterns.Extract(text)
}

// Normalize folds full-width ASCII (digits, letters, commas) to its narrow form
// and half-width katakana to full-width, so ２０万ｺｲﾝ reads as 20万コイン.
func Normalize(s string) string {
	return width.Fold.String(s)
}
