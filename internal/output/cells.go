package output

import (
	"fmt"
	"net/url"
	"strings"

	"cdcheck/internal/data"
)

const (
	glyphPass   = "✅"
	glyphFail   = "❌"
	glyphIgnore = "➖"
	glyphError  = "❗"
)

func glyph(o data.Outcome) string {
	switch o {
	case data.OutcomePass:
		return glyphPass
	case data.OutcomeFail:
		return glyphFail
	default:
		return glyphIgnore
	}
}

// outcomeCell renders a check column. CSV uses +, - and empty.
func outcomeCell(f Format, o data.Outcome) string {
	if f != FormatCSV {
		return glyph(o)
	}
	switch o {
	case data.OutcomePass:
		return "+"
	case data.OutcomeFail:
		return "-"
	default:
		return ""
	}
}

// licenseErrorCell marks a declared license that failed to parse.
func licenseErrorCell(f Format, err error) string {
	switch f {
	case FormatCSV:
		return "!" + err.Error()
	case FormatMarkdown:
		return glyphError + " `" + escapeMarkdown(strings.ReplaceAll(err.Error(), "`", "'")) + "`"
	default:
		return glyphError + " " + err.Error()
	}
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// scoreInput is everything a score cell may show.
type scoreInput struct {
	dep     data.Dependency
	score   uint64
	outcome data.Outcome
	url     string
}

type scoreCell func(in scoreInput) string

type cellKey struct {
	format Format
	link   bool
	check  bool
}

// scoreCells holds every decorated combination; anything absent renders the
// bare score.
var scoreCells = map[cellKey]scoreCell{
	{FormatMarkdown, true, false}: markdownScoreLink,
	{FormatMarkdown, true, true}:  markdownScoreBadge,
	{FormatMarkdown, false, true}: scoreWithGlyph,
	{FormatText, false, true}:     scoreWithGlyph,
	{FormatText, true, true}:      scoreWithGlyphAndURL,
}

func scoreCellFor(f Format, link, check bool) scoreCell {
	if fn, ok := scoreCells[cellKey{f, link, check}]; ok {
		return fn
	}
	return bareScore
}

func bareScore(in scoreInput) string {
	return fmt.Sprintf("%d", in.score)
}

func scoreWithGlyph(in scoreInput) string {
	return fmt.Sprintf("%d %s", in.score, glyph(in.outcome))
}

func scoreWithGlyphAndURL(in scoreInput) string {
	return fmt.Sprintf("%d %s (%s)", in.score, glyph(in.outcome), in.url)
}

func markdownScoreLink(in scoreInput) string {
	return fmt.Sprintf("[%d](%s)", in.score, in.url)
}

func markdownScoreBadge(in scoreInput) string {
	score := fmt.Sprintf("%d", in.score)
	return markdownImageLink(badgeURL(in.dep, score, in.outcome), in.url, score)
}

// badgeColor keys the badge to the score outcome.
func badgeColor(o data.Outcome) string {
	switch o {
	case data.OutcomePass:
		return "success"
	case data.OutcomeFail:
		return "critical"
	default:
		return "inactive"
	}
}

// shieldEscape applies the shields.io static badge escaping.
func shieldEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "-", "--"), "_", "__")
}

func badgeURL(dep data.Dependency, score string, o data.Outcome) string {
	return fmt.Sprintf("https://img.shields.io/badge/%s_%s-%s-%s",
		url.PathEscape(shieldEscape(dep.Name)),
		url.PathEscape(shieldEscape(dep.VersionString())),
		score,
		badgeColor(o),
	)
}

func markdownImageLink(img, link, alt string) string {
	return fmt.Sprintf("[![%s](%s)](%s)", alt, img, link)
}
