package guide

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// The upstream guide site is plain HTML without a stable contract. Every
// extraction here degrades to an empty field instead of failing the parse;
// only the transport layer reports real errors.
var (
	// Detail links carry the numeric broadcast id in their query string.
	broadcastHrefRe = regexp.MustCompile(`broadcast_id=(\d+)`)

	// Anchor text of a program entry: "20:15 Uhr , Tatort: Der Fall , Krimi"
	listingTextRe = regexp.MustCompile(`^(\d{1,2}:\d{2}) Uhr\s*,\s*(.+?)\s*,\s*(.+)$`)

	// Channel heading: "<h3>Sender Das Erste für Montag</h3>"
	channelNameRe = regexp.MustCompile(`Sender\s+(.+?)\s+für`)

	// Detail header: "07.01. 20:15 Uhr , Das Erste , Tatort: Der Fall ."
	detailHeaderRe = regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.)\s*(\d{1,2}:\d{2}) Uhr\s*,\s*([^,]+?)\s*,\s*(.+?)\s*\.?\s*$`)

	brSplitRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
)

// ParseListing extracts the programs of one listing page. Anchors that don't
// look like program entries are skipped silently; a page without any program
// anchors yields an empty (not nil) program list.
func ParseListing(html string, channelID string, day int) *domain.EPGPage {
	page := &domain.EPGPage{
		ChannelID:   channelID,
		Day:         day,
		Programs:    []domain.Program{},
		LastUpdated: time.Now(),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		idMatch := broadcastHrefRe.FindStringSubmatch(href)
		if idMatch == nil {
			return
		}

		text := collapseWhitespace(a.Text())
		m := listingTextRe.FindStringSubmatch(text)
		if m == nil {
			// Non-program link (navigation, images) pointing at a detail page.
			return
		}

		page.Programs = append(page.Programs, domain.Program{
			BroadcastID: idMatch[1],
			ChannelID:   channelID,
			Day:         day,
			Time:        normalizeClock(m[1]),
			Title:       m[2],
			Genre:       m[3],
			DetailURL:   href,
		})
	})

	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		m := channelNameRe.FindStringSubmatch(collapseWhitespace(h.Text()))
		if m == nil {
			return true
		}
		page.ChannelName = m[1]
		return false
	})

	return page
}

// ParseDetails extracts the header/description/extra fragments of a detail
// page. A header that doesn't match leaves date/time/channel/title empty.
func ParseDetails(html string) *domain.ProgramDetails {
	details := &domain.ProgramDetails{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return details
	}

	doc.Find("b, strong").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		m := detailHeaderRe.FindStringSubmatch(collapseWhitespace(b.Text()))
		if m == nil {
			return true
		}
		details.Date = m[1]
		details.Time = normalizeClock(m[2])
		details.ChannelName = m[3]
		details.Title = m[4]
		return false
	})

	paragraphs := doc.Find("p")
	if paragraphs.Length() > 0 {
		details.Description = collapseWhitespace(paragraphs.First().Text())
	}

	// Technical info trails the description as <br>-separated fragments.
	// Fragments containing "Zur" are navigation links, not info.
	if paragraphs.Length() > 1 {
		if inner, err := paragraphs.Last().Html(); err == nil {
			var kept []string
			for _, frag := range brSplitRe.Split(inner, -1) {
				frag = collapseWhitespace(tagRe.ReplaceAllString(frag, " "))
				if frag == "" || strings.Contains(frag, "Zur") {
					continue
				}
				kept = append(kept, frag)
			}
			details.AdditionalInfo = strings.Join(kept, " | ")
		}
	}

	return details
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeClock pads single-digit hours so times compare as "HH:MM".
func normalizeClock(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}
