package voucher

import (
	"regexp"
	"sort"
	"strings"
)

// localWindowRadius bounds how far from the anchor the local window looks
const localWindowRadius = 5

// departureInput is what every departure resolver may look at
type departureInput struct {
	pages     []Page
	anchor    int // departure anchor page number
	anchorIdx int // position of the anchor in pages
}

// departureResolver proposes a replacement for the departure leg.
// Resolvers run in slice order and an accepted proposal replaces the
// previous one, so the last resolver that answers wins.
type departureResolver struct {
	name    string
	resolve func(in departureInput, current legHit) (legHit, bool)
}

var departureResolvers = []departureResolver{
	{name: "scan", resolve: resolveByScan},
	{name: "labelled-flight", resolve: resolveByLabelledFlight},
	{name: "local-window", resolve: resolveByLocalWindow},
}

// resolveDeparture reduces the resolver pipeline to one leg and reports
// which resolver produced it.
func resolveDeparture(in departureInput) (legHit, string) {
	var current legHit
	source := ""
	for _, r := range departureResolvers {
		if next, ok := r.resolve(in, current); ok {
			current = next
			source = r.name
		}
	}
	return current, source
}

// resolveByScan scans forward from the anchor and only falls back to a
// backward scan when nothing at all was found.
func resolveByScan(in departureInput, _ legHit) (legHit, bool) {
	hit := scanPages(in.pages, in.anchorIdx, Departure, 1)
	if hit.empty() {
		hit = scanPages(in.pages, in.anchorIdx, Departure, -1)
	}
	return hit, !hit.empty()
}

// resolveByLabelledFlight looks for "flight number ... <n>" next to a
// "departure time" label anywhere in the document and keeps the page
// closest to the anchor. The flight number itself is kept.
func resolveByLabelledFlight(in departureInput, current legHit) (legHit, bool) {
	if current.flight == "" {
		return legHit{}, false
	}
	re := regexp.MustCompile(`(?i)flight number[^\d]*(` + regexp.QuoteMeta(current.flight) + `)`)

	best := legHit{}
	bestDist := -1
	for _, p := range in.pages {
		if p.Text == "" || !re.MatchString(p.Text) {
			continue
		}
		m := departureTimeLabel.FindStringSubmatch(p.Text)
		if m == nil {
			continue
		}
		dist := abs(p.Number - in.anchor)
		if bestDist < 0 || dist < bestDist {
			best = legHit{flight: current.flight, time: m[1], page: p.Number}
			bestDist = dist
		}
	}
	return best, bestDist >= 0
}

// windowCandidate is one flight-number line near the anchor
type windowCandidate struct {
	hit      legHit
	labelled bool
	dist     int
	line     int
}

// resolveByLocalWindow ranks every flight-number line within a few pages of
// the anchor: labelled departure times first, then page distance, then line
// position.
func resolveByLocalWindow(in departureInput, _ legHit) (legHit, bool) {
	var cands []windowCandidate
	for _, p := range in.pages {
		dist := abs(p.Number - in.anchor)
		if dist > localWindowRadius || p.Text == "" {
			continue
		}
		lines := splitLines(p.Text)
		for i, line := range lines {
			fnum := ExtractFlightNumber(line)
			if fnum == "" {
				continue
			}
			nearby := strings.Join(lines[max(0, i-2):min(len(lines), i+3)], "\n")

			m := departureTimeLabel.FindStringSubmatch(nearby)
			if m == nil {
				m = looseDepartureLabel.FindStringSubmatch(nearby)
			}
			if m != nil {
				cands = append(cands, windowCandidate{hit: legHit{flight: fnum, time: m[1], page: p.Number}, labelled: true, dist: dist, line: i})
				continue
			}
			if t := timePattern.FindStringSubmatch(nearby); t != nil {
				cands = append(cands, windowCandidate{hit: legHit{flight: fnum, time: t[1], page: p.Number}, dist: dist, line: i})
			}
		}
	}
	if len(cands) == 0 {
		return legHit{}, false
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.labelled != b.labelled {
			return a.labelled
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.line < b.line
	})
	return cands[0].hit, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
