package voucher

import (
	"regexp"
	"strings"
	"time"
)

// Names may carry accented letters, so the name classes are Unicode aware.
const (
	nameHead = `[\p{L}\p{N}_]`
	nameTail = `[\p{L}\p{N}_ .'\-]+?`
	birthTok = `(?P<birth>\d{2}-\d{2}-\d{2})`
)

var (
	// The leading passenger count is optional: wrapped table rows often drop it.
	titledPassengerPattern = regexp.MustCompile(`(?i)\b(?:\d+\s+)?(?P<name>(?:Mr|Mrs|Miss|Ms|Dr|Master|Mstr|Mx)\.?\s+` +
		nameHead + nameTail + `)\s+` + birthTok)
	childPassengerPattern = regexp.MustCompile(`(?i)\b(?:\d+\s+)?(?P<type>Chd|Inf)\b\s+(?P<name>` +
		nameHead + nameTail + `)\s+` + birthTok)
	relaxedPassengerPattern = regexp.MustCompile(`\b\d+\s+(?P<name>` + nameHead + nameTail + `)\s+` + birthTok)

	typeMarkerPattern   = regexp.MustCompile(`(?i)\b(Chd|Inf)\b`)
	titleKeywordPattern = regexp.MustCompile(`(?i)\b(Mr|Mrs|Miss|Ms|Dr|Master|Mstr|Mx)\b`)
	hotelLinePattern    = regexp.MustCompile(`(?i)\b(HOTEL|RESORT|VILLA|CHA-DA|SOFITEL|DUSIT)\b`)
	ageSuffixPattern    = regexp.MustCompile(`\s*\(\d+(?:YO|Month)\)$`)
)

// passengerMatch is a passenger recognised on a line, already decorated
type passengerMatch struct {
	name  string
	birth string
}

// passengerList keeps decorated names unique in first-seen order
type passengerList struct {
	names []string
	seen  map[string]struct{}
}

func newPassengerList() *passengerList {
	return &passengerList{names: []string{}, seen: make(map[string]struct{})}
}

func (l *passengerList) add(name string) {
	if _, ok := l.seen[name]; ok {
		return
	}
	l.seen[name] = struct{}{}
	l.names = append(l.names, name)
}

func (l *passengerList) empty() bool {
	return len(l.names) == 0
}

// decorate renders "Chd Anna (5YO)", "Anna (5YO)", "Chd Anna" or "Anna".
func decorate(name, typ, age string) string {
	switch {
	case typ != "" && age != "":
		return typ + " " + name + " (" + age + ")"
	case age != "":
		return name + " (" + age + ")"
	case typ != "":
		return typ + " " + name
	default:
		return name
	}
}

func group(re *regexp.Regexp, m []string, name string) string {
	return m[re.SubexpIndex(name)]
}

// matchPassenger tries the titled pattern, then the child/infant pattern.
// Titled adults keep their plain name; the child marker is only applied
// when an age can be computed.
func matchPassenger(line string, ref time.Time) (passengerMatch, bool) {
	if m := titledPassengerPattern.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(group(titledPassengerPattern, m, "name"))
		birth := group(titledPassengerPattern, m, "birth")
		if t := typeMarkerPattern.FindStringSubmatch(line); t != nil {
			if age, ok := AgeSuffix(birth, ref); ok {
				name = decorate(name, t[1], age)
			}
		}
		return passengerMatch{name: name, birth: birth}, true
	}

	if m := childPassengerPattern.FindStringSubmatch(line); m != nil {
		typ := group(childPassengerPattern, m, "type")
		name := strings.TrimSpace(group(childPassengerPattern, m, "name"))
		birth := group(childPassengerPattern, m, "birth")
		age, _ := AgeSuffix(birth, ref)
		return passengerMatch{name: decorate(name, typ, age), birth: birth}, true
	}

	return passengerMatch{}, false
}

// matchRelaxedPassenger accepts an untitled "<count> NAME <birth>" line
// unless the line reads like an accommodation.
func matchRelaxedPassenger(line string, ref time.Time) (string, bool) {
	m := relaxedPassengerPattern.FindStringSubmatch(line)
	if m == nil || hotelLinePattern.MatchString(line) {
		return "", false
	}
	name := strings.TrimSpace(group(relaxedPassengerPattern, m, "name"))
	age, _ := AgeSuffix(group(relaxedPassengerPattern, m, "birth"), ref)
	typ := ""
	if t := typeMarkerPattern.FindStringSubmatch(line); t != nil {
		typ = t[1]
	}
	return decorate(name, typ, age), true
}

// isChild reports whether a decorated name belongs to a child or infant
func isChild(name string) bool {
	return typeMarkerPattern.MatchString(name)
}

// surnames collects the uppercased last token of each passenger name.
func surnames(passengers []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range passengers {
		parts := strings.Fields(ageSuffixPattern.ReplaceAllString(p, ""))
		if len(parts) == 0 {
			continue
		}
		s := strings.ToUpper(parts[len(parts)-1])
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
