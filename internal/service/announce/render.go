package announce

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"text/template"

	"github.com/oggyb/crushconnect/internal/db"
)

// Signature closes every announcement.
const Signature = "— @AAUPulseBot 💫"

const fallbackEmoji = "✨"

var specialEmoji = map[db.SpecialType]string{
	db.SpecialHighVibe:           "💘",
	db.SpecialFreshmanSenior:     "🍼🎓",
	db.SpecialCrossCampus:        "🚌",
	db.SpecialSameDepartment:     "👯‍♂️",
	db.SpecialOppositeDepartment: "⚔️",
	db.SpecialSharedInterests:    "✨",
}

var specialTemplates = map[db.SpecialType][]string{
	db.SpecialHighVibe: {
		"{{.Emoji}} MATCH DROP: HIGH VIBE {{.Emoji}}\n\nSynced at {{.Vibe}}% 💯\n{{.Dept1}} × {{.Dept2}}\n{{.Year1}} × {{.Year2}}\n\nShared loves:\n{{.Interests}}\n\nThis is basically a relationship already 😭🔥",
		"{{.Emoji}} MATCH DROP: OFF-THE-CHARTS VIBES\n\nVibe score: {{.Vibe}}% ✨\n{{.Dept1}} × {{.Dept2}}\n{{.Campus1}} × {{.Campus2}}\n\nShared loves:\n{{.Interests}}\n\nCampus is cooking couples again 😩💗",
	},
	db.SpecialFreshmanSenior: {
		"{{.Emoji}} MATCH DROP: Freshman × Senior!\n\n{{.Year1}} × {{.Year2}}\n{{.Dept1}} × {{.Dept2}}\n\nShared loves:\n{{.Interests}}\n\nMentorship about to become a situationship 😭🔥",
		"{{.Emoji}} MATCH DROP: The forbidden combo 😳\n\nFreshman × Senior\n{{.Campus1}} × {{.Campus2}}\n\nShared loves:\n{{.Interests}}\n\nFree notes and free rides 😭🚗",
	},
	db.SpecialCrossCampus: {
		"{{.Emoji}} MATCH DROP: CROSS CAMPUS!\n\n{{.Campus1}} × {{.Campus2}}\n{{.Dept1}} × {{.Dept2}}\n\nShared loves:\n{{.Interests}}\n\nDistance can't stop a vibe 😭🚌🔥",
		"{{.Emoji}} MATCH DROP: Two campuses, one vibe\n\n{{.Campus1}} ↔️ {{.Campus2}}\n\nShared loves:\n{{.Interests}}\n\nLove is paying for transport today 😩💸",
	},
	db.SpecialSharedInterests: {
		"{{.Emoji}} MATCH DROP: Shared Interests!\n\nMutual loves:\n{{.Interests}}\n\n{{.Dept1}} × {{.Dept2}}\n{{.Campus1}} × {{.Campus2}}\n\nSame vibe, different souls ✨💗",
		"{{.Emoji}} MATCH DROP: Connected over interests 🪩\n\nBoth love:\n{{.Interests}}\n\n{{.Year1}} × {{.Year2}}\n\nFriendship to love pipeline 😭🔥",
	},
	db.SpecialSameDepartment: {
		"{{.Emoji}} MATCH DROP: Same Department!\n\n{{.Dept1}} × {{.Dept2}}\n{{.Year1}} × {{.Year2}}\n\nShared loves:\n{{.Interests}}\n\nGroup mates to soulmates 😭💗",
		"{{.Emoji}} MATCH DROP: Major × Major!\n\nBoth from {{.Dept1}}\n\nShared loves:\n{{.Interests}}\n\nAlready saw each other in class 💀🔥",
	},
	db.SpecialOppositeDepartment: {
		"{{.Emoji}} MATCH DROP: Opposites attract!\n\n{{.Dept1}} × {{.Dept2}}\n{{.Year1}} × {{.Year2}}\n\nShared loves:\n{{.Interests}}\n\nBalance restored ⚖️🔥",
		"{{.Emoji}} MATCH DROP: Wild combo spotted!\n\n{{.Dept1}} × {{.Dept2}}\n\nShared loves:\n{{.Interests}}\n\nPure chaos energy 😭💥",
	},
}

var fallbackTemplates = []string{
	"{{.Emoji}} MATCH DROP\n\n{{.Campus1}} × {{.Campus2}}\n{{.Dept1}} × {{.Dept2}}\n{{.Year1}} × {{.Year2}}\n\nShared loves:\n{{.Interests}}\n\nTwo people, one mutual like 💗",
}

// Renderer turns a queue item snapshot into announcement text.
type Renderer struct {
	special  map[db.SpecialType][]*template.Template
	fallback []*template.Template
	pick     func(n int) int
}

// NewRenderer parses all templates. pick chooses among the variants of a type;
// nil uses math/rand.
func NewRenderer(pick func(n int) int) (*Renderer, error) {
	if pick == nil {
		pick = rand.Intn
	}
	r := &Renderer{special: map[db.SpecialType][]*template.Template{}, pick: pick}
	for st, variants := range specialTemplates {
		for i, src := range variants {
			tpl, err := template.New(fmt.Sprintf("%s-%d", st, i)).Parse(src)
			if err != nil {
				return nil, fmt.Errorf("parse %s template %d: %w", st, i, err)
			}
			r.special[st] = append(r.special[st], tpl)
		}
	}
	for _, st := range db.SpecialTypes {
		if len(r.special[st]) == 0 {
			return nil, fmt.Errorf("no templates for special type %s", st)
		}
	}
	for i, src := range fallbackTemplates {
		tpl, err := template.New(fmt.Sprintf("fallback-%d", i)).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse fallback template %d: %w", i, err)
		}
		r.fallback = append(r.fallback, tpl)
	}
	return r, nil
}

type renderData struct {
	Emoji     string
	Campus1   string
	Campus2   string
	Dept1     string
	Dept2     string
	Year1     string
	Year2     string
	Vibe      int
	Interests string
}

// Render builds the public announcement. Unknown or missing special types use
// the neutral fallback template.
func (r *Renderer) Render(item db.QueueItem) (string, error) {
	snap := item.Snapshot.Data()
	data := renderData{
		Emoji:     fallbackEmoji,
		Campus1:   snap.User1.Campus,
		Campus2:   snap.User2.Campus,
		Dept1:     snap.User1.Department,
		Dept2:     snap.User2.Department,
		Year1:     snap.User1.Year,
		Year2:     snap.User2.Year,
		Vibe:      int(item.VibeScore),
		Interests: FormatInterests(snap.SharedInterests),
	}

	variants := r.fallback
	if st := item.SpecialType; st != nil && st.Valid() {
		variants = r.special[*st]
		data.Emoji = specialEmoji[*st]
	}

	var buf bytes.Buffer
	if err := variants[r.pick(len(variants))].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render queue item %d: %w", item.ID, err)
	}
	return buf.String() + "\n\n" + VibeLine(data.Vibe) + "\n\n" + Signature, nil
}

// FormatInterests renders a bullet list, or a placeholder when empty.
func FormatInterests(interests []string) string {
	if len(interests) == 0 {
		return "No shared interests."
	}
	lines := make([]string, len(interests))
	for i, in := range interests {
		lines[i] = "• " + in
	}
	return strings.Join(lines, "\n")
}

// VibeLine is the hype line appended under every announcement.
func VibeLine(vibe int) string {
	switch {
	case vibe >= 90:
		return "Soulmate alert 💍😭🔥"
	case vibe >= 70:
		return "Strong vibe, might just work ✨💗"
	default:
		return "Chaotic energy but fun 😳💥"
	}
}
