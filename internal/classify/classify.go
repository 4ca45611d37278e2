// Package classify assigns a priority tier and a pork-specialist flag to a
// venue mention by keyword scoring. Everything here is pure.
package classify

import (
	"slices"
	"strings"

	"github.com/sichef/sichef/internal/model"
)

// Tier thresholds.
const (
	MustVisitScore   = 5
	RecommendedScore = 2
	// PorkSpecialistMentions is the number of distinct pork terms needed
	// before a venue counts as a specialist.
	PorkSpecialistMentions = 2
)

// Keyword weights.
const (
	highWeight     = 3
	mediumWeight   = 2
	lowWeight      = 1
	negativeWeight = -2
)

var porkKeywords = []string{
	"maiale", "pork", "porchetta", "guanciale", "pancetta", "bacon",
	"salsiccia", "braciole", "costoletta", "lonza", "spalla", "coppa",
	"mortadella", "prosciutto", "salami", "nduja", "ventricina",
	"suino", "pig", "ham", "sausage", "pork belly", "ribs",
	"pulled pork", "carnitas", "chorizo", "jamón", "lardo",
}

// "sublime" appears twice and scores twice.
var highKeywords = []string{
	"incredibile", "straordinario", "eccezionale", "perfetto", "fantastico",
	"sublime", "divino", "spettacolare", "meraviglioso", "stupendo",
	"amazing", "incredible", "outstanding", "perfect", "fantastic",
	"sublime", "divine", "spectacular", "wonderful", "stunning",
	"da non perdere", "assolutamente", "top", "migliore", "unico",
	"legendary", "iconic", "best", "unique", "must try",
}

var mediumKeywords = []string{
	"buono", "ottimo", "carino", "piacevole", "interessante",
	"good", "great", "nice", "pleasant", "interesting",
	"consiglio", "vale la pena", "recommend", "worth",
	"solido", "decent", "solid", "worthwhile",
}

var lowKeywords = []string{
	"normale", "okay", "così così", "niente di che", "passabile",
	"average", "ok", "so-so", "nothing special", "decent enough",
	"meh", "fine", "acceptable", "not bad",
}

var negativeKeywords = []string{
	"male", "cattivo", "terribile", "orribile", "deludente",
	"bad", "terrible", "awful", "horrible", "disappointing",
	"expensive", "caro", "troppo caro", "overpriced", "scadente",
}

var vocabularies = []struct {
	keywords []string
	weight   int
}{
	{highKeywords, highWeight},
	{mediumKeywords, mediumWeight},
	{lowKeywords, lowWeight},
	{negativeKeywords, negativeWeight},
}

// Result is the outcome of classifying one mention.
type Result struct {
	Priority         model.Priority
	IsPorkSpecialist bool
	Score            int
	PorkMentions     int
}

// Text builds the lowercase text the classifier scores.
func Text(name, dish, opinion string) string {
	return strings.ToLower(opinion + " " + dish + " " + name)
}

// Score sums keyword weights over text. Each keyword contributes once when
// it occurs as a substring.
func Score(text string) int {
	score := 0
	for _, v := range vocabularies {
		for _, kw := range v.keywords {
			if strings.Contains(text, kw) {
				score += v.weight
			}
		}
	}
	return score
}

// PorkMentions counts distinct pork terms present in text.
func PorkMentions(text string) int {
	n := 0
	for _, kw := range porkKeywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// TierFor maps a score to a priority tier.
func TierFor(score int) model.Priority {
	switch {
	case score >= MustVisitScore:
		return model.PriorityMustVisit
	case score >= RecommendedScore:
		return model.PriorityRecommended
	default:
		return model.PriorityIfInArea
	}
}

// Classify scores a mention.
func Classify(name, dish, opinion string) Result {
	text := Text(name, dish, opinion)
	score := Score(text)
	pork := PorkMentions(text)
	return Result{
		Priority:         TierFor(score),
		IsPorkSpecialist: pork >= PorkSpecialistMentions,
		Score:            score,
		PorkMentions:     pork,
	}
}

// Apply fills whichever of priority and pork flag a lacks. A priority that
// is already set is never replaced.
func Apply(a *model.RestaurantAnalysis) {
	if a == nil || (a.IsClassified() && a.IsPorkSpecialist != nil) {
		return
	}
	r := Classify(a.RestaurantName, a.DishDescription, a.CreatorOpinion)
	if !a.IsClassified() {
		a.Priority = r.Priority
	}
	if a.IsPorkSpecialist == nil {
		a.IsPorkSpecialist = &r.IsPorkSpecialist
	}
}

// ApplyMention classifies an extracted mention in place.
func ApplyMention(m *model.BasicRestaurant) {
	r := Classify(m.RestaurantName, m.DishDescription, m.CreatorOpinion)
	m.Priority = r.Priority
	m.IsPorkSpecialist = &r.IsPorkSpecialist
}

// Label returns the display label of a tier.
func Label(p model.Priority) string {
	switch p {
	case model.PriorityMustVisit:
		return "Assolutamente da visitare"
	case model.PriorityRecommended:
		return "Consigliato"
	case model.PriorityIfInArea:
		return "Se sei in zona"
	default:
		return "Non classificato"
	}
}

// Compare orders analyses by descending tier, then pork specialists first.
// Nil analyses sort last.
func Compare(a, b *model.RestaurantAnalysis) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return rb - ra
	}
	pa, pb := isPork(a), isPork(b)
	switch {
	case pa && !pb:
		return -1
	case !pa && pb:
		return 1
	default:
		return 0
	}
}

// SortByPriority stably sorts records with Compare on their analyses.
func SortByPriority(records []model.ScrapedData) {
	slices.SortStableFunc(records, func(x, y model.ScrapedData) int {
		return Compare(x.Analysis, y.Analysis)
	})
}

func isPork(a *model.RestaurantAnalysis) bool {
	return a.IsPorkSpecialist != nil && *a.IsPorkSpecialist
}
