package transcribe

import (
	"strings"
	"unicode/utf8"
)

const (
	minCaptionForSkip  = 100
	fullRecipeLength   = 300
	minProcedureHits   = 3
	minCaptionForMerge = 50
)

var (
	ingredientKeywords = []string{"ingredienti", "gr", "grammi", "ml", "cucchiai", "cucchiaio", "tazza", "tazze"}
	procedureKeywords  = []string{"procedimento", "preparazione", "cuocete", "aggiungete", "mescolate", "fate", "mettete", "versate", "tagliate", "scaldate"}
	structureKeywords  = []string{"ingredienti:", "procedimento:", "preparazione:", "istruzioni:"}
	recipeKeywords     = []string{"ingredienti", "procedimento", "preparazione", "gr", "grammi"}
)

// ShouldSkip reports whether the caption already carries a complete recipe,
// making the speech-to-text call unnecessary. Partial evidence is not enough.
func ShouldSkip(caption string) bool {
	n := utf8.RuneCountInString(caption)
	if n < minCaptionForSkip || n <= fullRecipeLength {
		return false
	}
	text := strings.ToLower(caption)
	if !containsAny(text, ingredientKeywords) {
		return false
	}
	procedures := countContained(text, procedureKeywords)
	if procedures == 0 {
		return false
	}
	return containsAny(text, structureKeywords) || procedures >= minProcedureHits
}

// Merge combines caption and transcript when the caption looks like it holds
// recipe content the audio may not repeat. Otherwise the transcript is
// returned alone.
func Merge(caption, transcript string) string {
	if utf8.RuneCountInString(caption) <= minCaptionForMerge || !containsAny(strings.ToLower(caption), recipeKeywords) {
		return transcript
	}
	return "DESCRIZIONE ORIGINALE:\n" + caption + "\n\nTRASCRIZIONE AUDIO:\n" + transcript
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
