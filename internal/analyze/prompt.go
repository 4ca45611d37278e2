package analyze

import (
	"fmt"
	"strings"
)

const systemPrompt = "Sei un assistente esperto nell'analizzare trascrizioni e didascalie di video gastronomici " +
	"e nello strutturare le informazioni in JSON. Rispondi sempre e solo con JSON valido."

const promptTemplate = `Analizza il seguente testo, che combina la didascalia e la trascrizione di un video, e determina se parla di uno o più locali dove mangiare o bere.
Considera locale in senso ampio: ristoranti, trattorie, pizzerie, bar, caffè, pasticcerie, gelaterie, street food, bakery, enoteche e simili.

Restituisci un oggetto JSON con i campi:
- "isRestaurantReview": (boolean) true se il testo parla di almeno un locale, altrimenti false.
- "restaurantName", "dishDescription", "creatorOpinion", "restaurantLocation": (string) i dati del primo locale citato. Compilali sempre quando isRestaurantReview è true.
- "restaurants": (array) fino a %d locali nell'ordine in cui compaiono, ognuno con:
  - "restaurantName": il nome del locale
  - "dishDescription": breve descrizione di cosa è stato mangiato o bevuto
  - "creatorOpinion": breve riassunto del parere del creator
  - "restaurantLocation": zona, città o indirizzo (es. "Trastevere, Roma")

Se un'informazione manca usa la stringa vuota "". Non inventare nomi che non compaiono nel testo.

Ecco il testo:

%s

Restituisci SOLO il JSON.`

func buildPrompt(text string, maxRestaurants int) string {
	return fmt.Sprintf(promptTemplate, maxRestaurants, strings.TrimSpace(text))
}
