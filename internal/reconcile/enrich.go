package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"whaticket-crm/internal/models"
)

// intentTable is checked in order; the first category with a keyword hit in
// the content wins.
var intentTable = []struct {
	intent   string
	keywords []string
}{
	{models.IntentReclamacao, []string{"problema", "erro", "ruim", "péssimo", "horrível", "reclamar", "insatisfeito"}},
	{models.IntentElogio, []string{"excelente", "ótimo", "bom", "perfeito", "parabéns", "obrigado", "gostei"}},
	{models.IntentDuvida, []string{"como", "quando", "onde", "porque", "dúvida", "não entendi", "explica"}},
	{models.IntentSolicitacao, []string{"preciso", "quero", "gostaria", "solicito", "pedido", "requisito"}},
	{models.IntentVendas, []string{"preço", "valor", "comprar", "vender", "produto", "serviço", "orçamento"}},
	{models.IntentSuporte, []string{"ajuda", "suporte", "técnico", "configurar", "instalar", "funciona"}},
}

// DetectIntent classifies the content against a fixed keyword taxonomy,
// defaulting to informacao.
func DetectIntent(content string) string {
	lower := strings.ToLower(content)
	for _, entry := range intentTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return models.IntentInformacao
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"o", "a", "de", "que", "e", "do", "da", "em", "um", "para", "é", "com",
		"não", "uma", "os", "no", "se", "na", "por", "mais", "as", "dos",
		"como", "mas", "foi", "ao", "ele", "das", "tem", "à", "seu", "sua",
		"ou", "ser", "quando", "muito", "há", "nos", "já", "está", "eu",
		"também", "só", "pelo", "pela", "até", "isso", "ela", "entre", "era",
		"depois", "sem", "mesmo", "aos", "ter", "seus", "suas", "numa",
		"pelos", "pelas", "esse", "eles", "essas", "esses", "esta", "estão",
		"você", "teve", "foram", "essa", "num", "nem", "meu", "às", "minha",
		"têm", "elas", "havia", "seja", "qual", "será", "nós", "tenho", "lhe",
		"deles", "este", "bem", "pois", "para",
	} {
		stopWords[w] = struct{}{}
	}
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// ExtractKeywords lowercases the content, strips punctuation, and keeps up to
// ten unique words longer than three characters that are not stop words.
func ExtractKeywords(content string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(content), "")

	var keywords []string
	seen := map[string]struct{}{}
	for _, word := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

// EnrichMessage writes the derived intent and keywords onto an already
// persisted message. It is invoked after the primary save and its failure
// never affects the event result.
func (s *Store) EnrichMessage(ctx context.Context, messageID string) error {
	var msg models.Message
	if err := s.db.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error; err != nil {
		return fmt.Errorf("find message %s: %w", messageID, err)
	}

	msg.CRM.Intent = DetectIntent(msg.Content)
	msg.CRM.Keywords = ExtractKeywords(msg.Content)

	if err := s.db.WithContext(ctx).Save(&msg).Error; err != nil {
		return fmt.Errorf("save enrichment for message %s: %w", messageID, err)
	}
	return nil
}
