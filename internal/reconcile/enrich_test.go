package reconcile

import (
	"context"
	"reflect"
	"testing"

	"whaticket-crm/internal/models"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Estou com um problema no aplicativo", models.IntentReclamacao},
		{"Atendimento excelente, parabéns!", models.IntentElogio},
		{"Como faço para cancelar?", models.IntentDuvida},
		{"Preciso de uma segunda via", models.IntentSolicitacao},
		{"Qual o preço do plano anual?", models.IntentVendas},
		{"Podem me dar suporte na instalação?", models.IntentSuporte},
		{"Segue em anexo", models.IntentInformacao},
		{"", models.IntentInformacao},
		// Complaint keywords outrank praise when both appear.
		{"O produto é ótimo mas o erro persiste", models.IntentReclamacao},
		{"PROBLEMA GRAVE", models.IntentReclamacao},
	}
	for _, tc := range tests {
		if got := DetectIntent(tc.content); got != tc.want {
			t.Errorf("DetectIntent(%q) = %q, want %q", tc.content, got, tc.want)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("Preciso de ajuda com a fatura, a fatura veio errada!")
	want := []string{"preciso", "ajuda", "fatura", "veio", "errada"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsFiltersShortAndStopWords(t *testing.T) {
	got := ExtractKeywords("o que é de uma com não até")
	if len(got) != 0 {
		t.Errorf("ExtractKeywords = %v, want none", got)
	}

	// Length is measured in runes, so accented words count their letters.
	got = ExtractKeywords("ônix se foi")
	if !reflect.DeepEqual(got, []string{"ônix"}) {
		t.Errorf("ExtractKeywords = %v, want [ônix]", got)
	}
}

func TestExtractKeywordsCapsAtTen(t *testing.T) {
	got := ExtractKeywords("alfa bravo charlie delta echo foxtrot golfe hotel india julieta quilo lima")
	if len(got) != 10 {
		t.Errorf("keyword count = %d, want 10", len(got))
	}
}

func TestEnrichMessage(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)
	msg, err := store.CreateMessage(ctx, p, models.MessageActionMessage, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if err := store.EnrichMessage(ctx, msg.ID); err != nil {
		t.Fatalf("EnrichMessage: %v", err)
	}

	var stored models.Message
	if err := db.First(&stored, "id = ?", msg.ID).Error; err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if stored.CRM.Intent != models.IntentSolicitacao {
		t.Errorf("intent = %q, want solicitacao", stored.CRM.Intent)
	}
	if !reflect.DeepEqual(stored.CRM.Keywords, []string{"preciso", "ajuda"}) {
		t.Errorf("keywords = %v", stored.CRM.Keywords)
	}
}

func TestEnrichMessageUnknownID(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	if err := store.EnrichMessage(context.Background(), "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Error("want an error for an unknown message id")
	}
}
