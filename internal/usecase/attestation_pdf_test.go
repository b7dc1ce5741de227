package usecase

import (
	"context"
	"strings"
	"testing"

	"baticore/internal/devis"
	"baticore/internal/pdf"
)

// creerDevisTVA ouvre un devis au taux de TVA demandé.
func (b *banc) creerDevisTVA(t *testing.T, taux float64) *devis.Devis {
	t.Helper()
	uc := CreerDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Config: b.cfg, Num: b.num}
	d, err := uc.Execute(context.Background(), ParamsCreationDevis{
		ClientNom: "Client Test",
		Objet:     "Rénovation",
		TauxTVA:   &taux,
	}, commercialID)
	if err != nil {
		t.Fatalf("creer devis TVA %v: %v", taux, err)
	}
	return d
}

func TestCreerAttestationTVA_TauxReduit(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevisTVA(t, 10)

	uc := CreerAttestationTVAUseCase{Devis: b.st.Devis(), Attestations: b.st.Attestations(), Journal: b.st.Journal()}
	a, err := uc.Execute(ctx, d.ID, "12 rue des Lilas, Nantes", "Rénovation de salle de bain", true, commercialID)
	if err != nil {
		t.Fatalf("creer attestation: %v", err)
	}
	if a.TypeCERFA != "1300-SD" || a.TauxTVA != devis.TVA10 {
		t.Errorf("attestation = %s / %s, want 1300-SD / 10", a.TypeCERFA, a.TauxTVA)
	}
	if a.EstValide() {
		t.Error("attestation valide avant signature")
	}

	signee, err := (SignerAttestationUseCase{Attestations: b.st.Attestations(), Journal: b.st.Journal()}).
		Execute(ctx, d.ID, "M. Martin", commercialID)
	if err != nil {
		t.Fatalf("signer attestation: %v", err)
	}
	if signee.Signataire != "M. Martin" || signee.DateSignature == nil {
		t.Errorf("signature = %q / %v", signee.Signataire, signee.DateSignature)
	}
	if !signee.EstValide() {
		t.Error("attestation signée non valide")
	}

	// Une seule attestation par devis.
	if _, err := uc.Execute(ctx, d.ID, "12 rue des Lilas, Nantes", "Rénovation", true, commercialID); !devis.IsCode(err, devis.CodeAttestationTVADejaExistante) {
		t.Errorf("err = %v, want ATTESTATION_TVA_DEJA_EXISTANTE", err)
	}
}

func TestCreerAttestationTVA_TauxPleinRefuse(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t) // TVA 20 par défaut

	uc := CreerAttestationTVAUseCase{Devis: b.st.Devis(), Attestations: b.st.Attestations(), Journal: b.st.Journal()}
	_, err := uc.Execute(context.Background(), d.ID, "12 rue des Lilas", "Extension", true, commercialID)
	if !devis.IsCode(err, devis.CodeTVANonEligible) {
		t.Errorf("err = %v, want TVA_NON_ELIGIBLE", err)
	}
}

func TestSignerAttestation_SansAttestation(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	_, err := (SignerAttestationUseCase{Attestations: b.st.Attestations(), Journal: b.st.Journal()}).
		Execute(context.Background(), d.ID, "M. Martin", commercialID)
	if !devis.IsCode(err, devis.CodeAttestationTVANotFound) {
		t.Errorf("err = %v, want ATTESTATION_TVA_NOT_FOUND", err)
	}
}

// --- Document client ---

func TestPreparerDocument_OrdreEtTotaux(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	gros := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLignePrix(t, gros.ID, "Maçonnerie", "1", "1000")

	sousUC := AjouterLotUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Num: b.num}
	sous, err := sousUC.Execute(ctx, d.ID, gros.ID, "Fondations", nil, commercialID)
	if err != nil {
		t.Fatalf("sous-lot: %v", err)
	}
	b.ajouterLignePrix(t, sous.ID, "Semelles", "1", "200")
	second := b.ajouterLot(t, d.ID, "Second œuvre")
	b.ajouterLignePrix(t, second.ID, "Cloisons", "1", "300")

	uc := GenererPDFUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Generator: pdf.TextRenderer{}}
	dto, err := uc.Preparer(ctx, d.ID)
	if err != nil {
		t.Fatalf("preparer: %v", err)
	}

	// Parcours en profondeur: un sous-lot suit son parent.
	codes := make([]string, len(dto.Lots))
	for i, lot := range dto.Lots {
		codes[i] = lot.Code
	}
	if len(codes) != 3 || codes[0] != "1" || codes[1] != "1.1" || codes[2] != "2" {
		t.Errorf("ordre des lots = %v, want [1 1.1 2]", codes)
	}

	if !dto.TotalHT.Equal(dec("1500.00")) || !dto.TotalTTC.Equal(dec("1800.00")) {
		t.Errorf("totaux = %s HT / %s TTC, want 1500.00/1800.00", dto.TotalHT, dto.TotalTTC)
	}
	if len(dto.VentilationTVA) != 1 {
		t.Fatalf("ventilation = %d taux, want 1", len(dto.VentilationTVA))
	}
	if v := dto.VentilationTVA[0]; v.Taux != devis.TVA20 || !v.MontantTVA.Equal(dec("300.00")) {
		t.Errorf("ventilation = %s %% / %s, want 20/300.00", v.Taux, v.MontantTVA)
	}
	if dto.MentionLegaleTVA != "" {
		t.Errorf("mention légale inattendue au taux plein: %q", dto.MentionLegaleTVA)
	}

	// Retenue de garantie par défaut: 5 % du TTC.
	if dto.RetenueGarantiePct != 5 || !dto.MontantRetenue.Equal(dec("90.00")) {
		t.Errorf("retenue = %v %% / %s, want 5/90.00", dto.RetenueGarantiePct, dto.MontantRetenue)
	}
	if !dto.NetAPayer.Equal(dec("1710.00")) {
		t.Errorf("net à payer = %s, want 1710.00", dto.NetAPayer)
	}
}

func TestPreparerDocument_MentionTauxReduit(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevisTVA(t, 10)
	lot := b.ajouterLot(t, d.ID, "Plomberie")
	b.ajouterLignePrix(t, lot.ID, "Remplacement chaudière", "1", "2000")

	uc := GenererPDFUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Generator: pdf.TextRenderer{}}
	dto, err := uc.Preparer(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("preparer: %v", err)
	}
	if !strings.Contains(dto.MentionLegaleTVA, "1300-SD") {
		t.Errorf("mention légale = %q, want référence au CERFA 1300-SD", dto.MentionLegaleTVA)
	}
}

func TestGenererDocument_RenduTexte(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLignePrix(t, lot.ID, "Maçonnerie", "1", "1000")

	uc := GenererPDFUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Generator: pdf.TextRenderer{}}
	doc, err := uc.Execute(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("generer: %v", err)
	}
	texte := string(doc)
	for _, attendu := range []string{
		"DEVIS " + d.Numero,
		"Gros œuvre",
		"Total TTC 1200.00",
		"Retenue de garantie",
		"Net à payer : 1140.00",
	} {
		if !strings.Contains(texte, attendu) {
			t.Errorf("document sans %q", attendu)
		}
	}
}
