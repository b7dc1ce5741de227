package usecase

import (
	"context"
	"testing"

	"baticore/internal/devis"
)

func (b *banc) versionneurRevision() CreerRevisionUseCase {
	return CreerRevisionUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Num: b.num}
}

func (b *banc) versionneurVariante() CreerVarianteUseCase {
	return CreerVarianteUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Num: b.num}
}

func TestCreerRevision_FigeLaSourceEtCopieLArbre(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLigneDebourse(t, lot.ID)

	rev, err := b.versionneurRevision().Execute(ctx, d.ID, devis.RoleCommercial, commercialID)
	if err != nil {
		t.Fatalf("révision: %v", err)
	}

	if want := d.Numero + "-R2"; rev.Numero != want {
		t.Errorf("Numero = %s, want %s", rev.Numero, want)
	}
	if rev.TypeVersion != devis.VersionRevision || rev.VersionNumero != 2 {
		t.Errorf("version = %s n°%d, want REVISION n°2", rev.TypeVersion, rev.VersionNumero)
	}
	if rev.Statut != devis.StatutBrouillon {
		t.Errorf("Statut = %s, want BROUILLON", rev.Statut)
	}

	source := b.recharger(t, d.ID)
	if !source.VersionFigee {
		t.Error("la source n'est pas figée")
	}

	// L'arbre est copié, débours compris, et recalculé à l'identique.
	lignes, err := b.st.Lignes().FindByDevis(ctx, rev.ID)
	if err != nil {
		t.Fatalf("lignes: %v", err)
	}
	if len(lignes) != 1 || len(lignes[0].Debourses) != 2 {
		t.Fatalf("copie = %d lignes, want 1 avec 2 débours", len(lignes))
	}
	if !rev.TotalHT.Equal(source.TotalHT) {
		t.Errorf("TotalHT copie %s ≠ source %s", rev.TotalHT, source.TotalHT)
	}
}

func TestVersionFigee_RejetteLesEcritures(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")

	if _, err := b.versionneurRevision().Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("révision: %v", err)
	}

	uc := AjouterLotUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Num: b.num}
	_, err := uc.Execute(ctx, d.ID, 0, "Nouveau lot", nil, commercialID)
	if !devis.IsCode(err, devis.CodeVersionFigee) {
		t.Errorf("err = %v, want VERSION_FIGEE", err)
	}
}

func TestCreerVariante_LabelFerme(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")

	variante, err := b.versionneurVariante().Execute(ctx, d.ID, "ECO", devis.RoleCommercial, commercialID)
	if err != nil {
		t.Fatalf("variante: %v", err)
	}
	if want := d.Numero + "-ECO"; variante.Numero != want {
		t.Errorf("Numero = %s, want %s", variante.Numero, want)
	}
	// Une variante n'immobilise pas la source.
	if b.recharger(t, d.ID).VersionFigee {
		t.Error("source figée par une variante")
	}

	if _, err := b.versionneurVariante().Execute(ctx, d.ID, "LUXE", devis.RoleCommercial, commercialID); err == nil {
		t.Error("label LUXE accepté, want erreur")
	}
}

func TestListerVersions_FamilleComplete(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")

	variante, err := b.versionneurVariante().Execute(ctx, d.ID, "ECO", devis.RoleCommercial, commercialID)
	if err != nil {
		t.Fatalf("variante: %v", err)
	}
	rev, err := b.versionneurRevision().Execute(ctx, d.ID, devis.RoleCommercial, commercialID)
	if err != nil {
		t.Fatalf("révision: %v", err)
	}

	// La famille est la même vue depuis n'importe quel membre.
	for _, id := range []int64{d.ID, variante.ID, rev.ID} {
		versions, err := (ListerVersionsUseCase{Devis: b.st.Devis()}).Execute(ctx, id)
		if err != nil {
			t.Fatalf("lister depuis %d: %v", id, err)
		}
		if len(versions) != 3 {
			t.Errorf("famille depuis %d = %d membres, want 3", id, len(versions))
		}
	}
}

func TestFigerVersion_Manuellement(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)

	fige, err := (FigerVersionUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID)
	if err != nil {
		t.Fatalf("figer: %v", err)
	}
	if !fige.VersionFigee {
		t.Error("VersionFigee = false après figement")
	}
	if !contient(b.actions(t, d.ID), devis.ActionFigeVersion) {
		t.Error("journal sans fige_version")
	}
}
