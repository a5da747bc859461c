package services

import (
	"espace-clubs-backend/models"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// writeSheet écrit un en-tête en gras puis les lignes, à partir de A1
func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	return f.SetColWidth(sheet, "A", lastCol, 22)
}

func fileBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du fichier Excel: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportResultatsXLSX produit un classeur avec une ligne par choix et le total
func ExportResultatsXLSX(res models.ResultatsSondage) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Résultats"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	gagnants := map[string]bool{}
	for _, id := range res.Gagnants {
		gagnants[id.Hex()] = true
	}

	rows := make([][]interface{}, 0, len(res.Choix)+1)
	for _, c := range res.Choix {
		gagnant := ""
		if gagnants[c.ChoixID.Hex()] {
			gagnant = "oui"
		}
		rows = append(rows, []interface{}{c.Libelle, c.Votes, c.Pourcentage, gagnant})
	}
	rows = append(rows, []interface{}{"Total", res.TotalVotes, 100.0, ""})

	if err := writeSheet(f, sheet, []interface{}{"Choix", "Votes", "Pourcentage", "Gagnant"}, rows); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, "F1", res.Question); err != nil {
		return nil, err
	}
	return fileBytes(f)
}

// ExportMembresXLSX produit la liste des adhésions d'un club
func ExportMembresXLSX(club models.Club, membres []models.ParticipationWithUser) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Membres"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(membres))
	for _, m := range membres {
		decision := ""
		if m.DateDecision != nil {
			decision = m.DateDecision.Format("02/01/2006")
		}
		rows = append(rows, []interface{}{m.Nom, m.Prenom, m.Email, m.Statut, m.DateDemande.Format("02/01/2006"), decision})
	}

	header := []interface{}{"Nom", "Prénom", "Email", "Statut", "Demande", "Décision"}
	if err := writeSheet(f, sheet, header, rows); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: "Membres " + club.Nom, Creator: "Espace Clubs"}); err != nil {
		return nil, err
	}
	return fileBytes(f)
}
