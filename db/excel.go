package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"checkin-server-go/models"
)

const rosterSheet = "Lista de Crianças"

var rosterHeaders = []string{"ID", "Criança", "Responsável", "Idade", "Telefone", "Comum", "Portaria", "Cod. Resp.", "Impresso"}

// --- Excel Export ---

// ExportRecordsToExcel renders the roster as an xlsx workbook
func ExportRecordsToExcel(records []models.ChildRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to name roster sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeaders); err != nil {
		return nil, fmt.Errorf("failed to write roster header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{r.ID, r.NomeCrianca, r.NomeResponsavel, r.Idade, r.Telefone, r.Comum, r.Portaria, r.CodResp, string(r.StatusImpresso)}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write roster row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// --- Excel Import ---

// ImportRecordsFromExcel reads an Excel file stream and registers its rows.
// Columns: child, guardian, age, phone, common. Consecutive rows with the
// same guardian and phone are registered together and share a cod_resp.
func ImportRecordsFromExcel(ctx context.Context, store *RecordStore, file io.Reader, gate string) (int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		log.Printf("Error opening Excel reader: %v", err)
		return 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	// Assuming data is in the first sheet
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		log.Printf("Error getting rows from sheet '%s': %v", sheetName, err)
		return 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	var groups [][]models.PartialRecord
	var lastGuardian string
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}
		rec := models.PartialRecord{
			NomeCrianca:     cell(0),
			NomeResponsavel: cell(1),
			Idade:           cell(2),
			Telefone:        cell(3),
			Comum:           cell(4),
		}
		if rec.IsBlank() {
			continue
		}

		guardian := strings.ToLower(rec.NomeResponsavel) + "|" + rec.Telefone
		if len(groups) == 0 || guardian != lastGuardian {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], rec)
		lastGuardian = guardian
	}

	// Validate everything before the first write so a bad sheet imports nothing
	batches := make([][]models.PartialRecord, 0, len(groups))
	for _, g := range groups {
		batch, err := models.ValidateBatch(g, gate)
		if err != nil {
			return 0, fmt.Errorf("invalid guardian group %q: %w", g[0].NomeResponsavel, err)
		}
		batches = append(batches, batch)
	}
	if len(batches) == 0 {
		return 0, models.ErrEmptyBatch
	}

	importedCount := 0
	for _, batch := range batches {
		if _, err := store.AddBatch(ctx, batch); err != nil {
			return importedCount, fmt.Errorf("failed to register guardian %q: %w", batch[0].NomeResponsavel, err)
		}
		importedCount += len(batch)
	}

	log.Printf("Successfully imported %d records in %d guardian groups", importedCount, len(batches))
	return importedCount, nil
}
