package db

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"checkin-server-go/models"
)

func sheetFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportRecordsGroupsGuardians(t *testing.T) {
	kv, _ := newTestKV(t)
	store := NewRecordStore(kv, testNS, 5)
	ctx := context.Background()

	file := sheetFile(t, [][]interface{}{
		{"Criança", "Responsável", "Idade", "Telefone", "Comum"},
		{"Ana", "Maria", "3", "1111", "Bonfim"},
		{"Bia", "Maria", "5", "1111", "Bonfim"},
		{},
		{"Caio", "Joao", "4", "2222", "Centro"},
	})

	count, err := ImportRecordsFromExcel(ctx, store, file, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].CodResp)
	assert.Equal(t, 1, records[1].CodResp)
	assert.Equal(t, 2, records[2].CodResp)
	assert.Equal(t, "C", records[2].Portaria)
}

func TestImportRecordsRejectsIncompleteSheet(t *testing.T) {
	kv, _ := newTestKV(t)
	store := NewRecordStore(kv, testNS, 5)
	ctx := context.Background()

	file := sheetFile(t, [][]interface{}{
		{"Criança", "Responsável", "Idade", "Telefone", "Comum"},
		{"Ana", "Maria", "3", "1111", "Bonfim"},
		{"Caio", "Joao", "", "2222", "Centro"},
	})

	_, err := ImportRecordsFromExcel(ctx, store, file, "A")
	assert.ErrorIs(t, err, models.ErrIncompleteRow)

	records, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExportRecords(t *testing.T) {
	records := []models.ChildRecord{
		{ID: 1, NomeCrianca: "Ana", NomeResponsavel: "Maria", Idade: "3", Telefone: "1111", Comum: "Bonfim", Portaria: "A", CodResp: 1, StatusImpresso: models.StatusPrinted},
		{ID: 2, NomeCrianca: "Bia", NomeResponsavel: "Maria", Idade: "5", Telefone: "1111", Comum: "Bonfim", Portaria: "A", CodResp: 1, StatusImpresso: models.StatusNotPrinted},
	}

	data, err := ExportRecordsToExcel(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rosterHeaders, rows[0])
	assert.Equal(t, []string{"2", "Bia", "Maria", "5", "1111", "Bonfim", "A", "1", "N"}, rows[2])
}
