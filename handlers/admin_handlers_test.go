package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func rosterSheet(t *testing.T, rows [][]interface{}) []byte {
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
	return buf.Bytes()
}

// upload posts a multipart form with an optional gate field and spreadsheet
func (s *testServer) upload(t *testing.T, gate string, sheet []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if gate != "" {
		require.NoError(t, mw.WriteField("portaria", gate))
	}
	if sheet != nil {
		part, err := mw.CreateFormFile("file", "lista.xlsx")
		require.NoError(t, err)
		_, err = part.Write(sheet)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, s.path("/import"), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range operator {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var rosterHeader = []interface{}{"Criança", "Responsável", "Idade", "Telefone", "Comum"}

func TestImportRecords(t *testing.T) {
	srv := newTestServer(t)

	w := srv.upload(t, "b", rosterSheet(t, [][]interface{}{
		rosterHeader,
		{"Ana", "Maria", "3", "1111", "Bonfim"},
		{"Bia", "Maria", "5", "1111", "Bonfim"},
		{"Caio", "Joao", "4", "2222", "Centro"},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		ImportedCount int    `json:"importedCount"`
		InstanceID    string `json:"instanceId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.ImportedCount)
	assert.Equal(t, srv.id, resp.InstanceID)

	records := srv.records(t)
	require.Len(t, records, 3)
	assert.Equal(t, "B", records[0].Portaria)
	assert.Equal(t, records[0].CodResp, records[1].CodResp)
	assert.NotEqual(t, records[0].CodResp, records[2].CodResp)
}

func TestImportRecordsMissingGate(t *testing.T) {
	srv := newTestServer(t)

	w := srv.upload(t, "", rosterSheet(t, [][]interface{}{
		rosterHeader,
		{"Ana", "Maria", "3", "1111", "Bonfim"},
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "portaria")
	assert.Empty(t, srv.records(t))
}

func TestImportRecordsMissingFile(t *testing.T) {
	srv := newTestServer(t)

	w := srv.upload(t, "A", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRecordsIncompleteRow(t *testing.T) {
	srv := newTestServer(t)

	w := srv.upload(t, "A", rosterSheet(t, [][]interface{}{
		rosterHeader,
		{"Ana", "Maria", "3", "1111", "Bonfim"},
		{"Caio", "Joao", "", "2222", "Centro"},
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to import records")
	assert.Empty(t, srv.records(t), "nothing is written when a row is incomplete")
}
