package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/api/handlers"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

func TestRecordsHandler_List(t *testing.T) {
	svc := newService(storage.NewMockRepository())
	run := seedRun(t, svc)
	handler := handlers.NewRecordsHandler(svc)

	get := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID+"/records"+query, nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", run.ID))
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		return rec
	}

	t.Run("lists all records", func(t *testing.T) {
		rec := get("")

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 3, response.TotalCount)
		assert.Len(t, response.Records, 3)
	})

	t.Run("filters by status", func(t *testing.T) {
		rec := get("?status=pending_debit")

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Records, 1)
		assert.Equal(t, "BANK CHARGES JAN", response.Records[0].Narration)
		assert.Equal(t, "(50)", response.Records[0].OriginalAmountText)
		assert.True(t, response.Records[0].IsNegative)
	})

	t.Run("filters by side and search", func(t *testing.T) {
		rec := get("?side=credit&search=john")

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Records, 1)
		assert.Equal(t, "matched", response.Records[0].Status)
		assert.NotEmpty(t, response.Records[0].MatchedWith)
	})

	t.Run("paginates", func(t *testing.T) {
		rec := get("?limit=1&offset=1")

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 3, response.TotalCount)
		assert.Len(t, response.Records, 1)
		assert.Equal(t, 1, response.Offset)
	})

	t.Run("rejects unknown status and side", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("?status=bogus").Code)
		assert.Equal(t, http.StatusBadRequest, get("?side=left").Code)
	})

	t.Run("returns 404 for unknown run", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs/missing/records", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "missing"))
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
