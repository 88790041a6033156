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

func TestReconcileHandler_Create(t *testing.T) {
	t.Run("runs a ledger reconciliation", func(t *testing.T) {
		// Arrange
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(repo))
		req := multipartRequest(t,
			map[string]string{"mode": "ledger"},
			map[string][2]string{
				"left":  {"debits.csv", debitsCSV},
				"right": {"credits.csv", creditsCSV},
			})
		rec := httptest.NewRecorder()

		// Act
		handler.Create(rec, req)

		// Assert
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.Persisted)
		assert.Equal(t, "ledger", response.Run.Mode)
		assert.Equal(t, "debits.csv", response.Run.LeftName)
		assert.Equal(t, 3, response.Summary.Total)
		assert.Equal(t, 1, response.Summary.Pairs)
		assert.True(t, repo.CreateRunCalled)
	})

	t.Run("runs a ticket reconciliation", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(storage.NewMockRepository()))
		req := multipartRequest(t,
			map[string]string{"mode": "ticket"},
			map[string][2]string{
				"left":  {"tickets.csv", "Date,Narration,Amount\n2025-01-05,Cash deposit by Ade,200\n"},
				"right": {"refs.csv", "Date,Narration,Amount,Reference\n2025-01-05,CASH DEPOSIT BY ADE,200,R1\n"},
			})
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Summary.ByStatus["matched"])
	})

	t.Run("validates the form", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(storage.NewMockRepository()))
		files := map[string][2]string{
			"left":  {"debits.csv", debitsCSV},
			"right": {"credits.csv", creditsCSV},
		}

		tests := []struct {
			name   string
			fields map[string]string
			files  map[string][2]string
			status int
			code   string
		}{
			{"missing mode", nil, files, http.StatusBadRequest, dto.ErrCodeValidation},
			{"unknown mode", map[string]string{"mode": "weekly"}, files, http.StatusBadRequest, dto.ErrCodeValidation},
			{"missing right file", map[string]string{"mode": "ledger"},
				map[string][2]string{"left": files["left"]}, http.StatusBadRequest, dto.ErrCodeValidation},
			{"unsupported file type", map[string]string{"mode": "ledger"},
				map[string][2]string{"left": {"debits.pdf", "%PDF"}, "right": files["right"]},
				http.StatusUnsupportedMediaType, dto.ErrCodeUnsupported},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := httptest.NewRecorder()

				handler.Create(rec, multipartRequest(t, tt.fields, tt.files))

				assert.Equal(t, tt.status, rec.Code)
				var response dto.APIError
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
				assert.Equal(t, tt.code, response.Code)
			})
		}
	})

	t.Run("rejects non-multipart bodies", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(storage.NewMockRepository()))
		req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", nil)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
