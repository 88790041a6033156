package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/logging"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

const debitsCSV = `Date,Narration,Amount
2025-01-05,PAYMENT TO JOHN DOE REF001,"1,000.00"
2025-01-06,BANK CHARGES JAN,(50)
`

const creditsCSV = `date,Narrative,Amount
2025-01-05,payment to john doe ref001,1000
`

func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func newService(repo storage.Repository) *service.ReconcileService {
	return service.NewReconcileService(
		reconcile.New(reconcile.DefaultOptions()),
		tabular.NewReader(tabular.ReaderOptions{}),
		repo,
		0,
		logging.Discard(),
	)
}

// seedRun runs a ledger reconciliation through the service and returns it.
func seedRun(t *testing.T, svc *service.ReconcileService) *service.Run {
	t.Helper()
	run, err := svc.Reconcile(context.Background(), service.Request{
		Mode:  "ledger",
		Left:  service.Input{Name: "debits.csv", Reader: strings.NewReader(debitsCSV)},
		Right: service.Input{Name: "credits.csv", Reader: strings.NewReader(creditsCSV)},
		Save:  true,
	})
	require.NoError(t, err)
	return run
}

// multipartRequest builds an upload request. Files map field name to
// file name and content.
func multipartRequest(t *testing.T, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, file := range files {
		fw, err := mw.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
