package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AccountBalanceAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/accounts/a1/balance":
			_, _ = w.Write([]byte(`{"data":{"balance":500.25}}`))
		case "/api/accounts":
			_, _ = w.Write([]byte(`{"data":[{"id":"a1","name":"Allowance","type":"allowance","balance":500.25}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not found"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok")
	ctx := context.Background()

	balance, err := c.AccountBalance(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("500.25")))

	accounts, err := c.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Allowance", accounts[0].Name)
	assert.True(t, accounts[0].Balance.Equal(balance))

	_, err = c.AccountBalance(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not found", apiErr.Message)
}

func TestClient_Exports(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/exports":
			raw, _ := io.ReadAll(r.Body)
			body = string(raw)
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"data":{"job_id":"j1","format":"csv","status":"pending"}}`))
		case r.URL.Path == "/api/exports/j1":
			_, _ = w.Write([]byte(`{"data":{"job_id":"j1","status":"completed","gcs_uri":"gs://b/o.csv","row_count":3},"download_url":"/api/exports/j1/download"}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	ctx := context.Background()

	job, err := c.CreateExport(ctx, jobs.FormatCSV, "2025-03-01", "")
	require.NoError(t, err)
	assert.Equal(t, "j1", job.JobID)
	assert.JSONEq(t, `{"format":"csv","startDate":"2025-03-01"}`, body)

	status, err := c.GetExport(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusCompleted, status.Job.Status)
	assert.Equal(t, 3, status.Job.RowCount)
	assert.Equal(t, "/api/exports/j1/download", status.DownloadURL)

	_, err = c.GetExport(ctx, "other")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusTeapot), apiErr.Message)
}
