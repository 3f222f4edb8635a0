package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/httpclient"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/jobs"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

type fakeService struct {
	polls     atomic.Int32
	doneAfter int32
	options   domain.JobOptions
	fileName  string
	updated   json.RawMessage
	confirmed bool
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Post("/document/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.NoError(t, json.Unmarshal([]byte(r.FormValue("options")), &f.options))
		_, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			f.fileName = hdr.Filename
		}
		w.Write([]byte(`{"id":"job-7","status":"PENDING"}`))
	})
	r.Get("/document/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		if n < f.doneAfter {
			w.Write([]byte(`{"id":"job-7","status":"RUNNING"}`))
			return
		}
		w.Write([]byte(`{"id":"job-7","status":"DONE","extraction":{"headerFields":[{"name":"grossAmount","value":100}]}}`))
	})
	r.Post("/document/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Extraction json.RawMessage `json:"extraction"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.updated = body.Extraction
		w.Write([]byte(`{"status":"DONE"}`))
	})
	r.Post("/document/jobs/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		f.confirmed = true
		w.Write([]byte(`{"status":"CONFIRMED"}`))
	})
	return r
}

func newClient(srv *httptest.Server) *Client {
	logger := observability.Nop()
	return NewClient(srv.URL,
		httpclient.New("extraction", srv.Client(), httpclient.Config{}, logger),
		jobs.NewPoller(time.Millisecond, 10, logger),
		logger)
}

func writeUpload(t *testing.T) domain.Upload {
	path := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return domain.Upload{Path: path, FileName: "factura.pdf", ContentType: "application/pdf"}
}

func TestSubmitAndWait(t *testing.T) {
	fake := &fakeService{doneAfter: 3}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newClient(srv)

	opts := NewJobOptions("c_00", "invoice", "SAP_invoice_schema", time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC))
	id, err := c.Submit(context.Background(), "tok", writeUpload(t), opts)
	require.NoError(t, err)
	assert.Equal(t, "job-7", id)
	assert.Equal(t, "factura.pdf", fake.fileName)
	assert.Equal(t, "2026-03-09", fake.options.ReceivedDate)
	assert.Equal(t, "SAP_invoice_schema", fake.options.SchemaName)
	assert.Equal(t, "c_00", fake.options.ClientID)

	job, err := c.WaitForJob(context.Background(), "tok", id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, int32(3), fake.polls.Load())
	assert.JSONEq(t, `{"headerFields":[{"name":"grossAmount","value":100}]}`, string(job.Result()))
}

func TestSubmit_UpstreamErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"invalid_schema"}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).Submit(context.Background(), "tok", writeUpload(t), domain.JobOptions{})
	require.Error(t, err)
	assert.Equal(t, `{"error":{"code":"invalid_schema"}}`, domain.ErrorDetail(err))
	assert.Equal(t, http.StatusBadGateway, domain.HTTPStatus(err))
}

func TestSubmit_MissingIDIsUnexpectedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"status":"PENDING"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).Submit(context.Background(), "tok", writeUpload(t), domain.JobOptions{})
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)
}

func TestUpdateAndConfirm(t *testing.T) {
	fake := &fakeService{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newClient(srv)

	fields := json.RawMessage(`{"headerFields":[{"name":"grossAmount","value":120}]}`)
	require.NoError(t, c.UpdateExtraction(context.Background(), "tok", "job-7", fields))
	require.NoError(t, c.Confirm(context.Background(), "tok", "job-7"))

	assert.JSONEq(t, string(fields), string(fake.updated))
	assert.True(t, fake.confirmed)
}

func TestGetJob_RawIsWholeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"FAILED","error":"unreadable"}`))
	}))
	defer srv.Close()

	job, err := newClient(srv).GetJob(context.Background(), "tok", "job-9")
	require.NoError(t, err)
	assert.Equal(t, "job-9", job.ID)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.JSONEq(t, `{"status":"FAILED","error":"unreadable"}`, string(job.Result()))
}
