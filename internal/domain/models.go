package domain

import (
	"encoding/json"
	"time"
)

// JobStatus is the status reported by the extraction service for a job.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// Terminal reports whether polling can stop.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// Job is the extraction service job envelope. Raw keeps the full body for relaying.
type Job struct {
	ID         string          `json:"id"`
	Status     JobStatus       `json:"status"`
	FileName   string          `json:"fileName,omitempty"`
	Extraction json.RawMessage `json:"extraction,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// Result returns the extraction block when the service sent one, otherwise the whole job.
func (j *Job) Result() json.RawMessage {
	if len(j.Extraction) > 0 && string(j.Extraction) != "null" {
		return j.Extraction
	}
	return j.Raw
}

// Upload is a file received from the client and spooled to a temporary path.
type Upload struct {
	Path        string
	FileName    string
	ContentType string
}

// JobOptions is the options part sent with every extraction job.
type JobOptions struct {
	ClientID     string `json:"clientId"`
	DocumentType string `json:"documentType"`
	SchemaName   string `json:"schemaName"`
	ReceivedDate string `json:"receivedDate"`
}

// ExtractionResult is what upload/extract hands back to the caller.
type ExtractionResult struct {
	JobID   string          `json:"jobId"`
	Status  JobStatus       `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

// Document is a binary produced by the translation pipeline.
type Document struct {
	Data        []byte
	FileName    string
	ContentType string
	Kind        string
	Pages       int
}

// CorrectionRecord is one entry in the correction history of a job.
type CorrectionRecord struct {
	ID        string          `json:"id"`
	JobID     string          `json:"jobId"`
	Fields    json.RawMessage `json:"fields,omitempty"`
	Confirmed bool            `json:"confirmed"`
	CreatedAt time.Time       `json:"createdAt"`
}
