package domain

import "time"

// Source identifies the connector a document came from.
type Source string

const (
	SourceFile      Source = "file"
	SourceMessaging Source = "messaging"
	SourceMail      Source = "mail"
	SourceRecords   Source = "records"
)

type DocumentStatus string

const (
	StatusIngested   DocumentStatus = "ingested"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Metadata travels with a document from its connector through chunking and
// into the vector store payload. Source is mandatory; the rest depends on
// where the content came from.
type Metadata struct {
	Source      Source    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
	File        string    `json:"file,omitempty"`
	RecordIndex int       `json:"record_index,omitempty"`
	Sender      string    `json:"sender,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	User        string    `json:"user,omitempty"`
}

type Document struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Status      DocumentStatus `json:"status"`
	StoragePath string         `json:"storage_path,omitempty"`
	Metadata    Metadata       `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
}

// IsPlaceholder reports whether this document is a synthetic stand-in emitted
// by a connector that failed. Placeholders must never be counted as real
// content when gating ingestion success.
func (d Document) IsPlaceholder() bool {
	return d.Metadata.Error != ""
}

// NewPlaceholder builds the single error document a failing connector emits
// instead of propagating its failure.
func NewPlaceholder(source Source, tag string, reason error) Document {
	msg := "unknown error"
	if reason != nil {
		msg = reason.Error()
	}
	return Document{
		Content: tag + " " + msg,
		Status:  StatusIngested,
		Metadata: Metadata{
			Source:    source,
			Timestamp: time.Now().UTC(),
			Error:     msg,
		},
	}
}

// Chunk is a bounded sub-span of a document's content, the unit of embedding
// and vector search. ParentID is a non-owning back-reference.
type Chunk struct {
	ParentID string   `json:"parent_id"`
	Index    int      `json:"index"`
	Content  string   `json:"content"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Metadata Metadata `json:"metadata"`
}
