// Package auditlog persists webhook artifacts to durable storage: every raw
// payload, each processed result, and every error envelope. The writer is
// constructed once at process start and injected into the pipeline, so tests
// can substitute an in-memory Recorder.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	dirRaw       = "raw-payloads"
	dirProcessed = "processed"
	dirErrors    = "errors"
)

// Recorder is the audit contract the pipeline depends on.
type Recorder interface {
	RecordRaw(payload map[string]any, action string) (string, error)
	RecordProcessed(result any, action, rawArtifact string) (string, error)
	RecordError(procErr error, payload map[string]any, action string) (string, error)
}

// Writer stores artifacts as JSON files under a base directory, one subtree
// per category.
type Writer struct {
	dir string
}

// NewWriter creates the category directories and returns a file-backed
// writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	for _, sub := range []string{dirRaw, dirProcessed, dirErrors} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", sub, err)
		}
	}
	return &Writer{dir: dir}, nil
}

// artifactName builds "{date}_{action}_{time-with-milliseconds}.json".
// Sub-millisecond concurrent writes of the same action may collide; a webhook
// invocation performs at most one raw write, so this is an accepted rare risk.
func artifactName(action string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s-%03d.json",
		t.Format("2006-01-02"), action, t.Format("150405"), t.Nanosecond()/1e6)
}

type rawEnvelope struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
	Metadata  rawMetadata    `json:"metadata"`
}

type rawMetadata struct {
	Source     string    `json:"source"`
	Version    string    `json:"version"`
	ReceivedAt time.Time `json:"received_at"`
}

// RecordRaw stores the payload exactly as received and returns the artifact
// name used to link the processed record back to it.
func (w *Writer) RecordRaw(payload map[string]any, action string) (string, error) {
	now := time.Now()
	name := artifactName(action, now)
	env := rawEnvelope{
		Timestamp: now,
		Action:    action,
		Payload:   payload,
		Metadata: rawMetadata{
			Source:     "whaticket-webhook",
			Version:    "1.0.0",
			ReceivedAt: now,
		},
	}
	if err := w.writeJSON(dirRaw, name, env); err != nil {
		return "", err
	}
	return name, nil
}

type processedEnvelope struct {
	Timestamp     time.Time      `json:"timestamp"`
	Action        string         `json:"action"`
	OriginalFile  string         `json:"original_file"`
	ProcessedData any            `json:"processed_data"`
	Info          processingInfo `json:"processing_info"`
}

type processingInfo struct {
	ProcessedAt time.Time `json:"processed_at"`
	Success     bool      `json:"success"`
}

// RecordProcessed stores the pipeline result alongside a reference to the raw
// artifact it was derived from.
func (w *Writer) RecordProcessed(result any, action, rawArtifact string) (string, error) {
	now := time.Now()
	name := artifactName(action, now)
	env := processedEnvelope{
		Timestamp:     now,
		Action:        action,
		OriginalFile:  rawArtifact,
		ProcessedData: result,
		Info:          processingInfo{ProcessedAt: now, Success: true},
	}
	if err := w.writeJSON(dirProcessed, name, env); err != nil {
		return "", err
	}
	return name, nil
}

type errorEnvelope struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Error     errorDetail    `json:"error"`
	Payload   map[string]any `json:"payload"`
	Info      errorInfo      `json:"error_info"`
}

type errorDetail struct {
	Message string `json:"message"`
}

type errorInfo struct {
	OccurredAt time.Time `json:"occurred_at"`
	Severity   string    `json:"severity"`
}

// RecordError stores a fatal processing error together with the offending
// payload and the best-effort classified action.
func (w *Writer) RecordError(procErr error, payload map[string]any, action string) (string, error) {
	now := time.Now()
	name := artifactName(action, now)
	env := errorEnvelope{
		Timestamp: now,
		Action:    action,
		Error:     errorDetail{Message: procErr.Error()},
		Payload:   payload,
		Info:      errorInfo{OccurredAt: now, Severity: "high"},
	}
	if err := w.writeJSON(dirErrors, name, env); err != nil {
		return "", err
	}
	return name, nil
}

func (w *Writer) writeJSON(category, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", category, err)
	}
	path := filepath.Join(w.dir, category, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s artifact: %w", category, err)
	}
	return nil
}
