package medtracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RunLogger is the interface for recording processed text commands.
type RunLogger interface {
	LogRun(run RunLog) error
}

// NewRunLogFilePath returns a file path based on a cleaned up model name or id to make it easier to identify logs produced with various models.
func NewRunLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// RunLog captures one pipeline run: the raw command, what was extracted, what
// resolved, and how it all settled.
type RunLog struct {
	Timestamp  time.Time            `json:"timestamp"`
	Input      string               `json:"input"`
	Candidates []CandidateOperation `json:"candidates,omitempty"`
	Mutations  []ResolvedMutation   `json:"mutations,omitempty"`
	Updated    []string             `json:"updated,omitempty"` // item ids that persisted
	Errors     []string             `json:"errors,omitempty"`  // rejections + dispatch failures
	Error      string               `json:"error,omitempty"`   // fatal pipeline error, if any
}

// FileRunLogger logs to a writer, accumulating runs and flushing at the end
type FileRunLogger struct {
	runs   []RunLog
	writer io.Writer
}

// NewFileRunLogger creates a new file-based run logger
func NewFileRunLogger(writer io.Writer) *FileRunLogger {
	return &FileRunLogger{
		runs:   make([]RunLog, 0),
		writer: writer,
	}
}

// LogRun logs a run to the buffer (does not flush immediately)
func (frl *FileRunLogger) LogRun(run RunLog) error {
	frl.runs = append(frl.runs, run)
	return nil
}

// Flush flushes all accumulated runs to the writer
func (frl *FileRunLogger) Flush() error {
	if frl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"command_session": map[string]any{
			"timestamp": time.Now(),
			"runs":      frl.runs,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := frl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	// Clear the buffer after successful write
	frl.runs = frl.runs[:0]
	return nil
}

// NoOpRunLogger is a logger that discards all log entries
type NoOpRunLogger struct{}

// NewNoOpRunLogger creates a new no-op run logger
func NewNoOpRunLogger() *NoOpRunLogger {
	return &NoOpRunLogger{}
}

// LogRun discards the run log (no-op)
func (nop *NoOpRunLogger) LogRun(run RunLog) error {
	return nil
}

// StdoutRunLogger logs each run as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutRunLogger struct{}

// NewStdoutRunLogger creates a new stdout-based run logger
func NewStdoutRunLogger() *StdoutRunLogger {
	return &StdoutRunLogger{}
}

// LogRun writes the run as a JSON line to os.Stdout
func (l *StdoutRunLogger) LogRun(run RunLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3RunLogger writes one object per run under a key prefix.
type S3RunLogger struct {
	bucket string
	prefix string
	s3     putObjectAPI
}

// NewS3RunLogger creates a new S3-backed run logger
func NewS3RunLogger(s3Client putObjectAPI, bucket, prefix string) *S3RunLogger {
	return &S3RunLogger{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

// LogRun marshals the run and puts it to S3 keyed by timestamp.
func (l *S3RunLogger) LogRun(run RunLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	key := fmt.Sprintf("%s%d.json", l.prefix, run.Timestamp.UnixNano())
	_, err = l.s3.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put run log to S3: %w", err)
	}
	return nil
}
