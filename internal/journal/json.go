package journal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

// lineJSONHandler is a slog handler that writes records as flat JSON lines:
// time in "2006-01-02 15:04:05" format, no level field, all attributes at
// the top level of the object.
type lineJSONHandler struct {
	opts slog.HandlerOptions
	out  io.Writer
}

// NewLineJSONHandler creates a handler writing JSONL records to out.
// opts may be nil.
func NewLineJSONHandler(out io.Writer, opts *slog.HandlerOptions) *lineJSONHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &lineJSONHandler{
		opts: *opts,
		out:  out,
	}
}

// Handle serializes the record to a single JSON line.
func (h *lineJSONHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]interface{})
	attrs["time"] = r.Time.Format("2006-01-02 15:04:05")

	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" && a.Value.Any() != nil {
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	_, err = h.out.Write(append(data, '\n'))
	return err
}

// WithAttrs is not supported
func (h *lineJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	panic("WithAttrs is not supported by lineJSONHandler")
}

// WithGroup is not supported
func (h *lineJSONHandler) WithGroup(name string) slog.Handler {
	panic("WithGroup is not supported by lineJSONHandler")
}

// Enabled always returns true — the journal records every decision.
func (h *lineJSONHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// JsonJournal is a thread-safe decision journal. Each evaluated pull
// request becomes one JSON line in a file rotated and compressed by
// lumberjack, suitable for long-running daemon use.
type JsonJournal struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewJsonJournal creates a journal writing to file, rotating at maxSize MB
// and keeping at most maxBackups rotated files.
func NewJsonJournal(file string, maxSize, maxBackups int) *JsonJournal {
	j := JsonJournal{}
	j.lumberjack = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}

	handler := NewLineJSONHandler(j.lumberjack, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	j.logger = slog.New(handler)
	return &j
}

// Append writes one decision record: repository, pull request number and
// title, the score, the adoption flag and the full hits trail.
// Thread-safe through lumberjack and slog.
func (j *JsonJournal) Append(repo string, pr pull.PullRequest, decision score.Decision) {
	j.logger.Info("",
		"repo", repo,
		"number", pr.Number,
		"title", pr.Title,
		"merged_at", pr.MergedAt,
		"score", decision.Score,
		"adopt", decision.Adopt,
		"strong_signal", decision.StrongSignal,
		"tags", decision.MatchedTags,
		"hits", decision.Hits,
	)
}

// Close closes the underlying file, completing writes and rotation.
func (j *JsonJournal) Close() {
	j.lumberjack.Close()
}
