package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug level with text format", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info level with json format", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "upper case level", level: "WARN", format: "JSON", expectLevel: logrus.WarnLevel, expectJSON: true},
		{name: "invalid level defaults to info", level: "loud", format: "text", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok, "logger should be a LogrusAdapter")
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func newBufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	logrusLogger := logrus.New()
	var buf bytes.Buffer
	logrusLogger.SetOutput(&buf)
	logrusLogger.SetLevel(level)
	logrusLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(logrusLogger), &buf
}

func TestLogrusAdapter_LoggingMethods(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger, string, ...Field)
		message string
	}{
		{name: "debug", logFunc: func(l Logger, m string, f ...Field) { l.Debug(m, f...) }, message: "scanning header"},
		{name: "info", logFunc: func(l Logger, m string, f ...Field) { l.Info(m, f...) }, message: "parsed statement"},
		{name: "warn", logFunc: func(l Logger, m string, f ...Field) { l.Warn(m, f...) }, message: "dropping row"},
		{name: "error", logFunc: func(l Logger, m string, f ...Field) { l.Error(m, f...) }, message: "parse failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedAdapter(logrus.DebugLevel)
			tt.logFunc(logger, tt.message, F(FieldRow, 7))

			out := buf.String()
			assert.Contains(t, out, tt.message)
			assert.Contains(t, out, "row=7")
		})
	}
}

func TestLogrusAdapter_WithErrorAndFields(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.InfoLevel)

	logger.WithError(errors.New("bad signature")).
		WithField(FieldFormat, "pdf").
		WithFields(F(FieldCount, 0)).
		Error("rejecting upload")

	out := buf.String()
	assert.Contains(t, out, "rejecting upload")
	assert.Contains(t, out, "bad signature")
	assert.Contains(t, out, "format=pdf")
	assert.Contains(t, out, "count=0")
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.WarnLevel)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel(" Debug "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
}

func TestRecorder_SharesEntriesAcrossDerivedLoggers(t *testing.T) {
	rec := NewRecorder()
	child := rec.WithField(FieldParser, "csv")
	child.Warn("dropping row", F(FieldRow, 3))
	rec.WithError(errors.New("boom")).Error("failed")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.True(t, entries[0].HasField(FieldParser, "csv"))
	assert.True(t, entries[0].HasField(FieldRow, 3))
	assert.EqualError(t, entries[1].Error, "boom")
	assert.Len(t, rec.EntriesAt("WARN"), 1)
}
