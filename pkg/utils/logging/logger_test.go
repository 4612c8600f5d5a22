package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

func TestLevelFiltering(t *testing.T) {
	emitted := func(level string) int {
		buf := &bytes.Buffer{}
		logger := logging.New(level, "console", buf)
		logger.Debug("evaluation dequeued")
		logger.Info("answer evaluated")
		logger.Warn("analysis unavailable")
		logger.Error("report generation failed")

		count := 0
		for _, msg := range []string{
			"evaluation dequeued",
			"answer evaluated",
			"analysis unavailable",
			"report generation failed",
		} {
			if strings.Contains(buf.String(), msg) {
				count++
			}
		}
		return count
	}

	gt.V(t, emitted("debug")).Equal(4)
	gt.V(t, emitted("info")).Equal(3)
	gt.V(t, emitted("warning")).Equal(2)
	gt.V(t, emitted("ERROR")).Equal(1)
	// Unknown levels fall back to info
	gt.V(t, emitted("verbose")).Equal(3)
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", "json", buf)

	logger.Info("answer evaluated", "interview", "abc", "final_score", 70.25)

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	gt.V(t, record["msg"]).Equal("answer evaluated")
	gt.V(t, record["interview"]).Equal("abc")
	gt.V(t, record["final_score"]).Equal(70.25)
}

func TestContextCarriesLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", "console", buf).With("worker", 3)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("task picked up")

	output := buf.String()
	gt.S(t, output).Contains("task picked up")
	gt.S(t, output).Contains("worker")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(logging.New("warn", "console", buf))

	// A bare context yields the process default
	logger := logging.From(context.Background())
	logger.Warn("queue is full")
	gt.S(t, buf.String()).Contains("queue is full")
}
