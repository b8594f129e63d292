package desk

import (
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// StageEvent reports a finished stage; Err is set when the stage failed.
type StageEvent struct {
	Stage   State
	Elapsed time.Duration
	Err     error
}

// ProgressReporter receives stage events of a pipeline run.
type ProgressReporter interface {
	Send(event *StageEvent) error
}

type NoOpProgressReporter struct{}

func (r *NoOpProgressReporter) Send(event *StageEvent) error {
	return nil
}

// LogProgressReporter logs every stage of one conversation.
type LogProgressReporter struct {
	ConversationID string
}

func (r *LogProgressReporter) Send(event *StageEvent) error {
	fields := []zap.Field{
		zap.String("conversationId", r.ConversationID),
		zap.String("stage", event.Stage.String()),
		zap.Duration("elapsed", event.Elapsed),
	}
	if event.Err != nil {
		logger.Error("Stage failed", append(fields, zap.Error(event.Err))...)
		return nil
	}
	logger.Info("Stage completed", fields...)
	return nil
}

// MultiProgressReporter fans events out to several reporters.
type MultiProgressReporter []ProgressReporter

func (m MultiProgressReporter) Send(event *StageEvent) error {
	var firstErr error
	for _, r := range m {
		if err := r.Send(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
