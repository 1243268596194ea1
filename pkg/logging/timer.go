package logging

import "time"

// TimedOperation logs an operation once it finishes, with its latency.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

// End logs at info.
func (t *TimedOperation) End(fields ...Field) {
	t.logger.Info(t.msg, t.with(fields)...)
}

// EndError logs at error with err attached.
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, t.with([]Field{Error(err)})...)
}

func (t *TimedOperation) with(extra []Field) []Field {
	out := make([]Field, 0, len(t.fields)+len(extra)+1)
	out = append(out, t.fields...)
	out = append(out, extra...)
	return append(out, Latency(time.Since(t.start)))
}
