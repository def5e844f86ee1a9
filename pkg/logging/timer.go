package logging

import "time"

// Timer logs one operation with its latency when it finishes.
type Timer struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing an operation.
func StartTimer(logger Logger, msg string, fields ...Field) *Timer {
	return &Timer{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

// Done logs the operation at debug level and returns its duration.
func (t *Timer) Done() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug(t.msg, append(t.fields, Latency(elapsed))...)
	return elapsed
}

// Fail logs the operation as a warning with its cause.
func (t *Timer) Fail(err error) time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Warn(t.msg, append(t.fields, Latency(elapsed), Error(err))...)
	return elapsed
}
