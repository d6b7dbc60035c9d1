// Package kafka carries MolMatch batch jobs over segmentio/kafka-go: a
// Producer for job requests and results, a Consumer with retry and a
// dead-letter path, and the topic registry.
package kafka

import (
	stderrors "errors"
	"time"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// BatchItemError is one failed record of a batch; Index -1 means the whole
// batch failed.
type BatchItemError struct {
	Index int
	Topic string
	Err   error
}

type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// nonRetryable marks a handler error that retrying cannot fix.
type nonRetryable struct{ err error }

func (n *nonRetryable) Error() string { return n.err.Error() }
func (n *nonRetryable) Unwrap() error { return n.err }

// NonRetryable wraps err so the consumer sends the message straight to the
// dead-letter topic instead of retrying it.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryable{err: err}
}

// IsNonRetryable reports whether err was wrapped by NonRetryable.
func IsNonRetryable(err error) bool {
	var n *nonRetryable
	return stderrors.As(err, &n)
}

//Personal.AI order the ending
