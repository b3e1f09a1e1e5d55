package bgsync

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrWakeNotStarted marks a wake that failed before the handler consumed
// its pending work. Only these failures are fired again: once the work has
// been taken, another wake for the same tag has nothing to do.
var ErrWakeNotStarted = errors.New("wake did not start")

// FailureCategory separates failures worth another wake from those that are not.
type FailureCategory int

const (
	CategoryTransient FailureCategory = iota
	CategoryPermanent
)

// Classifier maps a wake handler error to a category.
type Classifier func(err error) FailureCategory

// RetryStrategy decides when a failed wake is fired again.
type RetryStrategy interface {
	// GetDelay returns the delay before attempt (0-indexed).
	GetDelay(attempt int) time.Duration

	// ShouldRetry reports whether another attempt follows attempt.
	ShouldRetry(err error, attempt int) bool
}

// ExponentialBackoff doubles the delay on each attempt up to MaxDelay.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Classifier   Classifier
}

// DefaultBackoff returns 30s, 60s, 120s delays with three attempts in total.
func DefaultBackoff(classifier Classifier) *ExponentialBackoff {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	return &ExponentialBackoff{
		InitialDelay: 30 * time.Second,
		MaxDelay:     5 * time.Minute,
		MaxAttempts:  3,
		Classifier:   classifier,
	}
}

// DefaultClassifier treats a wake that never started as transient. Every
// other failure, cancellation included, is permanent.
func DefaultClassifier(err error) FailureCategory {
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}
	if errors.Is(err, ErrWakeNotStarted) {
		return CategoryTransient
	}
	return CategoryPermanent
}

// GetDelay calculates InitialDelay * 2^attempt.
func (s *ExponentialBackoff) GetDelay(attempt int) time.Duration {
	delay := float64(s.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry checks the error is transient and attempts remain. attempt
// counts the fires made so far.
func (s *ExponentialBackoff) ShouldRetry(err error, attempt int) bool {
	if attempt >= s.MaxAttempts {
		return false
	}
	classifier := s.Classifier
	if classifier == nil {
		classifier = DefaultClassifier
	}
	return classifier(err) == CategoryTransient
}
