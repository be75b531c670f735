package livepreview

import "time"

// Observer receives scheduling events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	EditNotified(kind EditKind)
	AttemptStarted(token Token)
	// AttemptFinished is called for every attempt, committed or not.
	// err is nil on success.
	AttemptFinished(token Token, mode Mode, elapsed time.Duration, err error)
	StaleDiscarded(token Token)
	ImagesSkipped(n int)
}

type nopObserver struct{}

func (nopObserver) EditNotified(EditKind)                             {}
func (nopObserver) AttemptStarted(Token)                              {}
func (nopObserver) AttemptFinished(Token, Mode, time.Duration, error) {}
func (nopObserver) StaleDiscarded(Token)                              {}
func (nopObserver) ImagesSkipped(int)                                 {}
