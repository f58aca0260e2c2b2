package application

import "context"

// AudioSource produces voice-command clips for the listener loop.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextClip(ctx context.Context) ([]byte, string, error) // data, mime type
	Name() string
}
