package llm

import "context"

// Request is one image description call.
type Request struct {
	Image       []byte
	MIMEType    string
	Instruction string
}

type Provider interface {
	// StreamDescribe returns a stream of text chunks (incremental). errs yields at most one error.
	StreamDescribe(ctx context.Context, req Request) (chunks <-chan string, errs <-chan error)
	Close() error
}

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.9
)
