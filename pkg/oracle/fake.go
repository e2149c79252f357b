package oracle

import "context"

// Fake is a scripted Client for tests. Responses are returned in order;
// the last one repeats once the script runs out.
type Fake struct {
	Responses []string
	Err       error

	calls int
	// Requests records every request for assertion.
	Requests []CompletionRequest
}

// NewFake scripts a single response.
func NewFake(response string) *Fake {
	return &Fake{Responses: []string{response}}
}

func (f *Fake) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	i := f.calls
	if i >= len(f.Responses) {
		i = len(f.Responses) - 1
	}
	f.calls++
	return f.Responses[i], nil
}
