// Package llmtest provides a scripted model.LanguageModel for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
)

// Request records one call made to the scripted model.
type Request struct {
	Method   string // Complete, Extract or CompleteWithTools
	Messages []*schema.Message
	Tools    []*schema.ToolInfo
	Target   string // type name of the Extract target
}

type step struct {
	value      any
	completion *model.Completion
	err        error
}

// Scripted replays queued answers in order. Extractions and responses are
// queued separately. Running out of script is an error.
type Scripted struct {
	mu       sync.Mutex
	extracts []step
	replies  []step
	requests []Request
	// Block, when set, makes every call wait for ctx to be done.
	Block bool
}

var _ model.LanguageModel = (*Scripted)(nil)

func New() *Scripted {
	return &Scripted{}
}

// Extracts queues values returned by Extract. Each value is round-tripped
// through JSON into the caller's target.
func (s *Scripted) Extracts(values ...any) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		s.extracts = append(s.extracts, step{value: v})
	}
	return s
}

// ExtractFails queues an extraction failure with the given raw output.
func (s *Scripted) ExtractFails(raw string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracts = append(s.extracts, step{err: errx.NewExtractionError("scripted", raw, fmt.Errorf("malformed output"))})
	return s
}

// Replies queues final text answers.
func (s *Scripted) Replies(texts ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range texts {
		s.replies = append(s.replies, step{completion: &model.Completion{Text: t, Model: "scripted"}})
	}
	return s
}

// CallsTools queues one tool call batch.
func (s *Scripted) CallsTools(calls ...model.ToolCall) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, step{completion: &model.Completion{ToolCalls: calls, Model: "scripted"}})
	return s
}

// ReplyFails queues a transport failure for the next response call.
func (s *Scripted) ReplyFails(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, step{err: errx.WrapModel(err)})
	return s
}

// Requests returns the calls made so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many calls used method.
func (s *Scripted) Count(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Scripted) Complete(ctx context.Context, messages []*schema.Message) (*model.Completion, error) {
	st, err := s.next(ctx, Request{Method: "Complete", Messages: messages}, &s.replies)
	if err != nil {
		return nil, err
	}
	return st.completion, st.err
}

func (s *Scripted) CompleteWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*model.Completion, error) {
	st, err := s.next(ctx, Request{Method: "CompleteWithTools", Messages: messages, Tools: tools}, &s.replies)
	if err != nil {
		return nil, err
	}
	return st.completion, st.err
}

func (s *Scripted) Extract(ctx context.Context, messages []*schema.Message, out any) (*model.Completion, error) {
	st, err := s.next(ctx, Request{Method: "Extract", Messages: messages, Target: fmt.Sprintf("%T", out)}, &s.extracts)
	if err != nil {
		return nil, err
	}
	if st.err != nil {
		return nil, st.err
	}
	raw, err := json.Marshal(st.value)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, errx.NewExtractionError(fmt.Sprintf("%T", out), string(raw), err)
	}
	if v, ok := out.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, errx.NewExtractionError(fmt.Sprintf("%T", out), string(raw), err)
		}
	}
	return &model.Completion{Text: string(raw), Model: "scripted"}, nil
}

func (s *Scripted) next(ctx context.Context, req Request, queue *[]step) (step, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	block := s.Block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return step{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(*queue) == 0 {
		return step{}, fmt.Errorf("llmtest: script exhausted on %s", req.Method)
	}
	st := (*queue)[0]
	*queue = (*queue)[1:]
	return st, nil
}
