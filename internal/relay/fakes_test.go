package relay_test

import (
	"context"
	"errors"
	"sync"

	"github.com/wallubot/wallu-telegram/internal/relay"
	"github.com/wallubot/wallu-telegram/internal/wallu"
)

type sent struct {
	ChatID int64
	Text   string
	Opts   relay.SendOptions
}

type deleted struct {
	ChatID    int64
	MessageID int
}

type fakePlatform struct {
	mu             sync.Mutex
	sent           []sent
	deleted        []deleted
	typing         []int64
	answered       []string
	titles         map[int64]string
	statuses       map[[2]int64]relay.MemberStatus
	rejectMarkdown bool
	sendErr        error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		titles:   map[int64]string{},
		statuses: map[[2]int64]relay.MemberStatus{},
	}
}

func (f *fakePlatform) SendText(_ context.Context, chatID int64, text string, opts relay.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if opts.Markdown && f.rejectMarkdown {
		return 0, relay.ErrFormattingRejected
	}
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, sent{ChatID: chatID, Text: text, Opts: opts})
	return len(f.sent), nil
}

func (f *fakePlatform) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, deleted{chatID, messageID})
	return nil
}

func (f *fakePlatform) ChatTitle(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, ok := f.titles[chatID]
	if !ok {
		return "", errors.New("Bad Request: chat not found")
	}
	return title, nil
}

func (f *fakePlatform) MemberStatus(_ context.Context, chatID, userID int64) (relay.MemberStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[[2]int64{chatID, userID}]
	if !ok {
		return relay.MemberRegular, nil
	}
	return status, nil
}

func (f *fakePlatform) SendTyping(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, chatID)
	return nil
}

func (f *fakePlatform) AnswerCallback(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

func (f *fakePlatform) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.Text)
	}
	return out
}

type fakeCredentials struct {
	mu        sync.Mutex
	keys      map[int64]string
	getErr    error
	deleteErr error
	saves     int
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{keys: map[int64]string{}}
}

func (f *fakeCredentials) Save(_ context.Context, chatID int64, apiKey string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[chatID] = apiKey
	f.saves++
	return nil
}

func (f *fakeCredentials) Get(_ context.Context, chatID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	key, ok := f.keys[chatID]
	return key, ok, nil
}

func (f *fakeCredentials) Delete(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.keys, chatID)
	return nil
}

type call struct {
	APIKey string
	Req    wallu.OnMessageRequest
}

type fakeUpstream struct {
	mu       sync.Mutex
	calls    []call
	reply    string
	err      error
	probeErr map[string]error
}

func (f *fakeUpstream) OnMessage(_ context.Context, apiKey string, req *wallu.OnMessageRequest) (*wallu.OnMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{APIKey: apiKey, Req: *req})
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &wallu.OnMessageResponse{}, nil
	}
	return &wallu.OnMessageResponse{Response: &wallu.Reply{Message: f.reply}}, nil
}

func (f *fakeUpstream) ValidateKey(_ context.Context, apiKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeErr[apiKey]
}
