package mqttconn

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// FakeClient is an in-memory mqtt.Client for tests. Publishes are recorded and
// Deliver invokes the handler registered for a subscribed topic.
type FakeClient struct {
	mu         sync.Mutex
	connected  bool
	ConnectErr error
	// ConnectPending makes Connect return a token that never completes.
	ConnectPending bool
	PublishErr     error
	Published      []FakeMessage
	Disconnects    int
	handlers       map[string]mqtt.MessageHandler
}

// FakeMessage is a recorded publish.
type FakeMessage struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeClient) IsConnectionOpen() bool { return f.IsConnected() }

func (f *FakeClient) Connect() mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectPending {
		return pendingToken{}
	}
	f.connected = f.ConnectErr == nil
	return &fakeToken{err: f.ConnectErr}
}

func (f *FakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.Disconnects++
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil {
		return &fakeToken{err: f.PublishErr}
	}
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = append([]byte(nil), p...)
	case string:
		body = []byte(p)
	}
	f.Published = append(f.Published, FakeMessage{Topic: topic, QoS: qos, Retained: retained, Payload: body})
	return &fakeToken{}
}

func (f *FakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = callback
	return &fakeToken{}
}

func (f *FakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic, qos := range filters {
		f.Subscribe(topic, qos, callback)
	}
	return &fakeToken{}
}

func (f *FakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.handlers, t)
	}
	return &fakeToken{}
}

func (f *FakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	f.Subscribe(topic, 0, callback)
}

func (f *FakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Subscribed reports whether a handler is registered for topic.
func (f *FakeClient) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

// Deliver hands payload to the handler subscribed to topic.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(f, &fakeMessage{topic: topic, payload: payload})
	return true
}

// Messages returns a copy of recorded publishes.
func (f *FakeClient) Messages() []FakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeMessage(nil), f.Published...)
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool { select {} }
func (pendingToken) WaitTimeout(d time.Duration) bool {
	time.Sleep(d)
	return false
}
func (pendingToken) Done() <-chan struct{} { return nil }
func (pendingToken) Error() error          { return nil }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
