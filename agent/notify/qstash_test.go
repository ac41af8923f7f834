package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qstashx "github.com/Sampath-yadav/Sahay-Project/pkg/qstash"
)

type fakePublisher struct {
	err         error
	destination string
	payload     any
}

func (f *fakePublisher) Publish(ctx context.Context, destination string, payload any) (qstashx.PublishResponse, error) {
	f.destination = destination
	f.payload = payload
	if f.err != nil {
		return qstashx.PublishResponse{}, f.err
	}
	return qstashx.PublishResponse{MessageID: "msg_1"}, nil
}

func TestQStashNotifierPublishes(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n, err := NewQStashNotifier(pub, "https://sms.example.com/hook", nil)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), " +919876543210 ", "Booking cancelled."))
	assert.Equal(t, "https://sms.example.com/hook", pub.destination)
	assert.Equal(t, Message{To: "+919876543210", Text: "Booking cancelled."}, pub.payload)
}

func TestQStashNotifierWrapsFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("qstash http status=500")
	n, err := NewQStashNotifier(&fakePublisher{err: boom}, "https://sms.example.com/hook", nil)
	require.NoError(t, err)

	err = n.Notify(context.Background(), "+15551112222", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewQStashNotifierValidates(t *testing.T) {
	t.Parallel()

	_, err := NewQStashNotifier(nil, "https://x", nil)
	assert.Error(t, err)
	_, err = NewQStashNotifier(&fakePublisher{}, " ", nil)
	assert.Error(t, err)
}

func TestLogNotifierNeverFails(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewLogNotifier().Notify(context.Background(), "+919876543210", "hello"))
	assert.Equal(t, "*********3210", MaskContact("+919876543210"))
	assert.Equal(t, "123", MaskContact("123"))
}
