package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/pubsub"
)

func newTestConfirmation(t *testing.T) (*ConfirmationService, *SessionManager) {
	t.Helper()
	sm := NewSessionManager(16, zap.NewNop())
	sm.newVehicleID = sequence("TNAB1234")
	sm.newToken = sequence("deadbeef")
	return NewConfirmationService(sm, newTestDirectory(t), nil, zap.NewNop()), sm
}

func drain(sub *pubsub.Subscription[models.Event]) []models.Event {
	var events []models.Event
	for {
		select {
		case evt := <-sub.Events():
			events = append(events, evt)
		default:
			return events
		}
	}
}

func TestConfirm_StopReachesEverySubscriberOnce(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	id, token, err := sm.CreateSession("alice@x.com")
	require.NoError(t, err)
	require.Equal(t, "TNAB1234", id)
	require.Equal(t, "deadbeef", token)

	a, err := sm.Subscribe(id)
	require.NoError(t, err)
	b, err := sm.Subscribe(id)
	require.NoError(t, err)

	state, err := cs.Confirm(context.Background(), "TNAB1234", "deadbeef", testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, models.HandshakeStopped, state)
	assert.Equal(t, models.TrackingStopped, sm.GetStatus(id))

	for _, sub := range []*pubsub.Subscription[models.Event]{a, b} {
		events := drain(sub)
		require.Len(t, events, 1)
		assert.Equal(t, models.EventTrackingStopped, events[0].Type)
		assert.Equal(t, id, events[0].Subject)
	}

	info, err := sm.Info(id)
	require.NoError(t, err)
	assert.Equal(t, models.HandshakeStopped, info.Handshake)
	assert.NotNil(t, info.StoppedAt)
}

func TestConfirm_TokenMismatchNeverStops(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	id, _, err := sm.CreateSession("")
	require.NoError(t, err)

	for _, token := range []string{"", "deadbeee", "DEADBEEF", "deadbeef00"} {
		_, err := cs.Confirm(context.Background(), id, token, testAdminEmail, testAdminPassword)
		assert.ErrorIs(t, err, ErrInvalidLink)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, models.TrackingActive, sm.GetStatus(id))

	_, err = cs.Confirm(context.Background(), "TNXX0000", "deadbeef", testAdminEmail, testAdminPassword)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestConfirm_LazySessionCannotBeConfirmed(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	_, err := sm.Subscribe("TNLZ0001")
	require.NoError(t, err)

	_, err = cs.Confirm(context.Background(), "TNLZ0001", "", testAdminEmail, testAdminPassword)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestConfirm_CredentialFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown admin", "nobody@rela.hospital", testAdminPassword, ErrUnknownAdmin},
		{"wrong password", testAdminEmail, "guess", ErrWrongPassword},
		{"empty password", testAdminEmail, "", ErrWrongPassword},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs, sm := newTestConfirmation(t)
			id, token, err := sm.CreateSession("")
			require.NoError(t, err)

			_, err = cs.Confirm(context.Background(), id, token, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrUnauthorized)

			info, err := sm.Info(id)
			require.NoError(t, err)
			assert.Equal(t, models.TrackingActive, info.Status)
			assert.Equal(t, models.HandshakePending, info.Handshake)
		})
	}
}

func TestConfirm_UnknownAdminStillComparesAHash(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	var compared []string
	cs.checkPassword = func(hash, password string) bool {
		compared = append(compared, hash)
		return CheckPassword(hash, password)
	}
	id, token, err := sm.CreateSession("")
	require.NoError(t, err)

	_, err = cs.Confirm(context.Background(), id, token, "nobody@rela.hospital", testAdminPassword)
	require.ErrorIs(t, err, ErrUnknownAdmin)
	require.Len(t, compared, 1)
	assert.Equal(t, missingAdminHash(), compared[0])
	assert.False(t, CheckPassword(compared[0], testAdminPassword))

	_, err = cs.Confirm(context.Background(), id, token, testAdminEmail, "guess")
	require.ErrorIs(t, err, ErrWrongPassword)
	require.Len(t, compared, 2)
	assert.NotEqual(t, missingAdminHash(), compared[1])
}

func TestConfirm_AdminEmailIsCaseInsensitive(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	id, token, err := sm.CreateSession("")
	require.NoError(t, err)

	_, err = cs.Confirm(context.Background(), id, token, " Admin@RELA.hospital ", testAdminPassword)
	require.NoError(t, err)
}

func TestConfirm_RepeatIsIdempotentAndFailureNeverReverts(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	id, token, err := sm.CreateSession("")
	require.NoError(t, err)
	sub, err := sm.Subscribe(id)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cs.Confirm(ctx, id, token, testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	state, err := cs.Confirm(ctx, id, token, testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, models.HandshakeStopped, state)
	assert.Len(t, drain(sub), 2, "repeated confirmation re-broadcasts")

	_, err = cs.Confirm(ctx, id, token, testAdminEmail, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Equal(t, models.TrackingStopped, sm.GetStatus(id))
}

func TestConfirm_ConcurrentAttempts(t *testing.T) {
	cs, sm := newTestConfirmation(t)
	id, token, err := sm.CreateSession("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			password := testAdminPassword
			if i%2 == 1 {
				password = "wrong"
			}
			_, err := cs.Confirm(context.Background(), id, token, testAdminEmail, password)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrWrongPassword)
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, models.TrackingStopped, sm.GetStatus(id))

	info, err := sm.Info(id)
	require.NoError(t, err)
	assert.Equal(t, models.HandshakeStopped, info.Handshake)
}

func TestConfirm_NotifiesOwner(t *testing.T) {
	sm := NewSessionManager(4, zap.NewNop())
	mail := &recordingNotifier{}
	dispatcher := NewDispatcher()
	dispatcher.Register(ChannelEmail, mail)
	cs := NewConfirmationService(sm, newTestDirectory(t), NewTemplateService(dispatcher), zap.NewNop())

	id, token, err := sm.CreateSession("alice@x.com")
	require.NoError(t, err)
	_, err = cs.Confirm(context.Background(), id, token, testAdminEmail, testAdminPassword)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(mail.messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := mail.messages()[0]
	assert.Equal(t, "alice@x.com", msg.To)
	assert.Contains(t, msg.Body, id)
	assert.Contains(t, msg.Body, "Rela Hospital")
}
