package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/library/db/sql/gormdb"
)

func validForm() dto.ContactForm {
	return dto.ContactForm{
		Name:    " Visitor ",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Message: "Nice portfolio",
	}
}

func newTestInbox(t *testing.T) *Inbox {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gormdb.Open(ctx, gormdb.DriverMattn, dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	inbox, err := NewInbox(db)
	require.NoError(t, err)
	require.NoError(t, inbox.Migrate(ctx))
	return inbox
}

type fakeNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *fakeNotifier) Notify(context.Context, dto.ContactForm) error {
	n.calls.Add(1)
	return n.err
}

func TestValidate(t *testing.T) {
	form := validForm()
	require.NoError(t, Validate(&form))
	require.Equal(t, "Visitor", form.Name)

	cases := map[string]func(*dto.ContactForm){
		"no name":      func(f *dto.ContactForm) { f.Name = "  " },
		"no email":     func(f *dto.ContactForm) { f.Email = "" },
		"bad email":    func(f *dto.ContactForm) { f.Email = "not-an-email" },
		"no message":   func(f *dto.ContactForm) { f.Message = "" },
		"long name":    func(f *dto.ContactForm) { f.Name = strings.Repeat("n", maxNameLen+1) },
		"long message": func(f *dto.ContactForm) { f.Message = strings.Repeat("m", maxMessageLen+1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			mutate(&form)
			require.ErrorIs(t, Validate(&form), ErrInvalidMessage)
		})
	}
}

func TestRelaySend(t *testing.T) {
	var got dto.ContactForm
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay, err := NewRelay(srv.URL, time.Second)
	require.NoError(t, err)
	require.NoError(t, relay.Send(context.Background(), validForm()))
	require.Equal(t, "visitor@example.com", got.Email)
	require.Equal(t, "Nice portfolio", got.Message)
}

func TestRelayFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	relay, err := NewRelay(srv.URL, time.Second)
	require.NoError(t, err)
	err = relay.Send(context.Background(), validForm())
	require.ErrorIs(t, err, ErrRelayFailed)
	require.Contains(t, err.Error(), "429")
	require.EqualValues(t, 1, hits.Load(), "never retried")

	srv.Close()
	require.ErrorIs(t, relay.Send(context.Background(), validForm()), ErrRelayFailed)

	_, err = NewRelay("", 0)
	require.Error(t, err)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	inbox := newTestInbox(t)

	first, err := inbox.Save(ctx, dto.ContactForm{Name: "a", Email: "a@x.io", Message: "one"})
	require.NoError(t, err)
	second, err := inbox.Save(ctx, dto.ContactForm{Name: "b", Email: "b@x.io", Message: "two"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	require.NoError(t, inbox.MarkRelayed(ctx, first.ID))

	msgs, err := inbox.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "two", msgs[0].Message)
	require.False(t, msgs[0].Relayed)
	require.True(t, msgs[1].Relayed)

	msgs, err = inbox.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

type fakeRelay struct {
	err   error
	calls int
}

func (r *fakeRelay) Send(context.Context, dto.ContactForm) error {
	r.calls++
	return r.err
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("relayed and stored", func(t *testing.T) {
		inbox := newTestInbox(t)
		relay := &fakeRelay{}
		notifier := &fakeNotifier{err: errors.New("telegram down")}
		svc, err := New(WithRelay(relay), WithInbox(inbox), WithNotifier(notifier))
		require.NoError(t, err)

		require.NoError(t, svc.Submit(ctx, validForm()))
		require.Equal(t, 1, relay.calls)
		require.EqualValues(t, 1, notifier.calls.Load())

		msgs, err := inbox.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.True(t, msgs[0].Relayed)
		require.Equal(t, "Visitor", msgs[0].Name)
	})

	t.Run("relay failure surfaces but keeps the message", func(t *testing.T) {
		inbox := newTestInbox(t)
		relay := &fakeRelay{err: errors.Wrap(ErrRelayFailed, "boom")}
		svc, err := New(WithRelay(relay), WithInbox(inbox))
		require.NoError(t, err)

		require.ErrorIs(t, svc.Submit(ctx, validForm()), ErrRelayFailed)
		msgs, err := inbox.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.False(t, msgs[0].Relayed)
	})

	t.Run("invalid form is rejected before delivery", func(t *testing.T) {
		relay := &fakeRelay{}
		svc, err := New(WithRelay(relay))
		require.NoError(t, err)

		require.ErrorIs(t, svc.Submit(ctx, dto.ContactForm{}), ErrInvalidMessage)
		require.Zero(t, relay.calls)
	})

	t.Run("inbox only", func(t *testing.T) {
		svc, err := New(WithInbox(newTestInbox(t)))
		require.NoError(t, err)
		require.NoError(t, svc.Submit(ctx, validForm()))
	})

	_, err := New()
	require.Error(t, err)
}

func TestTelegramNotify(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	notifier, err := NewTelegram("token", 42, srv.URL)
	require.NoError(t, err)
	require.NoError(t, notifier.Notify(context.Background(), validForm()))
	require.Equal(t, "/bottoken/sendMessage", path.Load())

	_, err = NewTelegram("", 42, "")
	require.Error(t, err)
}
