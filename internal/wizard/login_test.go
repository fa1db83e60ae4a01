package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
)

func TestRequestLoginUnknownAccount(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	ls := &LoginState{}

	err := w.RequestLogin(context.Background(), ls, "ada@example.com")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.False(t, ls.Sent)
	assert.Equal(t, 0, b.count("send-code"))
}

func TestLoginFlow(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newStub()
	b.existing = true
	w := newTestWizard(b, c)
	ls := &LoginState{}
	ctx := context.Background()

	require.NoError(t, w.RequestLogin(ctx, ls, "Ada@Example.com"))
	assert.True(t, ls.Sent)
	assert.Equal(t, 60, ls.Cooldown(c.now()))

	assert.ErrorIs(t, w.RequestLogin(ctx, ls, "ada@example.com"), ErrCooldown)
	assert.Equal(t, 1, b.count("send-code"))

	require.Error(t, w.VerifyLogin(ctx, ls, codeOf("999999")))
	assert.Equal(t, Code{}, ls.Code)
	assert.Equal(t, 0, ls.Focus)

	require.NoError(t, w.VerifyLogin(ctx, ls, codeOf(apiclient.FakeCode)))
	assert.Empty(t, ls.LastError)
}

func TestVerifyLoginBeforeRequest(t *testing.T) {
	w := newTestWizard(newStub(), &clock{t: time.Now()})
	assert.ErrorIs(t, w.VerifyLogin(context.Background(), &LoginState{}, codeOf(apiclient.FakeCode)), ErrWrongStep)
}
