package refreshaccesstokenusecase

import (
	"context"
	"testing"

	"bankauth/internal/failure"
	"bankauth/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	valid        bool
	refreshErr   error
	refreshCalls int
}

func (f *fakeTokens) ValidateToken(context.Context, string) bool { return f.valid }

func (f *fakeTokens) RefreshToken(_ context.Context, refreshToken string) (*token.Pair, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &token.Pair{AccessToken: "new-" + refreshToken, RefreshToken: "rotated"}, nil
}

func TestRefresh_StillValidIsNoOp(t *testing.T) {
	tokens := &fakeTokens{valid: true}

	resp, err := New(context.Background(), &Params{Tokens: tokens}, &Payload{AccessToken: "a", RefreshToken: "r"}).Execute()
	require.NoError(t, err)

	assert.False(t, resp.Refreshed)
	assert.Nil(t, resp.Pair)
	assert.Zero(t, tokens.refreshCalls, "no provider call when the access token is valid")
}

func TestRefresh_ExpiredAccessToken(t *testing.T) {
	tokens := &fakeTokens{}

	resp, err := New(context.Background(), &Params{Tokens: tokens}, &Payload{AccessToken: "a", RefreshToken: "r"}).Execute()
	require.NoError(t, err)

	assert.True(t, resp.Refreshed)
	assert.Equal(t, "new-r", resp.Pair.AccessToken)
	assert.Equal(t, 1, tokens.refreshCalls)
}

func TestRefresh_MissingTokens(t *testing.T) {
	tokens := &fakeTokens{}

	for _, payload := range []*Payload{
		{AccessToken: "a"},
		{RefreshToken: "r"},
		{},
	} {
		_, err := New(context.Background(), &Params{Tokens: tokens}, payload).Execute()
		assert.ErrorIs(t, err, failure.ErrUnauthorized)
	}
	assert.Zero(t, tokens.refreshCalls)
}

func TestRefresh_ExchangeFails(t *testing.T) {
	tokens := &fakeTokens{refreshErr: &failure.ProviderError{Status: 400, Code: "invalid_grant"}}

	_, err := New(context.Background(), &Params{Tokens: tokens}, &Payload{AccessToken: "a", RefreshToken: "r"}).Execute()

	var provider *failure.ProviderError
	assert.ErrorAs(t, err, &provider)
}
