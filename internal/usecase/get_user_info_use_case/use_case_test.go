package getuserinfousecase

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"bankauth/internal/failure"
	"bankauth/internal/store/pg/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	users      []repository.User
	err        error
	byEmail    int
	byUsername int
}

func (f *fakeReader) GetUserByUsername(_ context.Context, username string) (repository.User, error) {
	f.byUsername++
	return f.find(func(u repository.User) bool { return u.Username == username })
}

func (f *fakeReader) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	f.byEmail++
	return f.find(func(u repository.User) bool { return u.Email == email })
}

func (f *fakeReader) find(match func(repository.User) bool) (repository.User, error) {
	if f.err != nil {
		return repository.User{}, f.err
	}
	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return repository.User{}, sql.ErrNoRows
}

func newReader() *fakeReader {
	return &fakeReader{users: []repository.User{{ID: "12345678A", Username: "jdoe", Email: "jdoe@bank.example"}}}
}

func TestGetUserInfo_ByUsername(t *testing.T) {
	reader := newReader()

	user, err := New(context.Background(), &Params{Store: reader}, &Payload{Search: "jdoe"}).Execute()
	require.NoError(t, err)

	assert.Equal(t, "12345678A", user.ID)
	assert.Equal(t, 1, reader.byUsername)
	assert.Zero(t, reader.byEmail)
}

func TestGetUserInfo_ByEmail(t *testing.T) {
	reader := newReader()

	user, err := New(context.Background(), &Params{Store: reader}, &Payload{Search: " JDoe@Bank.Example "}).Execute()
	require.NoError(t, err)

	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, 1, reader.byEmail)
	assert.Zero(t, reader.byUsername)
}

func TestGetUserInfo_Errors(t *testing.T) {
	_, err := New(context.Background(), &Params{Store: newReader()}, &Payload{Search: "nobody"}).Execute()
	assert.ErrorIs(t, err, failure.ErrUserNotFound)

	_, err = New(context.Background(), &Params{Store: newReader()}, &Payload{Search: "  "}).Execute()
	assert.Equal(t, failure.CodeValidation, failure.CodeOf(err))

	_, err = New(context.Background(), &Params{Store: &fakeReader{err: errors.New("conn reset")}}, &Payload{Search: "jdoe"}).Execute()
	assert.Equal(t, failure.CodeDatabase, failure.CodeOf(err))
}
