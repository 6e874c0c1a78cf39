package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	IDCard    string `json:"idCard" validate:"required,max=32,identity"`
	Email     string `json:"email" validate:"required,max=254,email"`
	BirthDate string `json:"birthdate" validate:"required,datetime=2006-01-02,adult"`
	Phone     string `json:"phoneNumber" validate:"omitempty,max=20"`
	Internal  string `json:"-" validate:"omitempty,max=1"`
}

func TestValidateStruct(t *testing.T) {
	now := date(2026, 3, 14)
	valid := signup{IDCard: "12345678A", Email: "jdoe@bank.example", BirthDate: "2008-03-14"}

	fields, err := ValidateStruct(&valid, now)
	require.NoError(t, err)
	assert.Nil(t, fields)

	tests := []struct {
		name   string
		mutate func(s *signup)
		field  string
		want   error
	}{
		{name: "missing id card", mutate: func(s *signup) { s.IDCard = "" }, field: "idCard", want: ErrRequired},
		{name: "id card with spaces", mutate: func(s *signup) { s.IDCard = "1234 5678" }, field: "idCard", want: ErrInvalidIdentity},
		{name: "id card too long", mutate: func(s *signup) { s.IDCard = "123456789012345678901234567890123" }, field: "idCard", want: ErrTooLong},
		{name: "bad email", mutate: func(s *signup) { s.Email = "jane.doe" }, field: "email", want: ErrInvalidEmail},
		{name: "bad date", mutate: func(s *signup) { s.BirthDate = "14/03/2008" }, field: "birthdate", want: ErrInvalidDate},
		{name: "one day short of eighteen", mutate: func(s *signup) { s.BirthDate = "2008-03-15" }, field: "birthdate", want: ErrNotAdult},
		{name: "born in the future", mutate: func(s *signup) { s.BirthDate = "2027-01-01" }, field: "birthdate", want: ErrBirthInFuture},
		{name: "phone too long", mutate: func(s *signup) { s.Phone = "123456789012345678901" }, field: "phoneNumber", want: ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			fields, err := ValidateStruct(&s, now)
			require.NoError(t, err)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.want.Error(), fields[tt.field])
		})
	}
}

func TestValidateStruct_UsesGivenClock(t *testing.T) {
	s := signup{IDCard: "A1", Email: "jdoe@bank.example", BirthDate: "2008-03-14"}

	fields, err := ValidateStruct(&s, date(2026, 3, 13))
	require.NoError(t, err)
	assert.Equal(t, ErrNotAdult.Error(), fields["birthdate"])

	fields, err = ValidateStruct(&s, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, fields)
}
