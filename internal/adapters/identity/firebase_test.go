package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

type stubTokens struct {
	token *auth.Token
	err   error
	calls int
}

func (s *stubTokens) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	s.calls++
	return s.token, s.err
}

func TestNewFirebaseVerifier_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() { NewFirebaseVerifier(nil) })
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		stub     *stubTokens
		want     *domain.Identity
		wantCall bool
	}{
		{
			name:     "valid token with email",
			token:    "good",
			stub:     &stubTokens{token: &auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "a@x.com"}}},
			want:     &domain.Identity{SubjectID: "u1", Email: "a@x.com"},
			wantCall: true,
		},
		{
			name:     "valid token without email",
			token:    "good",
			stub:     &stubTokens{token: &auth.Token{UID: "u1", Claims: map[string]interface{}{}}},
			want:     &domain.Identity{SubjectID: "u1"},
			wantCall: true,
		},
		{
			name:     "provider rejects",
			token:    "bad",
			stub:     &stubTokens{err: errors.New("signature mismatch")},
			wantCall: true,
		},
		{
			name:     "token without uid",
			token:    "odd",
			stub:     &stubTokens{token: &auth.Token{}},
			wantCall: true,
		},
		{
			name:  "empty token skips provider",
			token: "",
			stub:  &stubTokens{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFirebaseVerifier(tt.stub).Verify(context.Background(), tt.token)

			assert.Equal(t, tt.wantCall, tt.stub.calls == 1)

			if tt.want == nil {
				require.Error(t, err)
				assert.True(t, domain.IsUnauthenticated(err))
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirebaseVerifier_VerifiesEveryCall(t *testing.T) {
	stub := &stubTokens{token: &auth.Token{UID: "u1"}}
	v := NewFirebaseVerifier(stub)

	for range 3 {
		_, err := v.Verify(context.Background(), "tok")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, stub.calls)
}
