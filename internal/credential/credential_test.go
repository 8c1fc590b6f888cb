package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agenthost/internal/config"
)

const testScope = "https://ai.azure.com/.default"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCredential struct {
	name  string
	token Token
	err   error
	calls int
}

func (s *stubCredential) Name() string { return s.name }

func (s *stubCredential) GetToken(context.Context, ...string) (Token, error) {
	s.calls++
	if s.err != nil {
		return Token{}, s.err
	}
	return s.token, nil
}

func TestResolve(t *testing.T) {
	t.Run("hosted runtime uses managed identity", func(t *testing.T) {
		cfg := config.Config{MSIEndpoint: "http://localhost/msi", UseCLICredential: true}
		cred, err := Resolve(cfg, discardLogger())
		require.NoError(t, err)
		require.Equal(t, "managed-identity", cred.Name())
	})

	t.Run("explicit flag uses cli login", func(t *testing.T) {
		cfg := config.Config{UseCLICredential: true}
		cred, err := Resolve(cfg, discardLogger())
		require.NoError(t, err)
		require.Equal(t, "azure-cli", cred.Name())
	})

	t.Run("complete service principal uses a client secret", func(t *testing.T) {
		cfg := config.Config{TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "hunter2"}
		cred, err := Resolve(cfg, discardLogger())
		require.NoError(t, err)
		require.Equal(t, "client-secret", cred.Name())
	})

	t.Run("partial service principal falls back to the default chain", func(t *testing.T) {
		cfg := config.Config{TenantID: "tenant-1", ClientID: "client-1"}
		cred, err := Resolve(cfg, discardLogger())
		require.NoError(t, err)
		require.Equal(t, "default-chain", cred.Name())
	})

	t.Run("default uses the sdk chain", func(t *testing.T) {
		cred, err := Resolve(config.Config{}, discardLogger())
		require.NoError(t, err)
		require.Equal(t, "default-chain", cred.Name())
	})
}

type fakeAzure struct {
	token  azcore.AccessToken
	err    error
	scopes []string
}

func (f *fakeAzure) GetToken(_ context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = options.Scopes
	return f.token, f.err
}

func TestAzureCredential(t *testing.T) {
	t.Run("maps the sdk token and forwards scopes", func(t *testing.T) {
		expires := time.Now().Add(time.Hour)
		fake := &fakeAzure{token: azcore.AccessToken{Token: "tok", ExpiresOn: expires}}
		cred := azureCredential{name: "fake", inner: fake}

		token, err := cred.GetToken(t.Context(), testScope)
		require.NoError(t, err)
		require.Equal(t, "tok", token.Value)
		require.Equal(t, expires, token.ExpiresOn)
		require.Equal(t, []string{testScope}, fake.scopes)
	})

	t.Run("sdk failure is an authentication error naming the source", func(t *testing.T) {
		fake := &fakeAzure{err: errors.New("identity not assigned")}
		cred := azureCredential{name: "managed-identity", inner: fake}

		_, err := cred.GetToken(t.Context(), testScope)
		require.ErrorIs(t, err, ErrAuthentication)
		require.Contains(t, err.Error(), "managed-identity")
		require.Contains(t, err.Error(), "identity not assigned")
	})
}

func TestCached(t *testing.T) {
	t.Run("reuses token until near expiry", func(t *testing.T) {
		stub := &stubCredential{name: "stub", token: Token{Value: "tok", ExpiresOn: time.Now().Add(time.Hour)}}
		cached := NewCached(stub)
		for range 3 {
			_, err := cached.GetToken(t.Context(), testScope)
			require.NoError(t, err)
		}
		require.Equal(t, 1, stub.calls)
	})

	t.Run("refreshes stale tokens", func(t *testing.T) {
		stub := &stubCredential{name: "stub", token: Token{Value: "tok", ExpiresOn: time.Now().Add(time.Minute)}}
		cached := NewCached(stub)
		_, err := cached.GetToken(t.Context(), testScope)
		require.NoError(t, err)
		_, err = cached.GetToken(t.Context(), testScope)
		require.NoError(t, err)
		require.Equal(t, 2, stub.calls)
	})

	t.Run("source failure is not cached", func(t *testing.T) {
		stub := &stubCredential{name: "stub", err: errors.New("offline")}
		cached := NewCached(stub)
		_, err := cached.GetToken(t.Context(), testScope)
		require.Error(t, err)
		_, err = cached.GetToken(t.Context(), testScope)
		require.Error(t, err)
		require.Equal(t, 2, stub.calls)
	})
}
