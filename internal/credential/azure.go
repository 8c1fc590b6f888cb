package credential

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/dotcommander/agenthost/internal/config"
	"github.com/dotcommander/agenthost/internal/errs"
)

// azureCredential adapts an azidentity credential to TokenCredential.
type azureCredential struct {
	name  string
	inner azcore.TokenCredential
}

func (a azureCredential) Name() string { return a.name }

func (a azureCredential) GetToken(ctx context.Context, scopes ...string) (Token, error) {
	token, err := a.inner.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return Token{}, fmt.Errorf("%w: %s: %w", ErrAuthentication, a.name, err)
	}
	return Token{Value: token.Token, ExpiresOn: token.ExpiresOn}, nil
}

// selectAzure builds the azidentity credential matching the config.
// The SDK reads the platform-injected identity variables itself; the
// config only steers which strategy is constructed.
func selectAzure(cfg config.Config) (TokenCredential, error) {
	switch {
	case cfg.Hosted():
		var options *azidentity.ManagedIdentityCredentialOptions
		if cfg.ClientID != "" {
			options = &azidentity.ManagedIdentityCredentialOptions{ID: azidentity.ClientID(cfg.ClientID)}
		}
		inner, err := azidentity.NewManagedIdentityCredential(options)
		return wrapAzure("managed-identity", inner, err)
	case cfg.UseCLICredential:
		inner, err := azidentity.NewAzureCLICredential(nil)
		return wrapAzure("azure-cli", inner, err)
	case cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "":
		inner, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		return wrapAzure("client-secret", inner, err)
	default:
		inner, err := azidentity.NewDefaultAzureCredential(nil)
		return wrapAzure("default-chain", inner, err)
	}
}

func wrapAzure(name string, inner azcore.TokenCredential, err error) (TokenCredential, error) {
	if err != nil {
		return nil, errs.Error{
			Err:    fmt.Errorf("construct %s credential: %w", name, err),
			Reason: "Could not configure credentials.",
		}
	}
	return azureCredential{name: name, inner: inner}, nil
}
