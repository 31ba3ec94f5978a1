package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// AuthClient verifies Firebase ID tokens. Account creation and credential
// management happen in the identity service, not here.
type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{
		client: client,
	}
}

func (f *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}
