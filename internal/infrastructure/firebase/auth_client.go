package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// AdminClaim is the custom claim that grants admin access.
const AdminClaim = "admin"

// Identity is the caller resolved from a verified ID token.
type Identity struct {
	UID   string
	Admin bool
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	admin, _ := token.Claims[AdminClaim].(bool)
	return &Identity{UID: token.UID, Admin: admin}, nil
}

// SetAdminClaim grants or revokes the admin claim, keeping any other custom
// claims already on the user.
func (f *FirebaseAuthClient) SetAdminClaim(ctx context.Context, uid string, admin bool) error {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return err
	}

	claims := map[string]interface{}{}
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	if admin {
		claims[AdminClaim] = true
	} else {
		delete(claims, AdminClaim)
	}

	return f.client.SetCustomUserClaims(ctx, uid, claims)
}

// TestConnection lists at most one user to check the Auth API is reachable.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	iter := f.client.Users(ctx, "")
	_, err := iter.Next()
	if err == iterator.Done {
		return nil
	}
	return err
}
