package models

import "context"

// Identity is what the external identity provider knows about a bearer
// token.
type Identity struct {
	UserID  int  `json:"user_id"`
	IsAdmin bool `json:"is_admin"`
}

type IdentityProvider interface {
	ResolveIdentity(ctx context.Context, token string) (Identity, error)
}

// ContentStore is the external owner of posts, comments and messages.
// Author lookups resolve report targets; deletions enforce content
// removal actions.
type ContentStore interface {
	GetAuthor(ctx context.Context, target TargetRef) (int, error)
	DeletePost(ctx context.Context, postID int) error
	DeleteComment(ctx context.Context, commentID int) error
}
