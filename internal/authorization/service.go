package authorization

import "context"

// Service decides whether a user role may perform action on object.
type Service interface {
	Authorize(ctx context.Context, userID string, role string, object string, action string) error
}
