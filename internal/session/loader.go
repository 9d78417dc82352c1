package session

import (
	"context"
	"fmt"

	"github.com/nhle/clinicdesk/internal/model"
)

// ProfileFetcher loads the signed-in user's profile.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*model.User, error)
}

// Load fetches the profile into s. The store reports loading while the
// fetch is in flight; on failure it ends with no user.
func Load(ctx context.Context, s *Store, api ProfileFetcher) (*model.User, error) {
	s.BeginLoad()

	u, err := api.Profile(ctx)
	if err != nil {
		s.Fail()
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	s.SetUser(u)
	return u, nil
}
