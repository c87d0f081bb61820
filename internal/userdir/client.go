package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
)

// Platform roles as issued by the user directory.
const (
	RoleGuardian = "guardian"
	RoleTeacher  = "teacher"
	RoleOfficer  = "officer"
	RoleAdmin    = "admin"
)

// Profile is the slice of a user record the messaging core needs: display
// name for titles and denormalized sender names, platform role for the
// conversation-creation policy, and an advisory online flag.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	Online      bool   `json:"online"`
}

// Directory resolves user profiles. The real implementation talks to the
// platform user service; tests use the mock in internal/mocks.
type Directory interface {
	GetUser(ctx context.Context, id string) (Profile, error)
	BulkUsers(ctx context.Context, ids []string) ([]Profile, error)
}

// HTTPDirectory is the user-service client used in production.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory builds a client against the user service base URL.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUser fetches a single profile. Unknown ids map to ErrNotFound.
func (d *HTTPDirectory) GetUser(ctx context.Context, id string) (Profile, error) {
	profiles, err := d.BulkUsers(ctx, []string{id})
	if err != nil {
		return Profile{}, err
	}
	if len(profiles) == 0 {
		return Profile{}, errs.NotFoundf("user %s", id)
	}
	return profiles[0], nil
}

// BulkUsers fetches profiles for the given ids. Ids the directory does not
// know are silently absent from the result.
func (d *HTTPDirectory) BulkUsers(ctx context.Context, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/internal/users?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errs.Transientf("user directory request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Transientf("user directory status %d", resp.StatusCode)
	}

	var body struct {
		Users []Profile `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode user directory response: %w", err)
	}
	return body.Users, nil
}
