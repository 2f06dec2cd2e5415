package auth

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	// DefaultToken is sent when no token has been stored yet.
	DefaultToken = "guest-token"
	// FallbackUserID is the x-user-id of a session without email or phone.
	FallbackUserID = "guest-user"
)

var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fooddelivery-client/users"))

// Profile is the user record kept under storage.KeyUser.
type Profile struct {
	Subject string `json:"sub,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Identity is everything the client knows about the caller of a request.
type Identity struct {
	Token   string
	Profile Profile
}

// UserID is the x-user-id header value for this identity.
func (i Identity) UserID() string {
	return DeriveUserID(i.Profile)
}

// SessionKey identifies the caller's session and stored state. It is the
// UserID when the profile names an email or phone. Otherwise it is derived
// from the token subject, then from the token itself, so callers without a
// profile never share a cart.
func (i Identity) SessionKey() string {
	if id := i.UserID(); id != FallbackUserID {
		return id
	}
	if sub := strings.TrimSpace(i.Profile.Subject); sub != "" {
		return uuid.NewSHA1(userNamespace, []byte("sub:"+sub)).String()
	}
	if i.Token != "" {
		return uuid.NewSHA1(userNamespace, []byte("token:"+i.Token)).String()
	}
	return FallbackUserID
}

// DeriveUserID maps a profile to a stable identifier: a UUIDv5 of the
// normalized email, else of the phone digits, else FallbackUserID.
func DeriveUserID(p Profile) string {
	if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
		return uuid.NewSHA1(userNamespace, []byte("email:"+email)).String()
	}
	if phone := normalizePhone(p.Phone); phone != "" {
		return uuid.NewSHA1(userNamespace, []byte("phone:"+phone)).String()
	}
	return FallbackUserID
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
