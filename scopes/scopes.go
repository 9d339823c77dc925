// Package scopes defines the static catalog of OAuth/OIDC scopes this
// provider understands. Scopes are not stored in the database; they are
// fixed at compile time and validated against when apps register scopes or
// clients request them.
package scopes

// Scope describes one requestable OAuth scope. Claims is the list of claim
// names shown for the scope on the consent page; the userinfo endpoint and
// the ID token use their own claim names (for example name and picture for
// profile), which do not all appear in this list.
type Scope struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Claims      []string `json:"claims"`
}

// Catalog is the full set of scopes this provider supports, in declaration
// order (used for discovery's scopes_supported list).
var Catalog = []Scope{
	{
		Name:        "openid",
		Description: "OpenID Connect identity",
		Claims:      []string{"sub", "iss", "aud", "iat", "exp"},
	},
	{
		Name:        "profile",
		Description: "User profile information",
		Claims:      []string{"display_name", "username", "avatar_url", "bio"},
	},
	{
		Name:        "email",
		Description: "Email address",
		Claims:      []string{"email", "email_verified"},
	},
	{
		Name:        "cohort",
		Description: "NS cohort information",
		Claims:      []string{"cohort_id", "cohort_name", "enrollment_date"},
	},
	{
		Name:        "activity",
		Description: "User activity and stats",
		Claims:      []string{"posts_count", "streak_days", "last_active"},
	},
	{
		Name:        "socials",
		Description: "Social media links",
		Claims:      []string{"twitter", "github", "linkedin", "website"},
	},
	{
		Name:        "wallet",
		Description: "Blockchain wallet address",
		Claims:      []string{"wallet_address", "chain"},
	},
	{
		Name:        "offline_access",
		Description: "Long-lived refresh tokens",
		Claims:      []string{"refresh_token"},
	},
}

// byName indexes Catalog for O(1) lookups.
var byName = func() map[string]Scope {
	m := make(map[string]Scope, len(Catalog))
	for _, s := range Catalog {
		m[s.Name] = s
	}
	return m
}()

// Names returns every known scope name in catalog order.
func Names() []string {
	names := make([]string, len(Catalog))
	for i, s := range Catalog {
		names[i] = s.Name
	}
	return names
}

// Known reports whether name is a recognized scope.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Valid reports whether every entry in names is a recognized scope.
func Valid(names []string) bool {
	for _, n := range names {
		if !Known(n) {
			return false
		}
	}
	return true
}
