package oauthapi

import "testing"

func TestSplitScope(t *testing.T) {
	cases := map[string][]string{
		"":                  nil,
		"openid":            {"openid"},
		"openid profile":    {"openid", "profile"},
		"openid  profile":   {"openid", "profile"},
		" openid profile  ": {"openid", "profile"},
	}
	for input, want := range cases {
		got := splitScope(input)
		if len(got) != len(want) {
			t.Fatalf("splitScope(%q) = %v, want %v", input, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("splitScope(%q) = %v, want %v", input, got, want)
			}
		}
	}
}

func TestDenyRedirectCarriesStateAndError(t *testing.T) {
	got := denyRedirect("https://client.example/cb", "xyz")
	want := "https://client.example/cb?error=access_denied&state=xyz"
	if got != want {
		t.Fatalf("denyRedirect = %q, want %q", got, want)
	}
}

func TestDenyRedirectOmitsStateWhenAbsent(t *testing.T) {
	got := denyRedirect("https://client.example/cb", "")
	want := "https://client.example/cb?error=access_denied"
	if got != want {
		t.Fatalf("denyRedirect = %q, want %q", got, want)
	}
}

func TestApproveRedirectCarriesCodeAndState(t *testing.T) {
	got := approveRedirect("https://client.example/cb", "abc123", "xyz")
	want := "https://client.example/cb?code=abc123&state=xyz"
	if got != want {
		t.Fatalf("approveRedirect = %q, want %q", got, want)
	}
}

func TestApproveRedirectPreservesExistingQuery(t *testing.T) {
	got := approveRedirect("https://client.example/cb?foo=bar", "abc123", "")
	want := "https://client.example/cb?code=abc123&foo=bar"
	if got != want {
		t.Fatalf("approveRedirect = %q, want %q", got, want)
	}
}
