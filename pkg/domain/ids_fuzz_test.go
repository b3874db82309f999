package domain

import (
	"strings"
	"testing"
)

// FuzzParseRequestID checks that parsing never panics and that accepted ids round-trip.
func FuzzParseRequestID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE claim_requests;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRequestID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseRequestID(id.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}
	})
}

// FuzzParseAddress checks that accepted addresses are always lowercase and stable.
func FuzzParseAddress(f *testing.F) {
	f.Add("0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("0x")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAddress(input)
		if err != nil {
			return
		}
		if string(a) != strings.ToLower(string(a)) {
			t.Errorf("address not normalized: %s", a)
		}
		again, err := ParseAddress(string(a))
		if err != nil || again != a {
			t.Errorf("normalization not idempotent for %q", input)
		}
	})
}
