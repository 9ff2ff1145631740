package domain

import (
	"testing"
)

// FuzzParseRegistrationID checks that parsing never panics on arbitrary
// input and that accepted input round-trips through String.
func FuzzParseRegistrationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRegistrationID(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseRegistrationID(id.String())
		if err2 != nil {
			t.Errorf("accepted input failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed the ID value")
		}
	})
}

// FuzzParseAllIDs ensures every ID type applies the same validation.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errMember := ParseMemberID(input)
		_, errReg := ParseRegistrationID(input)
		_, errBranch := ParseBranchID(input)

		if (errUser == nil) != (errMember == nil) ||
			(errUser == nil) != (errReg == nil) ||
			(errUser == nil) != (errBranch == nil) {
			t.Error("inconsistent parsing across ID types")
		}
	})
}
