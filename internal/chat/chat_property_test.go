package chat

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: any well-formed "Name <local@domain>" line parses back into
// exactly its parts, for names free of angle brackets.
func TestProperty_GuestContactRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("well-formed contact lines round-trip", prop.ForAll(
		func(name string, local string, domainPart string) bool {
			email := local + "@" + domainPart
			got, err := ParseGuestContact(name + " <" + email + ">")
			return err == nil && got.Name == name && got.Email == email
		},
		gen.RegexMatch(`[A-Za-z][A-Za-z ]{0,20}[A-Za-z]`),
		gen.RegexMatch(`[a-z0-9.]{1,12}`),
		gen.RegexMatch(`[a-z]{1,10}\.[a-z]{2,4}`),
	))

	properties.Property("lines without a bracketed email never parse", prop.ForAll(
		func(input string) bool {
			if strings.Contains(input, "<") || strings.Contains(input, ">") {
				return true
			}
			_, err := ParseGuestContact(input)
			return err != nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
