package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesMatch(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		declared, requested string
		want                bool
	}{
		{"GuidTypeMethod", "GuidTypeMethod", true},
		{"GuidTypeMethod", "guidtypemethod", true},
		{"GuidTypeMethod", "guid_type_method", true},
		{"GuidTypeMethod", "GUID-TYPE-METHOD", true},
		{"IsLunchTime", "is_lunch-time", true},
		{"IsLunchTime", "_is__lunch_time_", true},
		{"Straße", "STRASSE", false},
		{"Ωmega", "ωMEGA", true},
		{"Method1", "Method", false},
		{"Method", "Method1", false},
		{"Method", "Meth", false},
		{"Method", "Me.thod", false},
		{"Method", "", false},
		{"", "", true},
		{"", "-", true},
	} {
		assert.Equal(t, tc.want, NamesMatch(tc.declared, tc.requested), "%s vs %s", tc.declared, tc.requested)
	}
}
