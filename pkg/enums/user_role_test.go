package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	for _, raw := range []string{"CUSTOMER", "BUSINESS_OWNER", "ADMIN", "MODERATOR"} {
		role, err := ParseUserRole(raw)
		if err != nil {
			t.Fatalf("ParseUserRole(%q) error: %v", raw, err)
		}
		if role.String() != raw {
			t.Fatalf("expected %q, got %q", raw, role)
		}
		if !role.IsValid() {
			t.Fatalf("%q should be valid", raw)
		}
	}
}

func TestParseUserRoleRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "customer", "SUPERADMIN", "OWNER"} {
		if _, err := ParseUserRole(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if UserRole("GUEST").IsValid() {
		t.Fatal("GUEST should not be a valid role")
	}
}
