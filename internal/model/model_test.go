package model

import "testing"

func TestNewDeletionTarget(t *testing.T) {
	cases := []struct {
		kind DeletionType
		id   int64
		want DeletionTarget
	}{
		{DeletionTypeUser, 7, UserTarget{UserID: 7}},
		{DeletionTypeRequirement, 8, RequirementTarget{RequirementID: 8}},
		{DeletionTypeTransaction, 9, TransactionTarget{TransactionID: 9}},
	}
	for _, tc := range cases {
		got, err := NewDeletionTarget(tc.kind, tc.id)
		if err != nil {
			t.Fatalf("NewDeletionTarget(%s, %d): %v", tc.kind, tc.id, err)
		}
		if got != tc.want {
			t.Errorf("NewDeletionTarget(%s, %d) = %#v", tc.kind, tc.id, got)
		}
		if got.Kind() != tc.kind || got.ID() != tc.id {
			t.Errorf("kind/id = %s/%d", got.Kind(), got.ID())
		}
	}

	if _, err := NewDeletionTarget(DeletionTypeUser, 0); err == nil {
		t.Error("zero id accepted")
	}
	if _, err := NewDeletionTarget("club", 1); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestParseDeletionType(t *testing.T) {
	got, err := ParseDeletionType(" Transaction ")
	if err != nil || got != DeletionTypeTransaction {
		t.Fatalf("ParseDeletionType = %q, %v", got, err)
	}
	if _, err := ParseDeletionType("event"); err == nil {
		t.Error("event accepted as deletion type")
	}
}

func TestDeletionRequestTarget(t *testing.T) {
	req := DeletionRequest{Type: DeletionTypeRequirement, TargetID: 11}
	target, err := req.Target()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := target.(RequirementTarget); !ok {
		t.Errorf("target = %T", target)
	}
}

func TestRoles(t *testing.T) {
	if !Role("Adviser").Is(RoleAdviser) {
		t.Error("role comparison is case-sensitive")
	}
	if ParseRole("  OFFICER ") != RoleOfficer {
		t.Error("ParseRole did not normalize")
	}
	for _, r := range []Role{"adviser", "President", "officer"} {
		if !r.IsOperator() {
			t.Errorf("%s should be an operator", r)
		}
	}
	if RoleMember.IsOperator() {
		t.Error("member is not an operator")
	}
	if Role("treasurer").Known() {
		t.Error("treasurer is not a role")
	}
}

func TestAttendanceStatusValid(t *testing.T) {
	for _, s := range []AttendanceStatus{AttendancePresent, AttendanceLate, AttendanceExcused} {
		if !s.Valid() {
			t.Errorf("%s invalid", s)
		}
	}
	if AttendanceStatus("absent").Valid() || AttendanceStatus("Late").Valid() {
		t.Error("unexpected status accepted")
	}
}
