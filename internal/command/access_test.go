package command

import (
	"testing"

	"github.com/udisondev/villagerloot/internal/model"
	"github.com/udisondev/villagerloot/internal/testutil"
)

func TestGetAccessLevel_KnownLevels(t *testing.T) {
	tests := []struct {
		level    int32
		wantName string
		wantOp   bool
	}{
		{0, "Visitor", false},
		{1, "Member", false},
		{2, "Operator", true},
		{3, "Custom", false},
	}
	for _, tt := range tests {
		al := GetAccessLevel(tt.level)
		if al == nil {
			t.Fatalf("GetAccessLevel(%d) = nil, want %q", tt.level, tt.wantName)
		}
		if al.Name != tt.wantName {
			t.Errorf("GetAccessLevel(%d).Name = %q, want %q", tt.level, al.Name, tt.wantName)
		}
		if al.IsOperator != tt.wantOp {
			t.Errorf("GetAccessLevel(%d).IsOperator = %v, want %v", tt.level, al.IsOperator, tt.wantOp)
		}
	}
}

func TestGetAccessLevel_Negative(t *testing.T) {
	if al := GetAccessLevel(-1); al != nil {
		t.Errorf("GetAccessLevel(-1) = %+v, want nil", al)
	}
}

func TestGetAccessLevel_UnknownFallsBack(t *testing.T) {
	al := GetAccessLevel(7)
	if al == nil {
		t.Fatalf("GetAccessLevel(7) = nil, want fallback to Custom")
	}
	if al.Name != "Custom" {
		t.Errorf("GetAccessLevel(7).Name = %q, want %q", al.Name, "Custom")
	}
}

func TestIsOperator(t *testing.T) {
	member := testutil.NewPlayer(t, "m", "Member", model.Location{})
	op := testutil.NewOperator(t, "o", "Op")
	banned := testutil.NewPlayer(t, "b", "Banned", model.Location{})
	banned.SetAccessLevel(-1)

	if IsOperator(member) {
		t.Error("member reported as operator")
	}
	if !IsOperator(op) {
		t.Error("operator not recognized")
	}
	if IsOperator(banned) {
		t.Error("negative level reported as operator")
	}
	if IsOperator(nil) {
		t.Error("nil player reported as operator")
	}
}
