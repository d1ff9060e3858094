package interchange

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrBadDocument,
		ErrBadVersion,
		ErrUnresolved,
		ErrNoActor,
		ErrNoCharacter,
		ErrNoStage,
		ErrNoGlobal,
		ErrNotNumeric,
		ErrBadComparator,
		ErrBadAppearance,
		ErrBadTransform,
		ErrBadBehavior,
		ErrBadOp,
		ErrOutOfExtent,
		ErrCannotSynthesize,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}
