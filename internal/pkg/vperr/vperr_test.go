package vperr

import "testing"

func TestImmutable(t *testing.T) {
	e := New(400, "INVALID_REQUEST", "invalid request: some or all request parameters are invalid")
	changedE := e.Msg("%s", "changed")
	if e.Message == "changed" {
		t.Errorf("Expected immutable error with message not equal to 'changed', got '%s'", e.Message)
	}
	if changedE.Message != "changed" {
		t.Errorf("Expected immutable error with message equal to 'changed', got '%s'", changedE.Message)
	}
}

func TestWithExtras(t *testing.T) {
	e := ErrInvalidArgument.WithExtras(Extras{"reason": "empty input"})
	if ErrInvalidArgument.Extras != nil {
		t.Error("Expected sentinel to stay without extras")
	}
	if e.Extras == nil || (*e.Extras)["reason"] != "empty input" {
		t.Errorf("Expected copied error to carry extras, got %v", e.Extras)
	}
	if e.ErrorCode != CodeInvalidArgument {
		t.Errorf("Expected error code %s, got %s", CodeInvalidArgument, e.ErrorCode)
	}
}
