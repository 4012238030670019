package errorx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapUnwrap(t *testing.T) {
	base := errors.New("record not found")
	err := Wrap(base, CodeNotFound, "会话不存在")

	if !errors.Is(err, base) {
		t.Fatal("wrapped error should match base via errors.Is")
	}
	if GetCode(err) != CodeNotFound {
		t.Fatalf("GetCode = %d, want %d", GetCode(err), CodeNotFound)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound should be true")
	}
}

func TestGetCodeDefault(t *testing.T) {
	if GetCode(errors.New("plain")) != CodeServerBusy {
		t.Fatal("non-CodeError should fall back to CodeServerBusy")
	}
}

func TestWrapfThroughFmt(t *testing.T) {
	base := New(CodeDenied, "仅发送者可编辑")
	err := fmt.Errorf("dispatch: %w", base)
	if GetCode(err) != CodeDenied {
		t.Fatalf("GetCode through fmt.Errorf = %d, want %d", GetCode(err), CodeDenied)
	}
	if !IsDenied(err) {
		t.Fatal("IsDenied should be true")
	}
}
