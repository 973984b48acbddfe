package errx

import (
	"errors"
	"testing"
)

func TestCategories_Registry(t *testing.T) {
	err := Registry("test")

	if err.Code() != CodeRegistry {
		t.Errorf("Code() = %q, want %q", err.Code(), CodeRegistry)
	}
}

func TestCategories_WrapRegistry(t *testing.T) {
	cause := errors.New("cause")
	err := WrapRegistry("test", cause)

	if err.Code() != CodeRegistry {
		t.Errorf("Code() = %q, want %q", err.Code(), CodeRegistry)
	}
	if err.Cause() != cause {
		t.Errorf("Cause() = %v, want %v", err.Cause(), cause)
	}
}

func TestCategories_WrapCLI(t *testing.T) {
	cause := errors.New("cause")
	err := WrapCLI("bad flag", cause)

	if err.Code() != CodeCLI {
		t.Errorf("Code() = %q, want %q", err.Code(), CodeCLI)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestCategories_CreateByCode(t *testing.T) {
	err := CreateByCode(CodePush, DescPush, "test", nil)
	if err.Code() != CodePush {
		t.Errorf("Code() = %q, want %q", err.Code(), CodePush)
	}
	if err.Cause() != nil {
		t.Errorf("Cause() = %v, want nil", err.Cause())
	}
}

func TestCategories_FromSentinel(t *testing.T) {
	sentinel := errors.New("sentinel")

	t.Run("known sentinel", func(t *testing.T) {
		lookup := func(error) (string, string) { return CodeBuild, DescBuild }
		err := FromSentinel(sentinel, lookup, "test", nil)

		if err.Code() != CodeBuild {
			t.Errorf("Code() = %q, want %q", err.Code(), CodeBuild)
		}
		if !errors.Is(err, sentinel) {
			t.Error("errors.Is(err, sentinel) = false, want true")
		}
	})

	t.Run("unknown sentinel falls back to CLI", func(t *testing.T) {
		lookup := func(error) (string, string) { return "", "" }
		err := FromSentinel(sentinel, lookup, "test", nil)

		if err.Code() != CodeCLI {
			t.Errorf("Code() = %q, want %q", err.Code(), CodeCLI)
		}
	})
}
