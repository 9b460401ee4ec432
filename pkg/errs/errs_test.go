package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/latticeforge/deepscan/pkg/errs"
)

func TestKindOfResolvesWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("parsing foo.rs: %w", errs.ErrParseFailed)

	if got := errs.KindOf(wrapped); got != errs.KindParse {
		t.Fatalf("KindOf() = %v, want %v", got, errs.KindParse)
	}
}

func TestKindOfUnknownForPlainError(t *testing.T) {
	if got := errs.KindOf(errors.New("boom")); got != errs.KindUnknown {
		t.Fatalf("KindOf() = %v, want %v", got, errs.KindUnknown)
	}
}

func TestFileErrorUnwrapsToSentinel(t *testing.T) {
	fe := errs.NewFileError("src/main.rs", fmt.Errorf("node 12: %w", errs.ErrParseFailed))

	if !errors.Is(fe, errs.ErrParseFailed) {
		t.Fatalf("errors.Is(fe, ErrParseFailed) = false, want true")
	}

	if fe.Kind != errs.KindParse {
		t.Fatalf("fe.Kind = %v, want %v", fe.Kind, errs.KindParse)
	}
}

func TestErrorFormatsWithAndWithoutField(t *testing.T) {
	withField := errs.New(errs.KindConfig, "cache.max_size_mb", "must be positive")
	if got, want := withField.Error(), "config: cache.max_size_mb: must be positive"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noField := errs.New(errs.KindInternal, "", "unreachable state")
	if got, want := noField.Error(), "internal: unreachable state"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindString(t *testing.T) {
	cases := map[errs.Kind]string{
		errs.KindParse:               "parse",
		errs.KindUnsupportedLanguage: "unsupported_language",
		errs.KindVCS:                 "vcs",
		errs.Kind(99):                "unknown",
	}

	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
