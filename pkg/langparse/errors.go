package langparse

import (
	"fmt"

	"github.com/latticeforge/deepscan/pkg/errs"
)

func unsupportedLanguageError(path string) error {
	return fmt.Errorf("%s: %w", path, errs.ErrUnsupportedLanguage)
}

func parseFailedError(path string, cause error) error {
	return fmt.Errorf("%s: %w: %v", path, errs.ErrParseFailed, cause)
}
