package git

import (
	"strings"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	category := errors.CategoryGit
	retryable := false
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") ||
		strings.Contains(l, "invalid username or password") || strings.Contains(l, "invalid credentials"):
		category = errors.CategoryConfig
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist") ||
		strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		category = errors.CategoryNotFound
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		category = errors.CategoryConfig
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "timeout") || strings.Contains(l, "no route to host") ||
		strings.Contains(l, "connection refused") || strings.Contains(l, "rate limit") ||
		strings.Contains(l, "too many requests"):
		category = errors.CategoryNetwork
		retryable = true
	}

	b := errors.WrapError(err, category, "git "+op+" failed").
		WithContext("op", op).
		WithContext("url", url)
	if retryable {
		b = b.Retryable()
	}
	return b.Build()
}

func isRetryable(err error) bool {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	return false
}
