package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrMissingCredentials means the provider key is configured neither in
	// the environment nor in the settings table. Configuration error, maps
	// to HTTP 400.
	ErrMissingCredentials = errors.New("service: missing provider credentials")

	// ErrMissingContent means neither an explicit body nor a matching
	// template produced anything to send.
	ErrMissingContent = errors.New("service: nothing to send")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
