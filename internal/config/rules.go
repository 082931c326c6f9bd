package config

import "github.com/avoronov/harvest/internal/validation"

// Validation converts the config form of the file rules into the form the
// validator consumes.
func (r FileRules) Validation() validation.FileRules {
	return validation.FileRules{
		AllowedExtensions: r.AllowedExtensions,
		BlockedExtensions: r.BlockedExtensions,
		MaxFileSize:       r.MaxFileSize,
		MaxTotalSize:      r.MaxTotalSize,
	}
}

// Validation converts the config form of the URL rules into the form the
// validator consumes.
func (r URLRules) Validation() validation.URLRules {
	return validation.URLRules{
		AllowedProtocols: r.AllowedProtocols,
		BlockedDomains:   r.BlockedDomains,
		AllowedDomains:   r.AllowedDomains,
		MaxURLLength:     r.MaxURLLength,
	}
}
