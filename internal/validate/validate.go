// Package validate contains input validation helpers shared by the API
// handlers and the upload pipeline.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mailportal/internal/apperr"
)

// usernameRe enforces a conservative SFTP username pattern.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Username validates an SFTP username for length and allowed characters.
func Username(s string) error {
	if !usernameRe.MatchString(s) {
		return fmt.Errorf("invalid username: %w", apperr.ErrValidation)
	}
	return nil
}

// emailRe is a light shape check; deliverability is the mailer's problem.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email validates the shape of an email address.
func Email(s string) error {
	if len(s) > 254 || !emailRe.MatchString(s) {
		return fmt.Errorf("invalid email: %w", apperr.ErrValidation)
	}
	return nil
}

// allowedExts is the upload allow-list: print artwork and mail-list data.
var allowedExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// mimeFragments mirror the original filter: the declared content type must
// mention one of the allow-listed formats.
var mimeFragments = []string{"pdf", "png", "jpg", "jpeg", "csv", "xlsx", "xls", "spreadsheet", "excel"}

// UploadFile checks an upload's name and declared mime type against the
// allow-list. It runs before any byte is persisted.
func UploadFile(originalName, mimeType string) error {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return fmt.Errorf("only PDF, images, and spreadsheet files are allowed: %w", apperr.ErrValidation)
	}
	mt := strings.ToLower(mimeType)
	for _, frag := range mimeFragments {
		if strings.Contains(mt, frag) {
			return nil
		}
	}
	return fmt.Errorf("unsupported content type %q: %w", mimeType, apperr.ErrValidation)
}

// months accepted for a campaign.
var months = map[string]bool{
	"January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true,
	"September": true, "October": true, "November": true, "December": true,
}

// CampaignMonth validates a campaign month name.
func CampaignMonth(s string) error {
	if !months[s] {
		return fmt.Errorf("invalid month %q: %w", s, apperr.ErrValidation)
	}
	return nil
}

// CampaignYear validates a campaign year.
func CampaignYear(y int) error {
	if y < 2020 || y > 2100 {
		return fmt.Errorf("invalid year %d: %w", y, apperr.ErrValidation)
	}
	return nil
}
