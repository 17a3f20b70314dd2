// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// RenderTemplate replaces every {key} in template with data[key]. Unknown
// placeholders are left as written.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// ContactPlaceholders are the values a script may reference for a contact.
func ContactPlaceholders(c model.Contact) map[string]string {
	first, last, _ := strings.Cut(strings.TrimSpace(c.Name), " ")
	return map[string]string{
		"name":       c.Name,
		"first_name": orUnknown(first),
		"last_name":  orUnknown(last),
		"phone":      c.Phone,
		"email":      c.Email,
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "<unknown>"
	}
	return v
}
