package recruitee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/httpclient"
	"go-homework-bot/pkg/logger"
)

const (
	SalutationOverrideFieldName = "Anrede Override"
	SignatureOverrideFieldName  = "Unterschrift Override"
	ShouldSendMailFieldName     = "Bot-Mails"

	DefaultSignature = "Deine Hacking Talents"
	signatureSuffix  = "von den hacking talents"
)

// GetProfileFieldByName returns the first field matching by name, or nil.
func (c *Client) GetProfileFieldByName(candidate *domain.Candidate, name string) *domain.CandidateField {
	return candidate.FieldByName(name)
}

// UpdateProfileField writes content into a single-line or dropdown field,
// creating the field when it has never been persisted and updating it
// otherwise.
func (c *Client) UpdateProfileField(ctx context.Context, candidate *domain.Candidate, field *domain.CandidateField, content []string) error {
	switch field.Kind {
	case domain.FieldKindSingleLine:
		return c.updateSingleLineField(ctx, candidate, field, content)
	case domain.FieldKindDropdown:
		return c.updateDropdownField(ctx, candidate, field, content)
	default:
		return domain.NewPipelineError(
			fmt.Sprintf("%s Profilfeld \"%s\" hat einen nicht unterstützten Typ (%s).",
				domain.MarkerMissingField, field.Name, field.Kind))
	}
}

func (c *Client) updateSingleLineField(ctx context.Context, candidate *domain.Candidate, field *domain.CandidateField, content []string) error {
	existing, _ := field.SingleLineValues()

	// An empty field gets the first value appended; a populated one is
	// replaced entirely.
	var values []domain.SingleLineValue
	if len(existing) == 0 {
		if len(content) > 0 {
			values = []domain.SingleLineValue{{Text: content[0]}}
		}
	} else {
		for _, item := range content {
			values = append(values, domain.SingleLineValue{Text: item})
		}
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	field.Values = raw

	body := map[string]interface{}{
		"field": map[string]interface{}{
			"values": values,
			"kind":   field.Kind,
			"name":   field.Name,
		},
	}
	return c.writeProfileField(ctx, candidate, field, body)
}

func (c *Client) updateDropdownField(ctx context.Context, candidate *domain.Candidate, field *domain.CandidateField, content []string) error {
	existing, _ := field.DropdownValues()

	var values []domain.DropdownValue
	if len(existing) == 0 {
		if len(content) > 0 {
			values = []domain.DropdownValue{{Value: content[0]}}
		}
	} else {
		for _, item := range content {
			values = append(values, domain.DropdownValue{Value: item})
		}
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	field.Values = raw

	// Dropdown writes must carry the complete allowed-option set; the API
	// rejects payloads without it.
	inner := map[string]interface{}{
		"values":  values,
		"kind":    field.Kind,
		"name":    field.Name,
		"options": field.Options,
	}
	if field.ID != nil {
		inner["id"] = *field.ID
	}
	return c.writeProfileField(ctx, candidate, field, map[string]interface{}{"field": inner})
}

// writeProfileField issues a PATCH against the persisted field id, or a POST
// when the field has never been created.
func (c *Client) writeProfileField(ctx context.Context, candidate *domain.Candidate, field *domain.CandidateField, body interface{}) error {
	if field.ID != nil {
		return c.http.Request(ctx,
			fmt.Sprintf("/custom_fields/candidates/%d/fields/%d", candidate.ID, *field.ID),
			&httpclient.Options{Method: http.MethodPatch, Body: body}, nil)
	}
	return c.http.Request(ctx,
		fmt.Sprintf("/custom_fields/candidates/%d/fields", candidate.ID),
		&httpclient.Options{Method: http.MethodPost, Body: body}, nil)
}

// ClearProfileField deletes the persisted field. A field without an id has
// nothing to clear, which usually means the caller works on a stale
// candidate record.
func (c *Client) ClearProfileField(ctx context.Context, candidate *domain.Candidate, field *domain.CandidateField) error {
	if field.ID == nil {
		logger.Log.Warn("[Recruitee] expected profile field to have an id, none given; candidate record may be outdated",
			"candidate_id", candidate.ID, "field", field.Name)
		return domain.NewPipelineError(
			fmt.Sprintf("%s Kandidat:in hat nicht die erwarteten Profilfelder.", domain.MarkerMissingField))
	}
	logger.Log.Info("[Recruitee] clearing profile field", "candidate_id", candidate.ID, "field", field.Name)
	return c.http.Request(ctx,
		fmt.Sprintf("/custom_fields/candidates/%d/fields/%d", candidate.ID, *field.ID),
		&httpclient.Options{Method: http.MethodDelete}, nil)
}

// GetCandidateSalutation is the salutation override field's first value when
// set, else the candidate's first name token.
func (c *Client) GetCandidateSalutation(candidate *domain.Candidate) string {
	if override := candidate.FieldByName(SalutationOverrideFieldName); override != nil {
		if text, ok := override.FirstSingleLineValue(); ok {
			return text
		}
	}
	if parts := strings.Fields(candidate.Name); len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// GetSignature builds the mail signature: the override field's names when
// present, else the first names of the admins subscribed to the task, else a
// fixed default.
func (c *Client) GetSignature(candidate *domain.Candidate, references []domain.Reference) string {
	if override := candidate.FieldByName(SignatureOverrideFieldName); override != nil {
		if names, ok := override.SingleLineValues(); ok && len(names) > 0 {
			return buildSignatureFromNames(names)
		}
	}

	var firstNames []string
	for _, reference := range references {
		if reference.Type == domain.AdminReferenceType && reference.FirstName != "" {
			firstNames = append(firstNames, reference.FirstName)
		}
	}
	if len(firstNames) > 0 {
		return buildSignatureFromNames(firstNames)
	}
	return DefaultSignature
}

// buildSignatureFromNames joins names in ascending order, commas between all
// but the last pair, which gets "und": "Anna, Bob und Chris von den hacking
// talents".
func buildSignatureFromNames(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("%s %s", names[0], signatureSuffix)
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	last := sorted[len(sorted)-1]
	remaining := strings.Join(sorted[:len(sorted)-1], ", ")
	return fmt.Sprintf("%s und %s %s", remaining, last, signatureSuffix)
}

// ShouldSendMail reads the mail opt-in flag. A missing, valueless or
// wrongly-typed field means mails stay enabled.
func (c *Client) ShouldSendMail(candidate *domain.Candidate) bool {
	field := candidate.FieldByName(ShouldSendMailFieldName)
	if field == nil {
		return true
	}
	flags, ok := field.BooleanValues()
	if !ok || len(flags) == 0 {
		return true
	}
	return flags[0]
}
