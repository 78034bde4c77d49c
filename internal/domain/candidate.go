package domain

// MinimalCandidate is the shape returned by the batched candidate listing;
// only the id is reliable there.
type MinimalCandidate struct {
	ID int64 `json:"id"`
}

// Candidate is the fully hydrated candidate record. It is fetched fresh each
// poll cycle and never cached across cycles; every mutation goes through the
// pipeline client and requires a re-fetch to observe.
type Candidate struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Emails     []string         `json:"emails"`
	Tags       []string         `json:"tags"`
	Placements []Placement      `json:"placements"`
	Fields     []CandidateField `json:"fields"`
}

// PrimaryEmail returns the first email address, the only one homework mails
// are addressed to directly.
func (c *Candidate) PrimaryEmail() (string, bool) {
	if len(c.Emails) == 0 || c.Emails[0] == "" {
		return "", false
	}
	return c.Emails[0], true
}

// CCEmails returns every address beyond the primary one.
func (c *Candidate) CCEmails() []string {
	if len(c.Emails) < 2 {
		return nil
	}
	return c.Emails[1:]
}

// HasTag reports whether the candidate carries the given free-text tag.
func (c *Candidate) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FieldByName returns the first profile field matching by name.
func (c *Candidate) FieldByName(name string) *CandidateField {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// Placement links a candidate to one offer's pipeline. Only the first
// placement is consulted operationally.
type Placement struct {
	ID          int64 `json:"id"`
	CandidateID int64 `json:"candidate_id"`
	OfferID     int64 `json:"offer_id"`
	StageID     int64 `json:"stage_id"`
}

// Reference is an actor attached to a candidate or task. Type "Admin" marks
// pipeline administrators, the people signing homework mails.
type Reference struct {
	Type      string `json:"type"`
	FirstName string `json:"first_name"`
}

const AdminReferenceType = "Admin"
