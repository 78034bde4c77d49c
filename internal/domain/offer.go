package domain

// Offer is a job posting with its pipeline of stages. Offers carrying the
// bot tag are the unit of candidate qualification.
type Offer struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	OfferTags        []string         `json:"offer_tags"`
	PipelineTemplate PipelineTemplate `json:"pipeline_template"`
}

type PipelineTemplate struct {
	Stages []Stage `json:"stages"`
}

// Stage is a named step in an offer's pipeline.
type Stage struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HasTag reports whether the offer carries the given tag.
func (o *Offer) HasTag(tag string) bool {
	for _, t := range o.OfferTags {
		if t == tag {
			return true
		}
	}
	return false
}
