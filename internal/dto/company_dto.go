package dto

// CompanyResponse is the public view of a company. Store ids and the
// created timestamp are never exposed.
type CompanyResponse struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	URL               string `json:"url"`
	PunchcardLifetime *int   `json:"punchcard_lifetime,omitempty"`
}

type CreateCompanyResponse struct {
	ID string `json:"id"`
}

type SearchCompaniesRequest struct {
	Search string `json:"search"`
}
