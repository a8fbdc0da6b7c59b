package discovery

// Wire shapes for the two collaborator APIs.

// locationSearchResponse is one page of hospital stubs from the
// location-search API.
type locationSearchResponse struct {
	Results []hospitalStub `json:"results"`
	Total   int            `json:"total"`
}

type hospitalStub struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// providerInfoResponse is the provider-info API's enrichment payload
// for one hospital.
type providerInfoResponse struct {
	ID           string `json:"id"`
	Organization struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Zip     string `json:"zip"`
	} `json:"organization"`
	MRFFiles []mrfFile `json:"mrf_files"`
}

type mrfFile struct {
	URL         string `json:"url"`
	LastUpdated string `json:"last_updated"`
}
