package domain

// Movie is a movie record as returned by the movie-data API.
// Search results only carry the short fields; detail lookups fill the rest.
type Movie struct {
	ImdbID   string `json:"imdbID"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster,omitempty"`
	Type     string `json:"Type,omitempty"`
	Genre    string `json:"Genre,omitempty"`
	Director string `json:"Director,omitempty"`
	Actors   string `json:"Actors,omitempty"`
	Plot     string `json:"Plot,omitempty"`
}

// SearchResponse is the body of a search request.
type SearchResponse struct {
	Search       []Movie `json:"Search"`
	TotalResults string  `json:"totalResults,omitempty"`
	Response     string  `json:"Response,omitempty"`
	Error        string  `json:"Error,omitempty"`
	Offline      bool    `json:"offline,omitempty"`
}

// DetailsResponse is the body of a detail lookup.
type DetailsResponse struct {
	Movie
	Response string `json:"Response,omitempty"`
	Error    string `json:"Error,omitempty"`
	Offline  bool   `json:"offline,omitempty"`
}
