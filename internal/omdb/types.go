package omdb

// Response is the subset of an OMDb title lookup that marquee uses.
type Response struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Production string `json:"Production"`
	BoxOffice  string `json:"BoxOffice"`
	ImdbID     string `json:"imdbID"`
	Response   string `json:"Response"` // "True" or "False"
	Error      string `json:"Error"`    // Present if Response is "False"
}

// notAvailable is OMDb's placeholder for missing values.
const notAvailable = "N/A"
