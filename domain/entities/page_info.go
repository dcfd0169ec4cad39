package entities

// PageInfo holds what is printed about the current page when a session fault occurs
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}
