package domain

// LibraryEntry is the summary of one book kept in the library index.
// JSONFile is the path of the book's document.
type LibraryEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	JSONFile    string `json:"jsonFile"`
	Image       string `json:"image,omitempty"`
}

// BookFields are the user-editable parts of a library entry.
type BookFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
