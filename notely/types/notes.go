package types

// NoteRequest is the body of POST /notes and PUT /notes. Both fields must be
// present; PlaceholderTitle is used when the title is blank.
type NoteRequest struct {
	Title            *string `json:"title"`
	Content          *string `json:"content"`
	PlaceholderTitle string  `json:"placeholder_title,omitempty"`
}

type FavoriteRequest struct {
	ID *int `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
