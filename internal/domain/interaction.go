package domain

// Option is one selectable choice of a clarification question.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is one structured clarification question within an interaction.
type Question struct {
	ID          string   `json:"id"`
	Header      string   `json:"header,omitempty"`
	Question    string   `json:"question"`
	MultiSelect bool     `json:"multi_select"`
	Options     []Option `json:"options"`
}

// Interaction is a pending mid-turn clarification request. At most one is
// active per session. Only the Expired flag mutates after creation; the
// server drives expiration, never a client timer.
type Interaction struct {
	InteractionID string     `json:"interaction_id"`
	Header        string     `json:"header,omitempty"`
	Question      string     `json:"question,omitempty"`
	Options       []Option   `json:"options,omitempty"`
	Questions     []Question `json:"questions"`
	Expired       bool       `json:"expired"`
}

// Answer is the payload of an interaction reply. Exactly one of the fields
// is expected to be meaningful: free text, a selected option, an explicit
// approve/skip, or a per-question answer map for multi-question submissions.
type Answer struct {
	Text     string            `json:"text,omitempty"`
	OptionID string            `json:"option_id,omitempty"`
	Approved *bool             `json:"approved,omitempty"`
	Answers  map[string]string `json:"answers,omitempty"`
}
