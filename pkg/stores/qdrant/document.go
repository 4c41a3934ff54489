package qdrant

/*
Document is one metaphor corpus entry as stored in the index.
*/
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Culture   string    `json:"culture"`
	Modality  string    `json:"modality"`
	Concept   string    `json:"concept"`
	Score     float64   `json:"score,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

func NewDocument(id, text, culture, modality, concept string) *Document {
	return &Document{
		ID:       id,
		Text:     text,
		Culture:  culture,
		Modality: modality,
		Concept:  concept,
	}
}
