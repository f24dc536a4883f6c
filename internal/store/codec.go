package store

import (
	"encoding/json"
	"fmt"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// Encode serialises a state document.
func Encode(doc *models.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// EncodeIndent serialises a state document for humans.
func EncodeIndent(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// Decode parses a state document. Documents from before tags existed
// decode with an empty tag map.
func Decode(data []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &doc, nil
}
