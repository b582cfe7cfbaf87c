package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Embeddings are stored serialized as json arrays inside a text/jsonb column.
// Keeping them opaque to postgres is deliberate, nothing queries into the
// vector server side, all similarity math happens in process.

func MarshalEmbedding(vec []float64) (datatypes.JSON, error) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func UnmarshalEmbedding(blob datatypes.JSON) ([]float64, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var vec []float64
	err := json.Unmarshal(blob, &vec)
	return vec, err
}
