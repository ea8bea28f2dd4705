package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Embedding kinds. Subject vectors index stored report names, query
// vectors cache lookups so repeated searches skip the embed call.
const (
	KindSubject = "subject"
	KindQuery   = "query"
)

// EmbeddingRecord is an append-only cached vector keyed by the hash of
// the normalized text. Rows are shared reference data, never per-user.
type EmbeddingRecord struct {
	Key       string         `gorm:"primaryKey;type:text" json:"key"`
	Kind      string         `gorm:"not null;index" json:"kind"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Vector    datatypes.JSON `gorm:"type:jsonb;not null" json:"vector"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EmbeddingRecord) TableName() string { return "embeddings" }

// VectorSlice decodes the stored vector.
func (e *EmbeddingRecord) VectorSlice() ([]float32, error) {
	var v []float32
	if err := json.Unmarshal(e.Vector, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetVector encodes the vector for storage.
func (e *EmbeddingRecord) SetVector(v []float32) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.Vector = datatypes.JSON(b)
	return nil
}

// Alias maps a normalized queried name to the canonical subject name a
// user confirmed it refers to. Learned once, consulted before any fuzzy
// search.
type Alias struct {
	QueriedNorm   string    `gorm:"primaryKey;type:text" json:"queried_norm"`
	CanonicalName string    `gorm:"type:text;not null" json:"canonical_name"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Alias) TableName() string { return "player_aliases" }

// Match is a fuzzy candidate from the requesting user's report library.
// Score is in [0,100]; 100 is reserved for names whose normalized forms
// are identical.
type Match struct {
	ReportID      snowflake.ID `json:"report_id"`
	CandidateName string       `json:"candidate_name"`
	Score         int          `json:"score"`
}

// Candidate is a (report, subject) pair eligible for matching.
type Candidate struct {
	ReportID    snowflake.ID
	SubjectName string
}
