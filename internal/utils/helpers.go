package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// FormatBaht renders an amount as Thai baht with thousands separators, e.g. ฿1,234.56.
func FormatBaht(amount float64) string {
	neg := amount < 0
	s := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("฿")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// ToPBStruct converts any JSON-serializable value into a protobuf Struct.
func ToPBStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return structpb.NewStruct(m)
}

func ToPBProject(p entity.Project) (*structpb.Struct, error) {
	return ToPBStruct(struct {
		entity.Project
		Total float64 `json:"total"`
	}{p, p.Total()})
}

func ToPBExtraction(res entity.ExtractionResult) (*structpb.Struct, error) {
	return ToPBStruct(res)
}

// RecordFromPB reads an ExtractedRecord back out of a Struct.
func RecordFromPB(s *structpb.Struct) (entity.ExtractedRecord, error) {
	var rec entity.ExtractedRecord
	if s == nil {
		return rec, nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return rec, fmt.Errorf("encode: %w", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
