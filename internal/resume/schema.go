package resume

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrInvalidJSON   = errors.New("structured resume is not valid JSON")
	ErrShapeMismatch = errors.New("structured resume does not match the expected shape")
)

const structuredResumeSchema = `{
  "type": "object",
  "required": ["full_name", "skills", "experience"],
  "properties": {
    "full_name": {"type": "string"},
    "skills": {"type": "array", "items": {"type": "string"}},
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["company", "role", "bullets"],
        "properties": {
          "company": {"type": "string"},
          "role": {"type": "string"},
          "dates": {"type": ["string", "null"]},
          "bullets": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var schema = mustCompileSchema(structuredResumeSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile structured resume schema: %v", err))
	}
	return s
}

// Parse validates raw against the structured resume shape and decodes it.
// The returned errors wrap ErrInvalidJSON or ErrShapeMismatch.
func Parse(raw []byte) (StructuredResume, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return StructuredResume{}, ErrInvalidJSON
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(trimmed))
	if err != nil {
		return StructuredResume{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			problems = append(problems, e.String())
		}
		return StructuredResume{}, fmt.Errorf("%w: %s", ErrShapeMismatch, strings.Join(problems, "; "))
	}
	var out StructuredResume
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return StructuredResume{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return out.normalized(), nil
}

// ParseFormatted reads the formatted_resume column. Null, missing or
// invalid values yield nil so callers fall through to the resume body.
func ParseFormatted(raw json.RawMessage) *StructuredResume {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	out, err := Parse(trimmed)
	if err != nil {
		return nil
	}
	return &out
}

// decodeLegacy reads whatever fields of a legacy object line up with the
// structured shape. Mismatched fields are left empty.
func decodeLegacy(raw json.RawMessage) StructuredResume {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return StructuredResume{}.normalized()
	}
	var out StructuredResume
	if v, ok := fields["full_name"]; ok {
		_ = json.Unmarshal(v, &out.FullName)
	}
	if v, ok := fields["skills"]; ok {
		_ = json.Unmarshal(v, &out.Skills)
	}
	if v, ok := fields["experience"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			for _, item := range items {
				var exp Experience
				if err := json.Unmarshal(item, &exp); err == nil {
					out.Experience = append(out.Experience, exp)
				}
			}
		}
	}
	return out.normalized()
}
