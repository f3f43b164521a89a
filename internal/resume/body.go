package resume

import (
	"bytes"
	"encoding/json"
)

// BodyKind discriminates the stored forms of decks.resume_body.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyRawText
	BodyLegacyObject
	BodyStructured
)

func (k BodyKind) String() string {
	switch k {
	case BodyRawText:
		return "raw_text"
	case BodyLegacyObject:
		return "legacy_object"
	case BodyStructured:
		return "structured"
	default:
		return "empty"
	}
}

// Body is the resume body of a deck. Exactly one variant is populated,
// selected by Kind.
type Body struct {
	kind       BodyKind
	text       string
	raw        json.RawMessage
	structured StructuredResume
}

// EmptyBody returns the Empty variant.
func EmptyBody() Body { return Body{kind: BodyEmpty} }

// RawText returns the RawText variant holding text extracted from a file.
func RawText(text string) Body { return Body{kind: BodyRawText, text: text} }

// LegacyObject returns the LegacyObject variant holding a previously stored JSON object.
func LegacyObject(raw json.RawMessage) Body {
	return Body{kind: BodyLegacyObject, raw: append(json.RawMessage(nil), raw...)}
}

// Structured returns the Structured variant.
func Structured(r StructuredResume) Body { return Body{kind: BodyStructured, structured: r} }

func (b Body) Kind() BodyKind { return b.kind }

// Text returns the raw text of a RawText body, or "".
func (b Body) Text() string {
	if b.kind != BodyRawText {
		return ""
	}
	return b.text
}

// Object returns the stored JSON of a LegacyObject body, or nil.
func (b Body) Object() json.RawMessage {
	if b.kind != BodyLegacyObject {
		return nil
	}
	return b.raw
}

// Resume returns the value of a Structured body.
func (b Body) Resume() (StructuredResume, bool) {
	if b.kind != BodyStructured {
		return StructuredResume{}, false
	}
	return b.structured, true
}

// ParseBody classifies a JSONB column value: null or absent is Empty, a JSON
// string is RawText, an object matching the structured shape is Structured,
// any other object is LegacyObject and anything else is Empty.
func ParseBody(raw json.RawMessage) Body {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return EmptyBody()
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return EmptyBody()
		}
		return RawText(s)
	case '{':
		if !json.Valid(trimmed) {
			return EmptyBody()
		}
		if r, err := Parse(trimmed); err == nil {
			return Structured(r)
		}
		return LegacyObject(trimmed)
	default:
		return EmptyBody()
	}
}

// JSON encodes the body for the resume_body column. Empty encodes as nil (SQL NULL).
func (b Body) JSON() json.RawMessage {
	switch b.kind {
	case BodyRawText:
		out, _ := json.Marshal(b.text)
		return out
	case BodyLegacyObject:
		return b.raw
	case BodyStructured:
		out, _ := json.Marshal(b.structured.normalized())
		return out
	default:
		return nil
	}
}
