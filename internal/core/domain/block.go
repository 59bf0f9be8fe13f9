package domain

import "strings"

// Label classifies a text block. The set is closed.
type Label string

// Block labels.
const (
	LabelTitle    Label = "title"
	LabelQuestion Label = "question"
	LabelOption   Label = "option"
	LabelAnswer   Label = "answer"
	LabelText     Label = "text"
	LabelHeader   Label = "header"

	// LabelDefault is assigned on extraction and whenever classification
	// yields anything outside the set.
	LabelDefault Label = "default"
)

// Labels returns the closed label set offered to the classifier.
// LabelDefault is excluded because it is never a valid oracle answer.
func Labels() []Label {
	return []Label{LabelTitle, LabelQuestion, LabelOption, LabelAnswer, LabelText, LabelHeader}
}

// IsValid returns true if the label is a member of the closed set.
func (l Label) IsValid() bool {
	if l == LabelDefault {
		return true
	}
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// ContentBearing returns true for labels whose text feeds the digest.
func (l Label) ContentBearing() bool {
	return l == LabelTitle || l == LabelText || l == LabelAnswer
}

// String returns the string representation.
func (l Label) String() string {
	return string(l)
}

// NormalizeLabel maps a raw oracle response onto the closed set.
func NormalizeLabel(raw string) Label {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`.,:;!*[](){} \t\r\n")
	l := Label(s)
	if l.IsValid() {
		return l
	}
	return LabelDefault
}

// BoundingBox is a page region in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextBlock is one recognised unit of page text.
type TextBlock struct {
	// Page is the one-based page number.
	Page int `json:"page"`

	// BBox is the region the text came from, when known.
	BBox *BoundingBox `json:"bbox"`

	// Text is the recognised text.
	Text string `json:"text"`

	// Label is the classification. LabelDefault until classified.
	Label Label `json:"type"`
}

// ContentText joins the text of content-bearing blocks in input order.
func ContentText(blocks []TextBlock) string {
	var parts []string
	for _, b := range blocks {
		if !b.Label.ContentBearing() {
			continue
		}
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
