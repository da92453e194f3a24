package olc

import "strings"

// MaxText is the default cap on a multi-line text field.
const MaxText = 4000

// textCapture collects lines for a multi-line field until "@".
type textCapture struct {
	label string
	max   int
	lines []string
	apply func(text string)
}

// BeginText starts collecting a multi-line text for a field. apply
// receives the text, lines joined with "\r\n", when the user enters "@".
func (s *Session) BeginText(label string, max int, apply func(text string)) {
	s.mu.Lock()
	s.text = &textCapture{label: label, max: max, apply: apply}
	s.mu.Unlock()
	s.Printf("Enter the %s. End with @ on a line by itself, or /abort to cancel.", label)
}

// Capturing reports whether input lines belong to a text field.
func (s *Session) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text != nil
}

// TextLine feeds one input line to the active text field.
func (s *Session) TextLine(line string) {
	s.mu.Lock()
	tc := s.text
	if tc == nil {
		s.mu.Unlock()
		return
	}
	switch strings.TrimSpace(line) {
	case "@":
		s.text = nil
		s.mu.Unlock()
		tc.apply(strings.Join(tc.lines, "\r\n"))
		s.Printf("The %s is set.", tc.label)
		return
	case "/abort":
		s.text = nil
		s.mu.Unlock()
		s.Printf("The %s is unchanged.", tc.label)
		return
	}
	line = strings.ReplaceAll(line, "~", "-")
	size := len(line)
	for _, l := range tc.lines {
		size += len(l) + 2
	}
	if tc.max > 0 && size > tc.max {
		s.mu.Unlock()
		s.Printf("The %s is too long; line ignored.", tc.label)
		return
	}
	tc.lines = append(tc.lines, line)
	s.mu.Unlock()
}
