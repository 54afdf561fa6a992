package quiz

// Question is a single quiz question as loaded from the spreadsheet.
// Options preserve row order unless the loader shuffles them; Correct is
// tracked by value, not by position, so reordering options never breaks
// the correctness check.
type Question struct {
	Text    string
	Options []string
	Correct string
}

// Quiz is the ordered question sequence for one run. It is built once
// per session and never mutated afterwards.
type Quiz []Question
