package scrape

// Block is one scored candidate content region of a page.
type Block struct {
	Selector string `json:"selector"`
	Length   int    `json:"length"`
	PCount   int    `json:"p_count"`
	Text     string `json:"text"`
}

// CandidateMeta carries page-level hints shared by all candidates of a page.
type CandidateMeta struct {
	TitleGuess string `json:"title_guess"`
}

// Candidate is the JSONL hand-off record between the block scorer and the
// article extractor.
type Candidate struct {
	Meta  CandidateMeta `json:"meta"`
	Block Block         `json:"block"`
}
