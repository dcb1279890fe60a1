package domain

// Problem tags attached to a verse by the text-quality check.
const (
	ProblemEmptySimpleText  = "empty_simple_text"
	ProblemEmptyUthmaniText = "empty_uthmani_text"
	ProblemNoArabic         = "no_arabic_characters"
	ProblemTooShort         = "text_too_short"
	ProblemTooLong          = "text_too_long"
)

// VerseDiagnostic is the structured form of one problematic verse.
type VerseDiagnostic struct {
	Surah    int      `json:"surah" yaml:"surah"`
	Verse    int      `json:"verse" yaml:"verse"`
	Problems []string `json:"problems" yaml:"problems"`
}
