package domain

// Notice is a user-facing toast message.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"`
}

// VariantDestructive marks a notice as an error.
const VariantDestructive = "destructive"

var (
	// NoticeEmptyCode is raised when Run is pressed with blank code.
	NoticeEmptyCode = Notice{
		Title:       "Empty Code",
		Description: "Please enter some code to debug.",
		Variant:     VariantDestructive,
	}
	// NoticeAnalysisComplete is raised after both AI calls succeed.
	NoticeAnalysisComplete = Notice{
		Title:       "AI Analysis Complete",
		Description: "AI analysis results are available in the respective panels.",
	}
	// NoticeAIError is the generic notice for any AI failure.
	NoticeAIError = Notice{
		Title:       "AI Error",
		Description: "Could not connect to AI services or AI processing failed.",
		Variant:     VariantDestructive,
	}
)
