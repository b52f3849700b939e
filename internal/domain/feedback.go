package domain

import "time"

// FeedbackCategory enumerates the fixed feedback categories.
type FeedbackCategory string

const (
	FeedbackCategoryGeneral        FeedbackCategory = "general"
	FeedbackCategoryBugReport      FeedbackCategory = "bug_report"
	FeedbackCategoryFeatureRequest FeedbackCategory = "feature_request"
	FeedbackCategorySuggestion     FeedbackCategory = "suggestion"
	FeedbackCategoryComplaint      FeedbackCategory = "complaint"
)

// IsValid reports whether the category is one of the known values.
func (c FeedbackCategory) IsValid() bool {
	switch c {
	case FeedbackCategoryGeneral, FeedbackCategoryBugReport, FeedbackCategoryFeatureRequest,
		FeedbackCategorySuggestion, FeedbackCategoryComplaint:
		return true
	}
	return false
}

// Feedback is a star-rated, categorized piece of user sentiment. It has no
// lifecycle beyond existence and reply count.
type Feedback struct {
	ID        string
	AppID     string
	UserID    string
	Rating    int
	Category  FeedbackCategory
	Comment   *string
	CreatedAt time.Time
}

// FeedbackReply is an admin-authored reply on a feedback entry.
type FeedbackReply struct {
	ID         string
	FeedbackID string
	UserID     string
	Body       string
	CreatedAt  time.Time
}

// FeedbackAttachment stores file metadata attached to a feedback entry.
type FeedbackAttachment struct {
	ID         string
	FeedbackID string
	FileURL    string
	FileName   string
	FileSize   int64
	CreatedAt  time.Time
}
