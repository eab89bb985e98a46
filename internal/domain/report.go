package domain

// Category values a report may carry. The vocabulary is fixed; the
// sidebar and the report form both render from this list.
const (
	CategoryDevelopment = "Development"
	CategoryAI          = "AI"
	CategoryCloud       = "Cloud"
	CategoryLinux       = "Linux"
	CategoryContainer   = "Container"
	CategoryApplication = "Application"
	CategoryProgram     = "Program"
	CategoryHobby       = "Hobby"
)

// Categories returns the fixed category vocabulary in display order.
func Categories() []string {
	return []string{
		CategoryDevelopment,
		CategoryAI,
		CategoryCloud,
		CategoryLinux,
		CategoryContainer,
		CategoryApplication,
		CategoryProgram,
		CategoryHobby,
	}
}

// ValidCategory reports whether name is one of the fixed categories.
func ValidCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// Report is an editorial article written in markdown.
// Tags carry their display form, marker included ("#golang").
// PublishDate is a free-form date string; display falls back to
// CreatedAt when it is empty.
type Report struct {
	Syncable
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	PublishDate string   `json:"publish_date,omitempty"`
	Tags        []string `json:"tags"`
}

// HasTag reports whether the report carries the given display-form tag.
func (r *Report) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
