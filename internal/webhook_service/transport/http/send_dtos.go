package http

// Request DTOs for the outbound send API. Validation mirrors the limits the
// Cloud API enforces (4096-char text bodies, 1024-char captions, at most
// three quick-reply buttons).

type SendTextRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required,min=1,max=4096"`
}

type SendMediaRequest struct {
	To        string `json:"to" validate:"required"`
	MediaType string `json:"mediaType" validate:"required,oneof=image document audio video"`
	MediaURL  string `json:"mediaUrl" validate:"required,url"`
	Caption   string `json:"caption,omitempty" validate:"omitempty,max=1024"`
	// Filename applies to document media only.
	Filename string `json:"filename,omitempty"`
}

type SendTemplateRequest struct {
	To           string   `json:"to" validate:"required"`
	TemplateName string   `json:"templateName" validate:"required"`
	LanguageCode string   `json:"languageCode,omitempty"`
	BodyParams   []string `json:"bodyParams,omitempty"`
}

type SendButtonsRequest struct {
	To      string   `json:"to" validate:"required"`
	Body    string   `json:"body" validate:"required,max=1024"`
	Buttons []string `json:"buttons" validate:"required,min=1,max=3,dive,required,max=20"`
}

type SendListRequest struct {
	To         string               `json:"to" validate:"required"`
	Body       string               `json:"body" validate:"required,max=1024"`
	ButtonText string               `json:"buttonText" validate:"required,max=20"`
	Sections   []SendListSectionDTO `json:"sections" validate:"required,min=1,max=10,dive"`
}

type SendListSectionDTO struct {
	Title string           `json:"title" validate:"required,max=24"`
	Rows  []SendListRowDTO `json:"rows" validate:"required,min=1,max=10,dive"`
}

type SendListRowDTO struct {
	ID          string `json:"id" validate:"required,max=200"`
	Title       string `json:"title" validate:"required,max=24"`
	Description string `json:"description,omitempty" validate:"omitempty,max=72"`
}
