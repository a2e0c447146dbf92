package dto

// ActionCallbackRequest is the payload posted by the chat platform when
// a reviewer clicks one of the approve/edit/reject buttons.
type ActionCallbackRequest struct {
	ApprovalID string `json:"approval_id" binding:"required"`
	Action     string `json:"action" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
	EditedText string `json:"edited_text"`
}

type ActionCallbackResponse struct {
	ApprovalID string `json:"approval_id"`
	Action     string `json:"action"`
	Enqueued   bool   `json:"enqueued"`
}
