package dto

// SubmitRequest routes a draft into the approval pipeline.
type SubmitRequest struct {
	Note string `json:"note"`
}

// ApproveRequest carries an approval decision at either stage.
// AutoPost is honoured on final approval only.
type ApproveRequest struct {
	Note     string `json:"note"`
	AutoPost bool   `json:"auto_post"`
}

// DisapproveRequest records a disapproval with a mandatory reason.
type DisapproveRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RecallRequest pulls a pending or disapproved request back for editing.
type RecallRequest struct {
	Note string `json:"note"`
}

// CompleteRequest marks a posted request as received or transmitted.
type CompleteRequest struct {
	Note string `json:"note"`
}
