package archiver

// Outcome is the terminal state of one video's trip through the pipeline.
// Every video reaches exactly one outcome; none of them abort the run.
type Outcome string

const (
	OutcomeUploaded            Outcome = "uploaded"
	OutcomeVerified            Outcome = "verified"
	OutcomeAlreadyArchived     Outcome = "already-archived"
	OutcomeLive                Outcome = "live"
	OutcomeDetailUnavailable   Outcome = "detail-unavailable"
	OutcomeChatDownloadFailed  Outcome = "chat-download-failed"
	OutcomeVideoDownloadFailed Outcome = "video-download-failed"
	OutcomeUploadRejected      Outcome = "upload-rejected"
	OutcomeVerifyFailed        Outcome = "verify-failed"
)

// Done reports whether the video ended archived (or confirmed archived).
func (o Outcome) Done() bool {
	return o == OutcomeUploaded || o == OutcomeVerified
}

// Skipped reports whether the video was skipped without an upload attempt.
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeAlreadyArchived, OutcomeLive, OutcomeDetailUnavailable,
		OutcomeChatDownloadFailed, OutcomeVideoDownloadFailed, OutcomeVerifyFailed:
		return true
	}
	return false
}
