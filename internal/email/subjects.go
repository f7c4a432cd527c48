package email

const (
	subjectReviewFlaggedFmt = "[cog-sync] parcel %s needs review (%s)"
	subjectRunSummaryFmt    = "[cog-sync] run %s finished: %d flagged, %d failed"
)
