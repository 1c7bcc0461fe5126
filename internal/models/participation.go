package models

import (
	"strconv"
	"time"
)

type ParticipationStatus string

const (
	ParticipationActive      ParticipationStatus = "ACTIVE"
	ParticipationUnderReview ParticipationStatus = "UNDER_REVIEW"
)

// MyChallenge is one dashboard row: a joined challenge and its proof status
type MyChallenge struct {
	Challenge Challenge           `json:"challenge"`
	Submitted bool                `json:"submitted"`
	Status    ParticipationStatus `json:"status"`
	Stake     string              `json:"stake,omitempty"`
}

// NewMyChallenge derives the display status from the submitted flag
func NewMyChallenge(c Challenge, submitted bool) MyChallenge {
	status := ParticipationActive
	if submitted {
		status = ParticipationUnderReview
	}
	return MyChallenge{Challenge: c, Submitted: submitted, Status: status}
}

// Dashboard is the reconciler output for one user
type Dashboard struct {
	User        string        `json:"user"`
	Challenges  []MyChallenge `json:"challenges"`
	Unavailable []uint64      `json:"unavailable,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
	FetchedAt   time.Time     `json:"fetched_at"`
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
