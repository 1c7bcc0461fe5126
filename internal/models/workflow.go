package models

// StakeStatus is the caller-owned state of a join workflow
type StakeStatus string

const (
	StakeIdle      StakeStatus = "idle"
	StakeApproving StakeStatus = "approving"
	StakeJoining   StakeStatus = "joining"
	StakeSuccess   StakeStatus = "success"
)

// ProofStatus is the caller-owned state of a proof submission
type ProofStatus string

const (
	ProofIdle       ProofStatus = "idle"
	ProofSubmitting ProofStatus = "submitting"
	ProofSuccess    ProofStatus = "success"
)
