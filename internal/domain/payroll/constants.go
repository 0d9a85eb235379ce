package payroll

type Status string

const (
	StatusDraft      Status = "draft"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusPaid       Status = "paid"
	StatusPosted     Status = "posted"
)

var transitions = map[Status][]Status{
	StatusDraft:      {StatusCalculated},
	StatusCalculated: {StatusCalculated, StatusApproved},
	StatusApproved:   {StatusCalculated, StatusPaid},
	StatusPaid:       {StatusPosted},
}

// CanTransitionTo reports whether a run in s may move to next. Recalculation
// is the Calculated target.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Locked reports whether the run's amounts can no longer be recomputed.
func (s Status) Locked() bool {
	return s == StatusPaid || s == StatusPosted
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusCalculated, StatusApproved, StatusPaid, StatusPosted:
		return true
	}
	return false
}

const (
	AuditEntityRun = "payroll_run"

	AuditActionCalculated = "payroll.calculated"
	AuditActionApproved   = "payroll.approved"
	AuditActionPaid       = "payroll.paid"
	AuditActionPosted     = "payroll.posted"

	JobBatch = "payroll_batch"
)
