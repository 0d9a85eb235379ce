package severance

import "fmt"

// Reason is why the employment relationship ended.
type Reason string

const (
	ReasonFixedTermExpiry           Reason = "fixed_term_expiry"
	ReasonProjectCompletion         Reason = "project_completion"
	ReasonVoluntaryResignation      Reason = "voluntary_resignation"
	ReasonDismissalJustCause        Reason = "dismissal_just_cause"
	ReasonDismissalWithoutJustCause Reason = "dismissal_without_just_cause"
	ReasonResignationEmployerFault  Reason = "resignation_employer_fault"
	ReasonMutualAgreement           Reason = "mutual_agreement"
	ReasonDeath                     Reason = "death"
	ReasonCompanyLiquidation        Reason = "company_liquidation"
	ReasonRetirement                Reason = "retirement"
	ReasonProbationPeriod           Reason = "probation_period"
)

var Reasons = []Reason{
	ReasonFixedTermExpiry,
	ReasonProjectCompletion,
	ReasonVoluntaryResignation,
	ReasonDismissalJustCause,
	ReasonDismissalWithoutJustCause,
	ReasonResignationEmployerFault,
	ReasonMutualAgreement,
	ReasonDeath,
	ReasonCompanyLiquidation,
	ReasonRetirement,
	ReasonProbationPeriod,
}

func ParseReason(value string) (Reason, error) {
	for _, candidate := range Reasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown termination reason %q", value)
}

// OwesIndemnity is true only for dismissal without just cause and for the
// employee resigning over the employer's fault.
func (r Reason) OwesIndemnity() bool {
	return r == ReasonDismissalWithoutJustCause || r == ReasonResignationEmployerFault
}

type BenefitKind string

const (
	BenefitSeveranceFund     BenefitKind = "severance_fund"
	BenefitSeveranceInterest BenefitKind = "severance_interest"
	BenefitServiceBonus      BenefitKind = "service_bonus"
	BenefitVacation          BenefitKind = "vacation"
)

// Statement component names, used in Failure entries.
const (
	ComponentAccrual         = "accrual"
	ComponentAccrualInterest = "accrual_interest"
	ComponentServiceBonus    = "service_bonus"
	ComponentVacation        = "vacation"
	ComponentIndemnity       = "indemnity"
)
