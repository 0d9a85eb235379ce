package core

import "fmt"

const (
	EmployeeStatusActive     = "active"
	EmployeeStatusInactive   = "inactive"
	EmployeeStatusOnLeave    = "on_leave"
	EmployeeStatusTerminated = "terminated"
)

const (
	MinRiskClass = 1
	MaxRiskClass = 5
)

// ContractType is the closed set of employment contract variants.
type ContractType string

const (
	ContractIndefinite     ContractType = "indefinite"
	ContractFixedTerm      ContractType = "fixed_term"
	ContractProjectBased   ContractType = "project_based"
	ContractApprenticeship ContractType = "apprenticeship"
)

var ContractTypes = []ContractType{
	ContractIndefinite,
	ContractFixedTerm,
	ContractProjectBased,
	ContractApprenticeship,
}

func ParseContractType(value string) (ContractType, error) {
	for _, candidate := range ContractTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown contract type %q", value)
}
