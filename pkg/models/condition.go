package models

// ConditionOperator is one of the closed comparison operators a condition
// can apply to a resolved entity field.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorIsEmpty     ConditionOperator = "is_empty"
	OperatorIsNotEmpty  ConditionOperator = "is_not_empty"
)

// Condition gates a matched trigger against entity state. Field is a
// dot-separated path into the entity data bag, e.g. "buyer_profile.budget_max".
type Condition struct {
	Field    string            `json:"field"           validate:"required"`
	Operator ConditionOperator `json:"operator"        validate:"required"`
	Value    any               `json:"value,omitempty"`
}
