package workflow

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/propflow/propflow/pkg/fieldpath"
	"github.com/propflow/propflow/pkg/models"
)

// EvaluateConditions reports whether every condition holds against the entity
// data bag. An empty list is vacuously true.
func EvaluateConditions(conditions []models.Condition, data map[string]any) bool {
	for _, condition := range conditions {
		if !EvaluateCondition(condition, data) {
			return false
		}
	}

	return true
}

// EvaluateCondition resolves the condition's field and applies its operator.
// An unknown operator evaluates false rather than failing the run.
func EvaluateCondition(condition models.Condition, data map[string]any) bool {
	value, found := fieldpath.Resolve(data, condition.Field)

	switch condition.Operator {
	case models.OperatorEquals:
		return valuesEqual(value, condition.Value)
	case models.OperatorNotEquals:
		return !valuesEqual(value, condition.Value)
	case models.OperatorContains:
		return strings.Contains(asText(value), asText(condition.Value))
	case models.OperatorGreaterThan:
		left, right := asNumber(value), asNumber(condition.Value)

		return left > right
	case models.OperatorLessThan:
		left, right := asNumber(value), asNumber(condition.Value)

		return left < right
	case models.OperatorIsEmpty:
		return isEmpty(value, found)
	case models.OperatorIsNotEmpty:
		return !isEmpty(value, found)
	default:
		return false
	}
}

func valuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	// Numbers compare by value so 5 equals 5.0 after a JSON round trip.
	leftNum, leftOK := numericValue(left)
	rightNum, rightOK := numericValue(right)

	if leftOK && rightOK {
		return leftNum == rightNum
	}

	return reflect.DeepEqual(left, right)
}

func isEmpty(value any, found bool) bool {
	if !found || value == nil {
		return true
	}

	text, ok := value.(string)

	return ok && text == ""
}

// asText coerces a value to its textual form; absent values coerce to "".
func asText(value any) string {
	if value == nil {
		return ""
	}

	if text, ok := value.(string); ok {
		return text
	}

	return fmt.Sprintf("%v", value)
}

// asNumber coerces a value to a float64; non-numeric values yield NaN, which
// makes every ordered comparison false.
func asNumber(value any) float64 {
	if num, ok := numericValue(value); ok {
		return num
	}

	if text, ok := value.(string); ok {
		num, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return num
		}
	}

	return math.NaN()
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
