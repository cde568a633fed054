// README: Monthly request allowance for the errand concierge.
package quota

import "errors"

// ErrQuotaExhausted is returned when a user has no concierge requests left this month.
var ErrQuotaExhausted = errors.New("concierge quota exhausted")

// MonthlyAllowance is the number of concierge requests granted per month.
const MonthlyAllowance = 100
