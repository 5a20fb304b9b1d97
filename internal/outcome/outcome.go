// Package outcome models a best-effort side effect. The decision processor
// runs every step regardless of earlier failures and reports each step's
// status afterwards, so side effects return an Outcome instead of an error.
package outcome

// Outcome is the recorded result of one side effect.
type Outcome struct {
	OK     bool
	Detail string
}

// Skipped marks a step that did not apply to this decision.
var Skipped = Outcome{OK: true, Detail: "SKIP"}

// Attempt runs op and folds its error into an Outcome. A nil error yields
// {true, "OK"}; otherwise detail(err) is recorded and the failure is contained.
func Attempt(op func() error, detail func(error) string) Outcome {
	if err := op(); err != nil {
		d := "FAIL"
		if detail != nil {
			d = detail(err)
		}
		return Outcome{OK: false, Detail: d}
	}
	return Outcome{OK: true, Detail: "OK"}
}

// Status renders the Outcome for moderator summaries and audit entries.
func (o Outcome) Status() string {
	if o.OK {
		return o.Detail
	}
	if o.Detail == "" || o.Detail == "FAIL" {
		return "FAIL"
	}
	return "FAIL:" + o.Detail
}
