package apply

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/applywiz/internal/form"
)

// ValidationError lists the required fields of a step that are blank.
// Fields is keyed by field name.
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return fmt.Sprintf("step %d: %s", e.Step, strings.Join(msgs, "; "))
}

// validate checks the required fields of step against data. It never
// touches the network.
func validate(step Step, data *form.State) map[string]string {
	errs := map[string]string{}
	for _, ref := range step.Required {
		if data.Blank(ref) {
			errs[ref.Field] = ref.Label() + " is required"
		}
	}
	return errs
}
