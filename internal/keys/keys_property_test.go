package keys

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"lecturepdf/internal/domain"
)

// Property: CategoryFor(name) == CategoryFor(name) for any name.
func TestCategoryDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	schedule := DefaultSchedule()

	properties.Property("category is stable across calls", prop.ForAll(
		func(prefix string, millis int64, ext string) bool {
			name := prefix + "_" + strconv.FormatInt(millis, 10) + "." + ext
			return CategoryFor(name, schedule, time.UTC) == CategoryFor(name, schedule, time.UTC)
		},
		gen.AlphaString(),
		gen.Int64Range(0, 4102444800000),
		gen.AlphaString(),
	))

	properties.Property("arbitrary names never panic and map to a known label", prop.ForAll(
		func(name string) bool {
			got := CategoryFor(name, schedule, time.UTC)
			if got == domain.CategoryFallback {
				return true
			}
			for _, label := range Labels(schedule) {
				if got == label {
					return true
				}
			}
			return false
		},
		gen.AnyString(),
	))

	properties.Property("derived key is a pure rename", prop.ForAll(
		func(base string) bool {
			if base == "" || strings.Contains(base, "/") {
				return true
			}
			return DeriveTargetKey(base+".json") == base+".pdf" &&
				DeriveTargetKey("prefix/"+base+".json") == base+".pdf"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
