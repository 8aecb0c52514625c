package importer

import (
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-intentions/internal/models"
	"github.com/prasenjit/go-intentions/internal/storage"
	"github.com/prasenjit/go-intentions/internal/validation"
)

// Failure reports an element rejected by validation or by the store
type Failure struct {
	Index  int               `json:"index"`
	Errors validation.Errors `json:"errors,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Report summarizes an import
type Report struct {
	Created []*models.Intention `json:"created"`
	Skipped []ElementError      `json:"skipped,omitempty"`
	Failed  []Failure           `json:"failed,omitempty"`
}

// Store validates and creates every decoded element. Elements are handled
// independently: one failure does not stop the others.
func Store(store storage.Storage, v *validation.Validator, result *Result) *Report {
	report := &Report{
		Created: make([]*models.Intention, 0, len(result.Elements)),
		Skipped: result.Skipped,
	}

	for _, elem := range result.Elements {
		ixn := models.NewIntention(elem.Input)
		ixn.ID = uuid.New().String()
		ixn.CreatedAt = time.Now()
		ixn.UpdatedAt = ixn.CreatedAt

		if errs := v.Intention(ixn); len(errs) > 0 {
			report.Failed = append(report.Failed, Failure{Index: elem.Index, Errors: errs})
			continue
		}

		if err := store.CreateIntention(ixn); err != nil {
			report.Failed = append(report.Failed, Failure{Index: elem.Index, Error: err.Error()})
			continue
		}

		report.Created = append(report.Created, ixn)
	}

	return report
}
