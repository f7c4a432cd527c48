package reconcile

import (
	"context"
	"fmt"

	"cog_mailing_sync/platform/apperr"
)

// Store is the write surface of the Cog mailing hierarchy. Find methods match
// on natural keys whose values are already upper-cased; they report false
// when no active row matches.
type Store interface {
	FindCityStateZip(ctx context.Context, key CityStateZipKey) (int64, bool, error)
	CreateCityStateZip(ctx context.Context, city, state string, zip *string) (int64, error)
	FindStreet(ctx context.Context, cityStateZipID int64, name string) (int64, bool, error)
	CreateStreet(ctx context.Context, cityStateZipID int64, name string) (int64, error)
	FindMailingAddress(ctx context.Context, streetID int64, buildingNumber string) (int64, bool, error)
	CreateMailingAddress(ctx context.Context, streetID int64, buildingNumber string) (int64, error)
	LinkRole(ctx context.Context, parcelKey, mailingAddressID int64, role Role) error
}

// StepOutcome records what applying a step did.
type StepOutcome string

const (
	OutcomeFound   StepOutcome = "found"
	OutcomeCreated StepOutcome = "created"
	OutcomeLinked  StepOutcome = "linked"
)

// AppliedStep is one executed step and the key it bound.
type AppliedStep struct {
	Kind    StepKind    `json:"kind"`
	Outcome StepOutcome `json:"outcome"`
	ID      int64       `json:"id"`
}

// Result is the outcome of applying a plan.
type Result struct {
	Steps            []AppliedStep
	CityStateZipID   int64
	StreetID         int64
	MailingAddressID int64
}

// Created counts the rows created.
func (r Result) Created() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeCreated {
			n++
		}
	}
	return n
}

// Apply executes the plan strictly in order. Every ensure step first looks
// the row up by natural key and creates it only when missing; the bound key
// is passed to the next, more dependent step.
//
// Apply must run inside one transaction: on error the caller rolls back so
// no partial hierarchy is left behind.
func Apply(ctx context.Context, store Store, plan Plan) (Result, error) {
	const op = "reconcile.Apply"

	var res Result
	if err := checkOrder(plan.Steps); err != nil {
		return res, err.WithOp(op)
	}

	for _, step := range plan.Steps {
		var (
			id      int64
			found   bool
			err     error
			outcome StepOutcome
		)

		switch step.Kind {
		case EnsureCityStateZip:
			id, found, err = store.FindCityStateZip(ctx, step.CityStateZipKey())
			if err == nil && !found {
				id, err = store.CreateCityStateZip(ctx, step.City, step.State, step.Zip)
			}
			res.CityStateZipID = id
		case EnsureStreet:
			parent := parentKey(step, res.CityStateZipID)
			id, found, err = store.FindStreet(ctx, parent, step.StreetKey())
			if err == nil && !found {
				id, err = store.CreateStreet(ctx, parent, step.StreetName)
			}
			res.StreetID = id
		case EnsureMailingAddress:
			parent := parentKey(step, res.StreetID)
			id, found, err = store.FindMailingAddress(ctx, parent, step.BuildingNumber)
			if err == nil && !found {
				id, err = store.CreateMailingAddress(ctx, parent, step.BuildingNumber)
			}
			res.MailingAddressID = id
		case LinkRole:
			id = parentKey(step, res.MailingAddressID)
			err = store.LinkRole(ctx, step.ParcelKey, id, step.Role)
			outcome = OutcomeLinked
		}
		if err != nil {
			return res, fmt.Errorf("%s: %s: %w", op, step.Kind, err)
		}

		if outcome == "" {
			outcome = OutcomeCreated
			if found {
				outcome = OutcomeFound
			}
		}
		res.Steps = append(res.Steps, AppliedStep{Kind: step.Kind, Outcome: outcome, ID: id})
	}

	return res, nil
}

// checkOrder validates the whole plan before anything is written. Kinds must
// strictly increase, and a step without its own ParentID must directly follow
// the step for its parent level.
func checkOrder(steps []Step) *apperr.Error {
	var prev StepKind
	for _, step := range steps {
		if step.Kind < EnsureCityStateZip || step.Kind > LinkRole {
			return apperr.Internal(fmt.Sprintf("unknown step kind %d", step.Kind))
		}
		if step.Kind <= prev {
			return apperr.Internal(fmt.Sprintf("step %s out of dependency order", step.Kind))
		}
		if step.Kind != EnsureCityStateZip && step.ParentID == 0 {
			if prev == 0 {
				return apperr.NotFound(fmt.Sprintf("no parent key bound for %s", step.Kind))
			}
			if prev != step.Kind-1 {
				return apperr.Internal(fmt.Sprintf("step %s does not follow its parent level, got %s", step.Kind, prev))
			}
		}
		prev = step.Kind
	}
	return nil
}

func parentKey(step Step, bound int64) int64 {
	if step.ParentID != 0 {
		return step.ParentID
	}
	return bound
}
