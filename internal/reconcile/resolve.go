package reconcile

import (
	"fmt"
	"strings"

	"cog_mailing_sync/platform/apperr"
)

// Level is one table of the mailing hierarchy.
type Level string

const (
	LevelCityStateZip   Level = "city_state_zip"
	LevelStreet         Level = "street"
	LevelMailingAddress Level = "mailing_address"
	LevelLinkage        Level = "linkage"
	LevelParcel         Level = "parcel"
)

// StepKind is the kind of write a plan step performs.
// Kinds are ordered from the least to the most dependent level.
type StepKind int

const (
	EnsureCityStateZip StepKind = iota + 1
	EnsureStreet
	EnsureMailingAddress
	LinkRole
)

func (k StepKind) String() string {
	switch k {
	case EnsureCityStateZip:
		return "ensure_city_state_zip"
	case EnsureStreet:
		return "ensure_street"
	case EnsureMailingAddress:
		return "ensure_mailing_address"
	case LinkRole:
		return "link_role"
	default:
		return "unknown"
	}
}

// Step is one lookup-or-create (or link) operation.
//
// ParentID is the key of the enclosing level when that level already exists
// in Cog. Zero means the key is bound by the preceding step of the plan.
type Step struct {
	Kind     StepKind
	ParentID int64

	// EnsureCityStateZip. Values are verbatim external values.
	City  string
	State string
	Zip   *string

	// EnsureStreet.
	StreetName string

	// EnsureMailingAddress.
	BuildingNumber string

	// LinkRole.
	ParcelKey int64
	Role      Role
}

// CityStateZipKey is the natural key used to find an existing city/state/zip.
type CityStateZipKey struct {
	City  string
	State string
	Zip   *string
}

// CityStateZipKey returns the upper-cased natural key of an EnsureCityStateZip step.
func (s Step) CityStateZipKey() CityStateZipKey {
	key := CityStateZipKey{
		City:  strings.ToUpper(s.City),
		State: strings.ToUpper(s.State),
	}
	if s.Zip != nil {
		z := strings.ToUpper(*s.Zip)
		key.Zip = &z
	}
	return key
}

// StreetKey returns the upper-cased street name used for lookups.
func (s Step) StreetKey() string {
	return strings.ToUpper(s.StreetName)
}

// Plan is the ordered write plan for one (parcel, role).
type Plan struct {
	ParcelID        string
	Role            Role
	ParcelKey       int64
	Classifications Classifications
	Steps           []Step
}

// IsNoop reports whether the plan performs no writes.
func (p Plan) IsNoop() bool { return len(p.Steps) == 0 }

// ConflictDetail describes one difference the resolver refuses to settle.
type ConflictDetail struct {
	Level          Level          `json:"level"`
	Field          FieldName      `json:"field,omitempty"`
	Classification Classification `json:"classification"`
	External       string         `json:"external"`
	Internal       string         `json:"internal"`
	Reason         string         `json:"reason"`
}

// fieldLevels maps each field to the hierarchy level that owns it.
var fieldLevels = map[FieldName]Level{
	FieldCity:           LevelCityStateZip,
	FieldStateAbbr:      LevelCityStateZip,
	FieldZip:            LevelCityStateZip,
	FieldStreet:         LevelStreet,
	FieldBuildingNumber: LevelMailingAddress,
	FieldLinkedRole:     LevelLinkage,
	FieldParcelID:       LevelParcel,
}

// Resolve decides, level by level from city/state/zip inwards, which rows
// must be looked up or created for the internal hierarchy to match the
// external address.
//
// Resolve is all-or-nothing: when any level conflicts the returned plan has
// no steps and the error is a Conflict carrying every ConflictDetail found.
// A missing external building number fails with PreconditionFailed before
// any level is evaluated.
func Resolve(n Normalized, cls Classifications) (Plan, error) {
	const op = "reconcile.Resolve"

	plan := Plan{
		ParcelID:        n.ParcelID,
		Role:            n.Role,
		ParcelKey:       n.Internal.Parcel.Key,
		Classifications: cls,
	}

	ext := n.External
	in := n.Internal

	if !ext.Number.HasValue() {
		return plan, apperr.PreconditionFailed("external address has no building number").WithOp(op)
	}
	if !in.Parcel.Exists {
		return plan, apperr.NotFound(fmt.Sprintf("parcel %q not found", n.ParcelID)).WithOp(op)
	}

	var conflicts []ConflictDetail
	for _, name := range FieldOrder {
		if cls.Get(name) != Mismatch {
			continue
		}
		conflicts = append(conflicts, ConflictDetail{
			Level:          fieldLevels[name],
			Field:          name,
			Classification: Mismatch,
			External:       n.externalValue(name).describe(),
			Internal:       n.internalValue(name).describe(),
			Reason:         mismatchReason(name),
		})
	}
	if cls.Get(FieldParcelID) == MissingInternally {
		conflicts = append(conflicts, ConflictDetail{
			Level:          LevelParcel,
			Field:          FieldParcelID,
			Classification: MissingInternally,
			External:       n.ParcelID,
			Internal:       in.Parcel.ExternalID.describe(),
			Reason:         "parcel has no county identifier; parcels are never created here",
		})
	}

	// An outer level that must be ensured forces every inner level to be
	// ensured under the new key.
	cszNew := cls.Any(MissingInternally, FieldCity, FieldStateAbbr, FieldZip)
	streetNew := cszNew || cls.Get(FieldStreet) == MissingInternally
	addressNew := streetNew || cls.Get(FieldBuildingNumber) == MissingInternally
	linkNew := cls.Get(FieldLinkedRole) == MissingInternally

	// An inner level that must be ensured needs an existing or ensured parent.
	if addressNew && !streetNew && !in.Street.Exists {
		streetNew = true
	}
	if streetNew && !cszNew && !in.CityStateZip.Exists {
		cszNew = true
	}

	if addressNew && in.Linkage.Exists {
		conflicts = append(conflicts, ConflictDetail{
			Level:          LevelLinkage,
			Field:          FieldLinkedRole,
			Classification: cls.Get(FieldLinkedRole),
			External:       fmt.Sprintf("new mailing address for role %d", n.Role.ID()),
			Internal:       fmt.Sprintf("linked to mailing address %d", in.Linkage.AddressID),
			Reason:         "role is already linked; re-linking requires deactivating the existing linkage",
		})
	}

	if len(conflicts) > 0 {
		return plan, apperr.Conflict(conflictMessage(conflicts)).WithOp(op).WithDetails(conflicts)
	}

	if cszNew && (!ext.City.HasValue() || !ext.State.HasValue()) {
		return plan, apperr.PreconditionFailed("city and state are required to create a city/state/zip").WithOp(op)
	}
	if streetNew && !ext.StreetLine.HasValue() {
		return plan, apperr.PreconditionFailed("street name is required to create a street").WithOp(op)
	}

	steps := make([]Step, 0, 4)
	if cszNew {
		steps = append(steps, Step{
			Kind:  EnsureCityStateZip,
			City:  ext.City.String(),
			State: ext.State.String(),
			Zip:   ext.Zip.Ptr(),
		})
	}
	if streetNew {
		step := Step{Kind: EnsureStreet, StreetName: ext.StreetLine.String()}
		if !cszNew {
			step.ParentID = in.CityStateZip.ID
		}
		steps = append(steps, step)
	}
	if addressNew {
		step := Step{Kind: EnsureMailingAddress, BuildingNumber: ext.Number.String()}
		if !streetNew {
			step.ParentID = in.Street.ID
		}
		steps = append(steps, step)
	}
	if linkNew {
		step := Step{Kind: LinkRole, ParcelKey: in.Parcel.Key, Role: n.Role}
		if !addressNew {
			step.ParentID = in.MailingAddress.ID
		}
		steps = append(steps, step)
	}

	plan.Steps = steps
	return plan, nil
}

// Prepare runs the pure part of the engine for one input. It reports false
// when there is nothing to reconcile.
func Prepare(in Input) (Plan, bool, error) {
	n, ok := Normalize(in)
	if !ok {
		return Plan{ParcelID: in.ParcelID, Role: in.Role, ParcelKey: in.Parcel.Key}, false, nil
	}
	plan, err := Resolve(n, CompareAll(n))
	return plan, true, err
}

func mismatchReason(name FieldName) string {
	switch name {
	case FieldParcelID, FieldLinkedRole:
		return "identity mismatch; refusing to guess which side is authoritative"
	default:
		return "stored value differs; replacing rows requires manual review"
	}
}

func conflictMessage(conflicts []ConflictDetail) string {
	levels := make([]string, 0, len(conflicts))
	seen := make(map[Level]bool, len(conflicts))
	for _, c := range conflicts {
		if seen[c.Level] {
			continue
		}
		seen[c.Level] = true
		levels = append(levels, string(c.Level))
	}
	return "unresolved differences at " + strings.Join(levels, ", ")
}
