package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Classification is the relationship between an external and an internal value.
type Classification int

const (
	Match Classification = iota
	VariantMatch
	Mismatch
	MissingInternally
)

func (c Classification) String() string {
	switch c {
	case Match:
		return "MATCH"
	case VariantMatch:
		return "VARIANT_MATCH"
	case Mismatch:
		return "MISMATCH"
	case MissingInternally:
		return "MISSING_INTERNALLY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the classification name in JSON payloads.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// FieldName identifies a comparable field.
type FieldName string

const (
	FieldParcelID       FieldName = "parcel_id"
	FieldLinkedRole     FieldName = "linked_role"
	FieldBuildingNumber FieldName = "building_number"
	FieldStreet         FieldName = "street"
	FieldCity           FieldName = "city"
	FieldStateAbbr      FieldName = "state"
	FieldZip            FieldName = "zip"
)

// FieldOrder lists the comparable fields from least to most dependent level.
var FieldOrder = []FieldName{
	FieldCity,
	FieldStateAbbr,
	FieldZip,
	FieldStreet,
	FieldBuildingNumber,
	FieldLinkedRole,
	FieldParcelID,
}

// Classifications maps each comparable field to its classification.
type Classifications map[FieldName]Classification

// Get returns the classification for name. Unclassified fields read as Match.
func (c Classifications) Get(name FieldName) Classification {
	return c[name]
}

// Any reports whether any of the named fields has the given classification.
func (c Classifications) Any(want Classification, names ...FieldName) bool {
	for _, n := range names {
		if c[n] == want {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the classifications as an object of names.
func (c Classifications) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(c))
	for k, v := range c {
		out[string(k)] = v.String()
	}
	return json.Marshal(out)
}

// Compare classifies one field.
//
// An internal Null carries no value and is compared like Absent. Variants
// apply only when the plain comparison fails.
func Compare(external, internal Field, variants []string) Classification {
	switch {
	case !external.HasValue() && !internal.HasValue():
		return Match
	case !external.HasValue():
		// Gaze lost a value Cog has. Flag it, never clear Cog.
		return Mismatch
	case !internal.HasValue():
		return MissingInternally
	}

	if external.Upper() == internal.Upper() {
		return Match
	}

	for _, v := range variants {
		if strings.ToUpper(v) == external.Upper() {
			return VariantMatch
		}
	}

	return Mismatch
}

// CompareAll classifies every comparable field of a normalized pair.
func CompareAll(n Normalized) Classifications {
	ext := n.External
	in := n.Internal

	return Classifications{
		FieldParcelID:       Compare(Value(n.ParcelID), in.Parcel.ExternalID, nil),
		FieldLinkedRole:     Compare(Value(strconv.Itoa(n.Role.ID())), in.linkedRoleField(), nil),
		FieldBuildingNumber: Compare(ext.Number, in.MailingAddress.BuildingNumber, nil),
		FieldStreet:         Compare(ext.StreetLine, in.Street.Name, in.Street.NameVariants),
		FieldCity:           Compare(ext.City, in.CityStateZip.City, nil),
		FieldStateAbbr:      Compare(ext.State, in.CityStateZip.StateAbbr, nil),
		FieldZip:            Compare(ext.Zip, in.CityStateZip.ZipCode, nil),
	}
}

// internalValue returns the internal field compared for name.
func (n Normalized) internalValue(name FieldName) Field {
	in := n.Internal
	switch name {
	case FieldParcelID:
		return in.Parcel.ExternalID
	case FieldLinkedRole:
		return in.linkedRoleField()
	case FieldBuildingNumber:
		return in.MailingAddress.BuildingNumber
	case FieldStreet:
		return in.Street.Name
	case FieldCity:
		return in.CityStateZip.City
	case FieldStateAbbr:
		return in.CityStateZip.StateAbbr
	case FieldZip:
		return in.CityStateZip.ZipCode
	default:
		return Absent()
	}
}

// externalValue returns the external field compared for name.
func (n Normalized) externalValue(name FieldName) Field {
	ext := n.External
	switch name {
	case FieldParcelID:
		return Value(n.ParcelID)
	case FieldLinkedRole:
		return Value(strconv.Itoa(n.Role.ID()))
	case FieldBuildingNumber:
		return ext.Number
	case FieldStreet:
		return ext.StreetLine
	case FieldCity:
		return ext.City
	case FieldStateAbbr:
		return ext.State
	case FieldZip:
		return ext.Zip
	default:
		return Absent()
	}
}
