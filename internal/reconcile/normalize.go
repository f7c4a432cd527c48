package reconcile

import (
	"strconv"
	"strings"
)

// Input is one (parcel, role) pair to reconcile.
type Input struct {
	// ParcelID is the county parcel identifier the external lookup was made with.
	ParcelID string
	Role     Role
	Parcel   ParcelRow
	External *ExternalAddress
	Internal *InternalHierarchy
}

// NormalizedExternal is an external address with every field keyed.
type NormalizedExternal struct {
	ExternalAddress
	// StreetLine is the prefix, street, type and suffix joined by spaces.
	StreetLine Field
}

// NormalizedInternal is an internal hierarchy with consistent level states.
type NormalizedInternal struct {
	Parcel ParcelRow
	InternalHierarchy
}

// Normalized is the input to the comparator and resolver.
type Normalized struct {
	ParcelID string
	Role     Role
	External NormalizedExternal
	Internal NormalizedInternal
}

// Normalize turns raw inputs into fully keyed records. It reports false when
// neither side has an address for the role, in which case there is nothing
// to reconcile.
//
// A missing external address with a present internal one is compared as an
// all-absent external record; the resolver then flags rather than deletes.
func Normalize(in Input) (Normalized, bool) {
	if in.External == nil && in.Internal == nil {
		return Normalized{ParcelID: in.ParcelID, Role: in.Role}, false
	}

	ext := ExternalAddress{}
	if in.External != nil {
		ext = *in.External
	}

	internal := InternalHierarchy{}
	if in.Internal != nil {
		internal = *in.Internal
	}

	return Normalized{
		ParcelID: in.ParcelID,
		Role:     in.Role,
		External: NormalizedExternal{
			ExternalAddress: ext,
			StreetLine:      streetLine(ext),
		},
		Internal: NormalizedInternal{
			Parcel:            normalizeParcel(in.Parcel),
			InternalHierarchy: normalizeHierarchy(internal),
		},
	}, true
}

func streetLine(ext ExternalAddress) Field {
	parts := make([]string, 0, 4)
	for _, f := range []Field{ext.Prefix, ext.Street, ext.Type, ext.Suffix} {
		if f.HasValue() && f.String() != "" {
			parts = append(parts, f.String())
		}
	}
	if len(parts) == 0 {
		return Absent()
	}
	return Value(strings.Join(parts, " "))
}

func normalizeParcel(p ParcelRow) ParcelRow {
	if !p.Exists {
		return ParcelRow{ExternalID: Absent()}
	}
	return p
}

// normalizeHierarchy clears every field of a level whose row does not exist,
// so a missing row can never masquerade as a present value.
func normalizeHierarchy(h InternalHierarchy) InternalHierarchy {
	if !h.Linkage.Exists {
		h.Linkage = LinkageRow{}
	}
	if !h.MailingAddress.Exists {
		h.MailingAddress = MailingAddressRow{BuildingNumber: Absent()}
	}
	if !h.Street.Exists {
		h.Street = StreetRow{Name: Absent()}
	}
	if !h.CityStateZip.Exists {
		h.CityStateZip = CityStateZipRow{
			ZipCode:      Absent(),
			StateAbbr:    Absent(),
			City:         Absent(),
			ListType:     Absent(),
			DefaultState: Absent(),
			DefaultCity:  Absent(),
			DefaultType:  Absent(),
		}
	}
	return h
}

// linkedRoleField is the internal value of the linked role marker.
func (n NormalizedInternal) linkedRoleField() Field {
	if !n.Linkage.Exists {
		return Absent()
	}
	return Value(strconv.Itoa(n.Linkage.RoleID))
}
