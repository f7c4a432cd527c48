package reconcile

import "strconv"

// Role is the linked object role binding a parcel to a mailing address.
type Role int

const (
	// RoleOwnerMailing is the owner mailing address role.
	RoleOwnerMailing Role = 233
	// RoleMortgageMailing is the mortgage mailing address role.
	RoleMortgageMailing Role = 234
)

// Roles lists the reconciled roles in processing order.
var Roles = []Role{RoleOwnerMailing, RoleMortgageMailing}

// ID returns the role id as stored in Cog.
func (r Role) ID() int { return int(r) }

func (r Role) String() string {
	switch r {
	case RoleOwnerMailing:
		return "owner"
	case RoleMortgageMailing:
		return "mortgage"
	default:
		return "role_" + strconv.Itoa(int(r))
	}
}

// ExternalAddress is a parsed mailing address as reported by Gaze.
// Every field is either absent or present; Gaze does not distinguish null.
type ExternalAddress struct {
	Number        Field
	Prefix        Field
	Street        Field
	Type          Field
	Suffix        Field
	City          Field
	State         Field
	Zip           Field
	Plus4         Field
	SecUnitType   Field
	SecUnitNumber Field
	Addressee     Field
}

// ParcelRow is the parcel a hierarchy hangs from.
type ParcelRow struct {
	Exists     bool
	Key        int64
	ExternalID Field
}

// LinkageRow is the parcelmailingaddress row for one role.
type LinkageRow struct {
	Exists    bool
	RoleID    int
	AddressID int64
}

// MailingAddressRow is the mailingaddress row the linkage points at.
type MailingAddressRow struct {
	Exists         bool
	ID             int64
	BuildingNumber Field
}

// StreetRow is the mailingstreet row owning the mailing address.
type StreetRow struct {
	Exists       bool
	ID           int64
	Name         Field
	NameVariants []string
	IsPoBox      *bool
}

// CityStateZipRow is the mailingcitystatezip row owning the street.
type CityStateZipRow struct {
	Exists       bool
	ID           int64
	ZipCode      Field
	StateAbbr    Field
	City         Field
	ListType     Field
	DefaultState Field
	DefaultCity  Field
	DefaultType  Field
}

// InternalHierarchy is the Cog mailing hierarchy for one (parcel, role).
// Levels are populated independently; a level whose row is missing has
// Exists=false and Absent fields.
type InternalHierarchy struct {
	Linkage        LinkageRow
	MailingAddress MailingAddressRow
	Street         StreetRow
	CityStateZip   CityStateZipRow
}

// InternalSnapshot is everything Cog holds for one parcel.
// Owner and Mortgage are nil when no linkage exists for that role.
type InternalSnapshot struct {
	Parcel   ParcelRow
	Owner    *InternalHierarchy
	Mortgage *InternalHierarchy
}

// ForRole returns the hierarchy for the given role.
func (s InternalSnapshot) ForRole(role Role) *InternalHierarchy {
	switch role {
	case RoleOwnerMailing:
		return s.Owner
	case RoleMortgageMailing:
		return s.Mortgage
	default:
		return nil
	}
}

// ExternalSnapshot is everything Gaze reports for one parcel.
// Mailing and Mortgage are nil when Gaze has no parsed address for the role.
type ExternalSnapshot struct {
	Mailing  *ExternalAddress
	Mortgage *ExternalAddress
}

// ForRole returns the external address for the given role.
func (s ExternalSnapshot) ForRole(role Role) *ExternalAddress {
	switch role {
	case RoleOwnerMailing:
		return s.Mailing
	case RoleMortgageMailing:
		return s.Mortgage
	default:
		return nil
	}
}
