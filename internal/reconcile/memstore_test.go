package reconcile

import (
	"context"
	"errors"
	"strings"
)

type memCityStateZip struct {
	city, state string
	zip         *string
}

type memStreet struct {
	cszID int64
	name  string
}

type memAddress struct {
	streetID int64
	bldg     string
}

type memLink struct {
	parcelKey int64
	addressID int64
	role      Role
}

// memStore is an in-memory Store that records every call in order.
type memStore struct {
	nextID    int64
	csz       map[int64]memCityStateZip
	streets   map[int64]memStreet
	addresses map[int64]memAddress
	links     []memLink
	calls     []string
	failOn    string
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    100,
		csz:       map[int64]memCityStateZip{},
		streets:   map[int64]memStreet{},
		addresses: map[int64]memAddress{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) record(call string) error {
	m.calls = append(m.calls, call)
	if m.failOn == call {
		return errors.New("injected failure on " + call)
	}
	return nil
}

func (m *memStore) FindCityStateZip(_ context.Context, key CityStateZipKey) (int64, bool, error) {
	if err := m.record("find_csz"); err != nil {
		return 0, false, err
	}
	for id, row := range m.csz {
		if strings.ToUpper(row.city) != key.City || strings.ToUpper(row.state) != key.State {
			continue
		}
		if (row.zip == nil) != (key.Zip == nil) {
			continue
		}
		if row.zip != nil && strings.ToUpper(*row.zip) != *key.Zip {
			continue
		}
		return id, true, nil
	}
	return 0, false, nil
}

func (m *memStore) CreateCityStateZip(_ context.Context, city, state string, zip *string) (int64, error) {
	if err := m.record("create_csz"); err != nil {
		return 0, err
	}
	id := m.id()
	m.csz[id] = memCityStateZip{city: city, state: state, zip: zip}
	return id, nil
}

func (m *memStore) FindStreet(_ context.Context, cszID int64, name string) (int64, bool, error) {
	if err := m.record("find_street"); err != nil {
		return 0, false, err
	}
	for id, row := range m.streets {
		if row.cszID == cszID && strings.ToUpper(row.name) == name {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) CreateStreet(_ context.Context, cszID int64, name string) (int64, error) {
	if err := m.record("create_street"); err != nil {
		return 0, err
	}
	if _, ok := m.csz[cszID]; !ok {
		return 0, errors.New("foreign key violation: city/state/zip")
	}
	id := m.id()
	m.streets[id] = memStreet{cszID: cszID, name: name}
	return id, nil
}

func (m *memStore) FindMailingAddress(_ context.Context, streetID int64, bldg string) (int64, bool, error) {
	if err := m.record("find_address"); err != nil {
		return 0, false, err
	}
	for id, row := range m.addresses {
		if row.streetID == streetID && row.bldg == bldg {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) CreateMailingAddress(_ context.Context, streetID int64, bldg string) (int64, error) {
	if err := m.record("create_address"); err != nil {
		return 0, err
	}
	if _, ok := m.streets[streetID]; !ok {
		return 0, errors.New("foreign key violation: street")
	}
	id := m.id()
	m.addresses[id] = memAddress{streetID: streetID, bldg: bldg}
	return id, nil
}

func (m *memStore) LinkRole(_ context.Context, parcelKey, addressID int64, role Role) error {
	if err := m.record("link"); err != nil {
		return err
	}
	if _, ok := m.addresses[addressID]; !ok {
		return errors.New("foreign key violation: mailing address")
	}
	for _, l := range m.links {
		if l.parcelKey == parcelKey && l.role == role {
			return errors.New("unique violation: parcel role already linked")
		}
	}
	m.links = append(m.links, memLink{parcelKey: parcelKey, addressID: addressID, role: role})
	return nil
}

// hierarchy reads back the hierarchy for a parcel role the way the Cog
// repository would.
func (m *memStore) hierarchy(parcelKey int64, role Role) *InternalHierarchy {
	for _, l := range m.links {
		if l.parcelKey != parcelKey || l.role != role {
			continue
		}
		h := &InternalHierarchy{
			Linkage: LinkageRow{Exists: true, RoleID: role.ID(), AddressID: l.addressID},
		}
		addr, ok := m.addresses[l.addressID]
		if !ok {
			return h
		}
		h.MailingAddress = MailingAddressRow{Exists: true, ID: l.addressID, BuildingNumber: Value(addr.bldg)}
		street, ok := m.streets[addr.streetID]
		if !ok {
			return h
		}
		h.Street = StreetRow{Exists: true, ID: addr.streetID, Name: Value(street.name)}
		csz, ok := m.csz[street.cszID]
		if !ok {
			return h
		}
		h.CityStateZip = CityStateZipRow{
			Exists:    true,
			ID:        street.cszID,
			City:      Value(csz.city),
			StateAbbr: Value(csz.state),
			ZipCode:   FromPtr(csz.zip),
		}
		return h
	}
	return nil
}
