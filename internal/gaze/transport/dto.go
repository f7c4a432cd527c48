// Package transport decodes Gaze owner-info responses into external addresses.
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cog_mailing_sync/internal/reconcile"
	"cog_mailing_sync/platform/apperr"
)

// Parsed address keys Gaze is known to return.
const (
	KeyNumber        = "number"
	KeyPrefix        = "prefix"
	KeyStreet        = "street"
	KeyType          = "type"
	KeySuffix        = "suffix"
	KeyCity          = "city"
	KeyState         = "state"
	KeyZip           = "zip"
	KeyPlus4         = "plus4"
	KeySecUnitType   = "sec_unit_type"
	KeySecUnitNumber = "sec_unit_num"
)

var allowedKeys = map[string]struct{}{
	KeyNumber: {}, KeyPrefix: {}, KeyStreet: {}, KeyType: {}, KeySuffix: {},
	KeyCity: {}, KeyState: {}, KeyZip: {}, KeyPlus4: {},
	KeySecUnitType: {}, KeySecUnitNumber: {},
}

// OwnerInfoResponse is the subset of the owner-info payload this service reads.
type OwnerInfoResponse struct {
	Results struct {
		Mailing  *AddressSection `json:"mailing"`
		Mortgage *AddressSection `json:"mortgage"`
	} `json:"results"`
}

// AddressSection holds the parsed form of one address. Parsed is null when
// Gaze has no address for the role.
type AddressSection struct {
	Addressee json.RawMessage `json:"addressee,omitempty"`
	Parsed    json.RawMessage `json:"parsed"`
}

// Snapshot is one decoded owner-info fetch.
type Snapshot struct {
	ParcelID  string
	FetchedAt time.Time
	External  reconcile.ExternalSnapshot
	// Raw is the response body as received, kept for archiving.
	Raw []byte
}

// DecodeOwnerInfo decodes an owner-info body. A body that is not the
// expected shape, or a parsed address carrying keys outside the known set,
// is rejected with InputRejected.
func DecodeOwnerInfo(body []byte) (reconcile.ExternalSnapshot, error) {
	const op = "gaze.DecodeOwnerInfo"

	var resp OwnerInfoResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return reconcile.ExternalSnapshot{}, apperr.InputRejected(fmt.Sprintf("decode owner info: %v", err)).WithOp(op)
	}

	mailing, err := decodeSection(resp.Results.Mailing)
	if err != nil {
		return reconcile.ExternalSnapshot{}, apperr.InputRejected(fmt.Sprintf("mailing: %v", err)).WithOp(op)
	}
	mortgage, err := decodeSection(resp.Results.Mortgage)
	if err != nil {
		return reconcile.ExternalSnapshot{}, apperr.InputRejected(fmt.Sprintf("mortgage: %v", err)).WithOp(op)
	}

	return reconcile.ExternalSnapshot{Mailing: mailing, Mortgage: mortgage}, nil
}

func decodeSection(section *AddressSection) (*reconcile.ExternalAddress, error) {
	if section == nil || isNull(section.Parsed) {
		return nil, nil
	}

	var parsed map[string]any
	dec := json.NewDecoder(bytes.NewReader(section.Parsed))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsed address is not an object: %w", err)
	}

	var unexpected []string
	for k := range parsed {
		if _, ok := allowedKeys[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, fmt.Errorf("unexpected keys %s in parsed address", strings.Join(unexpected, ", "))
	}

	addr := &reconcile.ExternalAddress{}
	fields := []struct {
		key string
		dst *reconcile.Field
	}{
		{KeyNumber, &addr.Number},
		{KeyPrefix, &addr.Prefix},
		{KeyStreet, &addr.Street},
		{KeyType, &addr.Type},
		{KeySuffix, &addr.Suffix},
		{KeyCity, &addr.City},
		{KeyState, &addr.State},
		{KeyZip, &addr.Zip},
		{KeyPlus4, &addr.Plus4},
		{KeySecUnitType, &addr.SecUnitType},
		{KeySecUnitNumber, &addr.SecUnitNumber},
	}
	for _, f := range fields {
		v, err := fieldValue(parsed, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	addr.Addressee = addressee(section.Addressee)
	return addr, nil
}

// fieldValue maps a parsed key to a Field: a missing key, JSON null or a
// blank string is Absent; strings and numbers are values.
func fieldValue(parsed map[string]any, key string) (reconcile.Field, error) {
	raw, ok := parsed[key]
	if !ok {
		return reconcile.Absent(), nil
	}
	switch v := raw.(type) {
	case nil:
		return reconcile.Absent(), nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return reconcile.Absent(), nil
		}
		return reconcile.Value(v), nil
	case json.Number:
		return reconcile.Value(v.String()), nil
	default:
		return reconcile.Field{}, fmt.Errorf("key %q has unsupported type %T", key, raw)
	}
}

func addressee(raw json.RawMessage) reconcile.Field {
	if len(raw) == 0 || isNull(raw) {
		return reconcile.Absent()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return reconcile.Absent()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return reconcile.Absent()
	}
	return reconcile.Value(s)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
