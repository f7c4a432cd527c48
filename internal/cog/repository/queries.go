package repository

// All statements are constant text. Only values are bound as parameters.
const (
	queryParcelByExternalID = `
		SELECT parcelkey, parcelidcnty
		FROM parcel
		WHERE parcelidcnty = $1 AND deactivatedts IS NULL
		ORDER BY parcelkey
		LIMIT 1`

	queryRoleLinkages = `
		SELECT linkedobjectrole_lorid, mailingaddress_addressid
		FROM parcelmailingaddress
		WHERE parcel_parcelkey = $1
			AND deactivatedts IS NULL
			AND linkedobjectrole_lorid IN ($2, $3)
		ORDER BY linkedobjectrole_lorid, mailingaddress_addressid`

	queryMailingAddress = `
		SELECT addressid, bldgno, street_streetid
		FROM mailingaddress
		WHERE addressid = $1 AND deactivatedts IS NULL`

	queryStreet = `
		SELECT streetid, name, namevariantsarr, pobox, citystatezip_cszipid
		FROM mailingstreet
		WHERE streetid = $1 AND deactivatedts IS NULL`

	queryCityStateZip = `
		SELECT id, zip_code, state_abbr, city,
			list_type::text, default_state::text, default_city::text, default_type::text
		FROM mailingcitystatezip
		WHERE id = $1 AND deactivatedts IS NULL`

	queryFindCityStateZip = `
		SELECT id
		FROM mailingcitystatezip
		WHERE upper(city) = $1
			AND upper(state_abbr) = $2
			AND upper(zip_code) IS NOT DISTINCT FROM $3
			AND deactivatedts IS NULL
		ORDER BY id
		LIMIT 1`

	queryCreateCityStateZip = `
		INSERT INTO mailingcitystatezip
			(city, state_abbr, zip_code, source_sourceid, lastupdatedts, lastupdatedby_userid)
		VALUES ($1, $2, $3, $4, now(), $5)
		RETURNING id`

	queryFindStreet = `
		SELECT streetid
		FROM mailingstreet
		WHERE citystatezip_cszipid = $1
			AND upper(name) = $2
			AND deactivatedts IS NULL
		ORDER BY streetid
		LIMIT 1`

	queryCreateStreet = `
		INSERT INTO mailingstreet
			(name, citystatezip_cszipid, pobox, lastupdatedts, lastupdatedby_userid)
		VALUES ($1, $2, NULL, now(), $3)
		RETURNING streetid`

	queryFindMailingAddress = `
		SELECT addressid
		FROM mailingaddress
		WHERE street_streetid = $1
			AND upper(bldgno) = upper($2)
			AND deactivatedts IS NULL
		ORDER BY addressid
		LIMIT 1`

	queryCreateMailingAddress = `
		INSERT INTO mailingaddress
			(bldgno, street_streetid, source_sourceid, createdts, createdby_userid, lastupdatedts, lastupdatedby_userid)
		VALUES ($1, $2, $3, now(), $4, now(), $4)
		RETURNING addressid`

	queryLinkRole = `
		INSERT INTO parcelmailingaddress
			(parcel_parcelkey, mailingaddress_addressid, linkedobjectrole_lorid, source_sourceid,
			 createdts, createdby_userid, lastupdatedts, lastupdatedby_userid)
		VALUES ($1, $2, $3, $4, now(), $5, now(), $5)`

	queryListActiveParcelIDs = `
		SELECT parcelidcnty
		FROM parcel
		WHERE deactivatedts IS NULL
			AND parcelidcnty IS NOT NULL
			AND parcelidcnty > $1
		ORDER BY parcelidcnty
		LIMIT $2`
)
