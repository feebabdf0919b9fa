package mysql

const insertHotelSQL = `
INSERT INTO hotels
  (id, hotel_id, owner_id, name, city, country, description, type, price_per_night,
   facilities, images, version, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const hotelCols = `
  id, hotel_id, owner_id, name, city, country, description, type, price_per_night,
  facilities, images, version, created_at, updated_at
`

const findHotelSQLPrefix = `SELECT` + hotelCols + `FROM hotels WHERE `

// Conditional replace: the version predicate makes the row-level write a
// compare-and-swap, so a concurrent writer can never be silently overwritten.
// The repo pins business-keyed writes to the resolved primary key on top of
// this prefix; the key column alone does not bound the UPDATE to one row.
const replaceHotelSQLPrefix = `
UPDATE hotels SET
  hotel_id        = ?,
  name            = ?,
  city            = ?,
  country         = ?,
  description     = ?,
  type            = ?,
  price_per_night = ?,
  facilities      = ?,
  images          = ?,
  version         = version + 1,
  updated_at      = ?
WHERE `

const listHotelsSQL = `
SELECT` + hotelCols + `
FROM hotels
WHERE owner_id = ?
ORDER BY updated_at DESC, id
LIMIT ?
`
