// Package domain models the four fact tables behind the NYC transit
// dashboard and the cleaning rules that standardize raw source rows.
//
// # Data Sources
//
// Daily ridership comes from the MTA daily ridership dataset on data.ny.gov
// (subway and bus estimated totals). Hourly subway ridership comes from two
// stitched Socrata datasets (2020-2024 and 2025 onward), aggregated from
// station level to borough level. Weather is NOAA GHCNd daily summaries for
// a single station, by default Central Park (USW00094728), in standard units
// (Fahrenheit, inches). Event counts come from the NYC permitted-event
// dataset on data.cityofnewyork.us, counted per date and borough.
//
// # Conventions
//
// Dates are UTC midnight; rows that cannot produce a date are dropped.
// Boroughs are normalized into the closed set {Bronx, Brooklyn, Manhattan,
// Queens, Staten Island}; raw codes like "MN" or "BKLN" are mapped via
// [NormalizeBorough] and unrecognized values are dropped wherever borough is
// part of the natural key. Rider counts are non-negative integers with
// missing values treated as zero. Weather observations are nullable
// (a station can fail to report a field) and are clamped to sane physical
// bounds during cleaning.
//
// # Keys
//
// Every record is an append-only fact keyed by its natural composite key:
// (date, mode) for daily ridership, (date) for weather, (date, hour, borough)
// for hourly subway rows, and (date, borough) for events. Cleaning
// deduplicates on these keys with first occurrence winning, except events,
// where duplicate keys are summed (the raw feed lists one row per permit).
package domain
