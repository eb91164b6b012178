// Package domain models the data fused by the flood risk engine.
//
// # Data Sources
//
// Streamflow forecasts come from the NOAA National Water Model (NWM)
// short-range channel output. An upstream retriever reduces each forecast
// cycle to one maximum-discharge value per reach (NWM feature_id) inside the
// study HUC and publishes the batch as a single JSON document.
//
// Flood depths are derived with the HAND (Height Above Nearest Drainage)
// method: each reach carries a precomputed synthetic rating table mapping
// discharge to inundation depth, plus a catchment pixel mask describing which
// cells of the study grid the reach floods.
//
// Social vulnerability comes from the CDC/ATSDR Social Vulnerability Index
// (SVI), pre-rasterized to a continuous 0–1 score on its own native grid,
// which generally does not match the depth grid.
//
// # Grid Conventions
//
// Grids are axis-aligned with square cells, origin at the upper-left corner,
// rows increasing southward (y decreasing) and columns increasing eastward.
// Cells are stored row-major. The CRS is identified by EPSG code; all grids
// in one fusion run must share a projection with resolvable parameters or
// alignment fails.
//
// # No-Data
//
// Continuous rasters use the float sentinel [NoData] (-9999); class rasters
// use [ClassNoData] (-1). No-data means "no valid measurement" and is never
// the same as zero: a zero depth is dry ground inside the modeled area, while
// no-data is outside it. No-data in any fusion input propagates to no-data in
// the output.
package domain
